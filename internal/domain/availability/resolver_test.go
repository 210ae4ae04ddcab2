package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/internal/domain/schedule"
)

type mockScheduler struct {
	hours      map[int][]*schedule.WorkingHours
	exceptions map[string]*schedule.ScheduleException
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{
		hours:      make(map[int][]*schedule.WorkingHours),
		exceptions: make(map[string]*schedule.ScheduleException),
	}
}

func (m *mockScheduler) RangesForDay(_ context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]*schedule.WorkingHours, error) {
	var out []*schedule.WorkingHours
	for _, w := range m.hours[int(weekday)] {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockScheduler) ExceptionForDate(_ context.Context, doctorID uuid.UUID, date time.Time) (*schedule.ScheduleException, error) {
	e := m.exceptions[date.Format("2006-01-02")]
	if e == nil || e.DoctorID != doctorID {
		return nil, nil
	}
	return e, nil
}

type mockLedger struct {
	occupied []Interval
}

func (m *mockLedger) OccupiedIntervals(_ context.Context, _ uuid.UUID, dayStart, dayEnd time.Time) ([]Interval, error) {
	window := Interval{Start: dayStart, End: dayEnd}
	var out []Interval
	for _, iv := range m.occupied {
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	return out, nil
}

// monday is 2026-03-16.
var monday = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

func workedExampleFixture(doctorID uuid.UUID) (*mockScheduler, *mockLedger) {
	sched := newMockScheduler()
	sched.hours[1] = []*schedule.WorkingHours{
		{DoctorID: doctorID, Weekday: 1, StartMin: 8 * 60, EndMin: 12 * 60},
		{DoctorID: doctorID, Weekday: 1, StartMin: 14 * 60, EndMin: 17 * 60},
	}
	start, end := 10*60, 11*60
	sched.exceptions["2026-03-16"] = &schedule.ScheduleException{
		DoctorID: doctorID,
		Date:     monday,
		Reason:   "reunión médica",
		StartMin: &start,
		EndMin:   &end,
	}
	ledger := &mockLedger{occupied: []Interval{
		{Start: monday.Add(9 * time.Hour), End: monday.Add(9*time.Hour + 30*time.Minute)},
	}}
	return sched, ledger
}

func TestResolveSlotsWorkedExample(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	r := NewResolver(sched, ledger, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"08:00", "08:30", "09:30", "11:00", "11:30",
		"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d: %v", len(slots), len(want), slotStarts(slots))
	}
	for i, s := range slots {
		if got := s.Start.Format("15:04"); got != want[i] {
			t.Errorf("slot %d starts at %s, want %s", i, got, want[i])
		}
		if s.DurationMin() != 30 {
			t.Errorf("slot %d duration %d, want 30", i, s.DurationMin())
		}
	}
}

func slotStarts(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestResolveSlotsIdempotent(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	r := NewResolver(sched, ledger, time.UTC)

	first, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("slot counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].BlockID != second[i].BlockID {
			t.Errorf("slot %d block id changed between calls: %s vs %s",
				i, first[i].BlockID, second[i].BlockID)
		}
		if !first[i].Start.Equal(second[i].Start) {
			t.Errorf("slot %d start changed between calls", i)
		}
	}
}

func TestResolveSlotsEmptyWeekday(t *testing.T) {
	doctorID := uuid.New()
	sched := newMockScheduler()
	r := NewResolver(sched, &mockLedger{}, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots without working hours, got %d", len(slots))
	}
}

func TestResolveSlotsFullDayException(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	sched.exceptions["2026-03-16"] = &schedule.ScheduleException{
		DoctorID: doctorID,
		Date:     monday,
		Reason:   "vacaciones",
		AllDay:   true,
	}
	r := NewResolver(sched, ledger, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots on a fully blocked day, got %d", len(slots))
	}
}

func TestResolveSlotsNoOverlapWithBlockers(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	r := NewResolver(sched, ledger, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exception := Interval{Start: monday.Add(10 * time.Hour), End: monday.Add(11 * time.Hour)}
	for _, s := range slots {
		si := Interval{Start: s.Start, End: s.End}
		for _, occ := range ledger.occupied {
			if si.Overlaps(occ) {
				t.Errorf("slot %s overlaps occupied interval", s.Start.Format("15:04"))
			}
		}
		if si.Overlaps(exception) {
			t.Errorf("slot %s overlaps partial exception", s.Start.Format("15:04"))
		}
	}
}

func TestResolveSlotsDiscardsShortTail(t *testing.T) {
	doctorID := uuid.New()
	sched := newMockScheduler()
	// 08:00-09:50 fits three 30-minute slots with a 20-minute tail.
	sched.hours[1] = []*schedule.WorkingHours{
		{DoctorID: doctorID, Weekday: 1, StartMin: 8 * 60, EndMin: 9*60 + 50},
	}
	r := NewResolver(sched, &mockLedger{}, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"08:00", "08:30", "09:00"}
	if len(slots) != len(want) {
		t.Fatalf("got %v, want starts %v", slotStarts(slots), want)
	}
	for i, s := range slots {
		if got := s.Start.Format("15:04"); got != want[i] {
			t.Errorf("slot %d starts at %s, want %s", i, got, want[i])
		}
	}
}

func TestResolveSlotsMidnightCrossingAppointment(t *testing.T) {
	doctorID := uuid.New()
	sched := newMockScheduler()
	// Early shift 00:00-02:00; an appointment booked Sunday 23:30 runs into
	// Monday and must block the 00:00 slot.
	sched.hours[1] = []*schedule.WorkingHours{
		{DoctorID: doctorID, Weekday: 1, StartMin: 0, EndMin: 2 * 60},
	}
	ledger := &mockLedger{occupied: []Interval{
		{Start: monday.Add(-30 * time.Minute), End: monday.Add(30 * time.Minute)},
	}}
	r := NewResolver(sched, ledger, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"00:30", "01:00", "01:30"}
	if len(slots) != len(want) {
		t.Fatalf("got %v, want starts %v", slotStarts(slots), want)
	}
	for i, s := range slots {
		if got := s.Start.Format("15:04"); got != want[i] {
			t.Errorf("slot %d starts at %s, want %s", i, got, want[i])
		}
	}
}

func TestValidateBookingMidnightCrossingAppointment(t *testing.T) {
	doctorID := uuid.New()
	sched := newMockScheduler()
	sched.hours[1] = []*schedule.WorkingHours{
		{DoctorID: doctorID, Weekday: 1, StartMin: 0, EndMin: 2 * 60},
	}
	ledger := &mockLedger{occupied: []Interval{
		{Start: monday.Add(-30 * time.Minute), End: monday.Add(30 * time.Minute)},
	}}
	r := NewResolver(sched, ledger, time.UTC)

	check, err := r.ValidateBooking(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.OK || check.Reason != ReasonOverlapsAppointment {
		t.Errorf("midnight-crossing appointment must block 00:00: OK=%v reason=%q", check.OK, check.Reason)
	}

	check, err = r.ValidateBooking(context.Background(), doctorID, monday.Add(30*time.Minute), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !check.OK {
		t.Errorf("00:30 slot should be free once the overnight appointment ends: %s", check.Reason)
	}
}

func TestResolveSlotsRejectsNonPositiveGranularity(t *testing.T) {
	r := NewResolver(newMockScheduler(), &mockLedger{}, time.UTC)
	if _, err := r.ResolveSlots(context.Background(), uuid.New(), monday, 0); err == nil {
		t.Fatal("expected error for zero granularity")
	}
}

func TestValidateBookingRoundTrip(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	r := NewResolver(sched, ledger, time.UTC)

	slots, err := r.ResolveSlots(context.Background(), doctorID, monday, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range slots {
		check, err := r.ValidateBooking(context.Background(), doctorID, s.Start, s.DurationMin())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !check.OK {
			t.Errorf("slot %s from ResolveSlots rejected: %s", s.Start.Format("15:04"), check.Reason)
		}
	}
}

func TestValidateBookingReasons(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	r := NewResolver(sched, ledger, time.UTC)

	cases := []struct {
		name       string
		start      time.Time
		duration   int
		wantOK     bool
		wantReason string
	}{
		{
			name:     "free slot",
			start:    monday.Add(11 * time.Hour),
			duration: 30,
			wantOK:   true,
		},
		{
			name:       "outside working hours",
			start:      monday.Add(13 * time.Hour),
			duration:   30,
			wantReason: ReasonOutsideWorkingHours,
		},
		{
			name:       "crosses end of working range",
			start:      monday.Add(11*time.Hour + 45*time.Minute),
			duration:   30,
			wantReason: ReasonOutsideWorkingHours,
		},
		{
			name:       "overlaps partial exception",
			start:      monday.Add(10*time.Hour + 30*time.Minute),
			duration:   30,
			wantReason: ReasonDoctorUnavailable,
		},
		{
			name:       "overlaps existing appointment",
			start:      monday.Add(9 * time.Hour),
			duration:   30,
			wantReason: ReasonOverlapsAppointment,
		},
		{
			name:     "touching an appointment boundary is allowed",
			start:    monday.Add(9*time.Hour + 30*time.Minute),
			duration: 30,
			wantOK:   true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check, err := r.ValidateBooking(context.Background(), doctorID, tc.start, tc.duration)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if check.OK != tc.wantOK {
				t.Fatalf("OK = %v, want %v (reason %q)", check.OK, tc.wantOK, check.Reason)
			}
			if !tc.wantOK && check.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", check.Reason, tc.wantReason)
			}
		})
	}
}

func TestValidateBookingFullDayException(t *testing.T) {
	doctorID := uuid.New()
	sched, ledger := workedExampleFixture(doctorID)
	sched.exceptions["2026-03-16"] = &schedule.ScheduleException{
		DoctorID: doctorID,
		Date:     monday,
		Reason:   "congreso",
		AllDay:   true,
	}
	r := NewResolver(sched, ledger, time.UTC)

	check, err := r.ValidateBooking(context.Background(), doctorID, monday.Add(9*time.Hour), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.OK || check.Reason != ReasonDoctorUnavailable {
		t.Errorf("expected %s, got OK=%v reason=%q", ReasonDoctorUnavailable, check.OK, check.Reason)
	}
}

func TestBlockIDDeterministic(t *testing.T) {
	doctorID := uuid.New()
	start := monday.Add(9 * time.Hour)

	if blockID(doctorID, start) != blockID(doctorID, start) {
		t.Error("block id must be stable for the same doctor and start")
	}
	if blockID(doctorID, start) == blockID(uuid.New(), start) {
		t.Error("block id must differ across doctors")
	}
	if blockID(doctorID, start) == blockID(doctorID, start.Add(30*time.Minute)) {
		t.Error("block id must differ across start times")
	}
}
