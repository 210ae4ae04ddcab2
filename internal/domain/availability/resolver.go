package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/internal/domain/schedule"
)

// DefaultGranularityMin is the slot size used when neither the request nor
// the doctor specifies one.
const DefaultGranularityMin = 30

// Scheduler supplies the weekly template and one-off exceptions.
type Scheduler interface {
	RangesForDay(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]*schedule.WorkingHours, error)
	ExceptionForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*schedule.ScheduleException, error)
}

// Ledger supplies the occupied intervals of booked appointments. Cancelled
// and no-show appointments must not be reported.
type Ledger interface {
	OccupiedIntervals(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]Interval, error)
}

// Slot is one bookable block. BlockID is a deterministic function of the
// doctor and start time, so repeated resolutions of the same state yield
// identical IDs.
type Slot struct {
	BlockID uuid.UUID
	Start   time.Time
	End     time.Time
}

// DurationMin returns the slot length in minutes.
func (s Slot) DurationMin() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// Conflict reasons returned by ValidateBooking.
const (
	ReasonDoctorUnavailable   = "doctor_unavailable_exception"
	ReasonOutsideWorkingHours = "outside_working_hours"
	ReasonOverlapsAppointment = "overlaps_existing_appointment"
)

// BookingCheck is the outcome of a write-time validation. A conflict is a
// value, not an error; errors are reserved for infrastructure failure.
type BookingCheck struct {
	OK      bool
	Reason  string
	Message string
}

// Resolver turns working hours, exceptions and booked appointments into free
// slots. It holds no state of its own and persists nothing.
type Resolver struct {
	schedules Scheduler
	ledger    Ledger
	loc       *time.Location
}

func NewResolver(schedules Scheduler, ledger Ledger, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{schedules: schedules, ledger: ledger, loc: loc}
}

// at maps minutes-from-midnight on date to an absolute instant in the clinic
// timezone. time.Date normalizes, so 24*60 lands on the next midnight.
func (r *Resolver) at(date time.Time, min int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), min/60, min%60, 0, 0, r.loc)
}

func (r *Resolver) dayBounds(date time.Time) (time.Time, time.Time) {
	return r.at(date, 0), r.at(date, 24*60)
}

// freeIntervals computes the doctor's free time on date: working-hour ranges
// minus the partial exception minus occupied appointments. A full-day
// exception or an empty weekday yields nil.
func (r *Resolver) freeIntervals(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Interval, error) {
	exc, err := r.schedules.ExceptionForDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load exception: %w", err)
	}
	if exc != nil && exc.AllDay {
		return nil, nil
	}

	ranges, err := r.schedules.RangesForDay(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	free := make([]Interval, 0, len(ranges))
	for _, w := range ranges {
		free = append(free, Interval{Start: r.at(date, w.StartMin), End: r.at(date, w.EndMin)})
	}

	var blockers []Interval
	if exc != nil && exc.StartMin != nil && exc.EndMin != nil {
		blockers = append(blockers, Interval{Start: r.at(date, *exc.StartMin), End: r.at(date, *exc.EndMin)})
	}

	dayStart, dayEnd := r.dayBounds(date)
	occupied, err := r.ledger.OccupiedIntervals(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load occupied intervals: %w", err)
	}
	blockers = append(blockers, occupied...)

	return subtractAll(free, blockers), nil
}

// ResolveSlots returns the bookable slots for one doctor on one date, sorted
// ascending. granularityMin must be positive.
func (r *Resolver) ResolveSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, granularityMin int) ([]Slot, error) {
	if granularityMin <= 0 {
		return nil, fmt.Errorf("granularity must be positive, got %d", granularityMin)
	}

	free, err := r.freeIntervals(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	step := time.Duration(granularityMin) * time.Minute
	var slots []Slot
	for _, iv := range free {
		// Trailing remainders shorter than one slot are discarded.
		for start := iv.Start; !start.Add(step).After(iv.End); start = start.Add(step) {
			slots = append(slots, Slot{
				BlockID: blockID(doctorID, start),
				Start:   start,
				End:     start.Add(step),
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

// ValidateBooking checks whether [start, start+duration) can be booked. It
// re-derives the doctor's free time at call time; callers wanting atomicity
// must serialize this with the insert.
func (r *Resolver) ValidateBooking(ctx context.Context, doctorID uuid.UUID, start time.Time, durationMin int) (BookingCheck, error) {
	if durationMin <= 0 {
		return BookingCheck{}, fmt.Errorf("duration must be positive, got %d", durationMin)
	}

	requested := Interval{Start: start, End: start.Add(time.Duration(durationMin) * time.Minute)}
	date := start.In(r.loc)

	exc, err := r.schedules.ExceptionForDate(ctx, doctorID, r.at(date, 0))
	if err != nil {
		return BookingCheck{}, fmt.Errorf("load exception: %w", err)
	}
	if exc != nil && exc.AllDay {
		return BookingCheck{
			Reason:  ReasonDoctorUnavailable,
			Message: "doctor is unavailable that day: " + exc.Reason,
		}, nil
	}

	ranges, err := r.schedules.RangesForDay(ctx, doctorID, date.Weekday())
	if err != nil {
		return BookingCheck{}, fmt.Errorf("load working hours: %w", err)
	}
	within := false
	for _, w := range ranges {
		base := Interval{Start: r.at(date, w.StartMin), End: r.at(date, w.EndMin)}
		if base.Contains(requested) {
			within = true
			break
		}
	}
	if !within {
		return BookingCheck{
			Reason:  ReasonOutsideWorkingHours,
			Message: "requested time falls outside the doctor's working hours",
		}, nil
	}

	if exc != nil && exc.StartMin != nil && exc.EndMin != nil {
		blocked := Interval{Start: r.at(date, *exc.StartMin), End: r.at(date, *exc.EndMin)}
		if blocked.Overlaps(requested) {
			return BookingCheck{
				Reason:  ReasonDoctorUnavailable,
				Message: "doctor is unavailable during that time: " + exc.Reason,
			}, nil
		}
	}

	dayStart, dayEnd := r.dayBounds(date)
	occupied, err := r.ledger.OccupiedIntervals(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return BookingCheck{}, fmt.Errorf("load occupied intervals: %w", err)
	}
	for _, iv := range occupied {
		if iv.Overlaps(requested) {
			return BookingCheck{
				Reason:  ReasonOverlapsAppointment,
				Message: "requested time overlaps an existing appointment",
			}, nil
		}
	}

	return BookingCheck{OK: true}, nil
}

// blockID derives a stable slot identifier from the doctor and the absolute
// start instant.
func blockID(doctorID uuid.UUID, start time.Time) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(doctorID.String()+"|"+start.UTC().Format(time.RFC3339)))
}
