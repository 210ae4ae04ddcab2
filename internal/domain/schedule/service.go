package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Invalidator drops cached availability for a doctor after a schedule write.
type Invalidator interface {
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) error
}

type Service struct {
	hours       WorkingHoursRepository
	exceptions  ExceptionRepository
	invalidator Invalidator
	loc         *time.Location
	now         func() time.Time
}

func NewService(hours WorkingHoursRepository, exceptions ExceptionRepository, invalidator Invalidator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		hours:       hours,
		exceptions:  exceptions,
		invalidator: invalidator,
		loc:         loc,
		now:         time.Now,
	}
}

// SetInvalidator wires the availability cache after construction. The
// availability service consumes this service, so the two cannot be built in
// one pass.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// -- Working hours --

// SetWorkingHours replaces the doctor's weekly template. Ranges on the same
// weekday must not overlap.
func (s *Service) SetWorkingHours(ctx context.Context, doctorID uuid.UUID, entries []*WorkingHours) error {
	for _, w := range entries {
		w.DoctorID = doctorID
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if err := checkDayOverlaps(entries); err != nil {
		return err
	}

	if err := s.hours.ReplaceForDoctor(ctx, doctorID, entries); err != nil {
		return err
	}
	s.invalidate(ctx, doctorID)
	return nil
}

func (s *Service) GetWorkingHours(ctx context.Context, doctorID uuid.UUID) ([]*WorkingHours, error) {
	return s.hours.ListByDoctor(ctx, doctorID)
}

// RangesForDay returns the doctor's configured ranges for one weekday,
// ordered by start time. Empty means fully unavailable that day.
func (s *Service) RangesForDay(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]*WorkingHours, error) {
	return s.hours.ListForWeekday(ctx, doctorID, int(weekday))
}

func checkDayOverlaps(entries []*WorkingHours) error {
	byDay := make(map[int][]*WorkingHours)
	for _, w := range entries {
		byDay[w.Weekday] = append(byDay[w.Weekday], w)
	}
	for day, ranges := range byDay {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartMin < ranges[j].StartMin })
		for i := 1; i < len(ranges); i++ {
			if ranges[i].StartMin < ranges[i-1].EndMin {
				return fmt.Errorf("overlapping ranges on weekday %d: %s-%s and %s-%s",
					day,
					FormatClock(ranges[i-1].StartMin), FormatClock(ranges[i-1].EndMin),
					FormatClock(ranges[i].StartMin), FormatClock(ranges[i].EndMin))
			}
		}
	}
	return nil
}

// -- Exceptions --

// CreateException registers a one-off block. Past dates are rejected against
// the clinic clock; a duplicate for the same date surfaces
// ErrDuplicateException from the repository.
func (s *Service) CreateException(ctx context.Context, e *ScheduleException) error {
	if err := e.Validate(); err != nil {
		return err
	}

	today := s.today()
	if e.Date.Before(today) {
		return fmt.Errorf("fecha must not be in the past")
	}

	if err := s.exceptions.Create(ctx, e); err != nil {
		return err
	}
	s.invalidate(ctx, e.DoctorID)
	return nil
}

// ExceptionForDate returns the exception covering date, or nil when none.
func (s *Service) ExceptionForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*ScheduleException, error) {
	return s.exceptions.GetByDate(ctx, doctorID, date)
}

func (s *Service) ListExceptions(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleException, error) {
	return s.exceptions.ListByDoctor(ctx, doctorID, from, to)
}

func (s *Service) DeleteException(ctx context.Context, doctorID, id uuid.UUID) error {
	if err := s.exceptions.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, doctorID)
	return nil
}

func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if s.invalidator != nil {
		// Cache invalidation failure must not fail the write.
		_ = s.invalidator.InvalidateDoctor(ctx, doctorID)
	}
}
