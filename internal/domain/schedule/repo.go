package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateException is returned when a second exception is created for
// the same (doctor, date).
var ErrDuplicateException = errors.New("an exception already exists for this date")

type WorkingHoursRepository interface {
	// ReplaceForDoctor swaps the doctor's full weekly template atomically.
	ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, entries []*WorkingHours) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WorkingHours, error)
	// ListForWeekday returns the doctor's ranges for one weekday ordered by
	// start time. Empty means the doctor does not work that day.
	ListForWeekday(ctx context.Context, doctorID uuid.UUID, weekday int) ([]*WorkingHours, error)
}

type ExceptionRepository interface {
	Create(ctx context.Context, e *ScheduleException) error
	// GetByDate returns nil (no error) when the date has no exception.
	GetByDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*ScheduleException, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleException, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
