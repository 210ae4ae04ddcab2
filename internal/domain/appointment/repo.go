package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/internal/domain/availability"
)

// ErrNotFound is returned when no appointment has the given id.
var ErrNotFound = errors.New("appointment not found")

// Filter narrows List results. Nil UUIDs and zero times mean "any".
type Filter struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	From      time.Time
	To        time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// OccupiedIntervals returns the [start, end) intervals of every
	// occupying appointment that overlaps [from, to), ordered by start.
	OccupiedIntervals(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.Interval, error)
}
