package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenda/agenda/internal/domain/availability"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the appointment's current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// Validator answers whether a requested interval is bookable right now.
type Validator interface {
	ValidateBooking(ctx context.Context, doctorID uuid.UUID, start time.Time, durationMin int) (availability.BookingCheck, error)
}

// Invalidator drops cached availability for a doctor after a write.
type Invalidator interface {
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) error
}

// ConflictError is a booking rejected for a business reason. Reason holds the
// machine-readable code returned to clients.
type ConflictError struct {
	Reason  string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

type Service struct {
	repo        Repository
	validator   Validator
	invalidator Invalidator

	// locks serializes validate-then-insert per doctor so two concurrent
	// overlapping bookings cannot both pass validation.
	locks sync.Map
}

func NewService(repo Repository, validator Validator, invalidator Invalidator) *Service {
	return &Service{repo: repo, validator: validator, invalidator: invalidator}
}

func (s *Service) doctorLock(doctorID uuid.UUID) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(doctorID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Book validates and inserts a new appointment. The whole check-and-insert
// runs under the doctor's lock.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	a.Status = StatusScheduled

	lock := s.doctorLock(a.DoctorID)
	lock.Lock()
	defer lock.Unlock()

	check, err := s.validator.ValidateBooking(ctx, a.DoctorID, a.StartTime, a.DurationMin)
	if err != nil {
		return err
	}
	if !check.OK {
		return &ConflictError{Reason: check.Reason, Message: check.Message}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.invalidate(ctx, a.DoctorID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// UpdateStatus moves an appointment through its lifecycle. Moving to a
// non-occupying status frees the slot, so the cache is invalidated either way.
// The check-and-write runs under the doctor's lock so concurrent transitions
// (and bookings) cannot race past CanTransition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	if !next.valid() {
		return nil, fmt.Errorf("unknown status %q: %w", next, ErrInvalidTransition)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	lock := s.doctorLock(a.DoctorID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; another transition may have landed first.
	a, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(next) {
		return nil, fmt.Errorf("cannot move appointment from %s to %s: %w", a.Status, next, ErrInvalidTransition)
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	a.Status = next
	s.invalidate(ctx, a.DoctorID)
	return a, nil
}

// Cancel is a convenience wrapper for the cancelled transition.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

func (s *Service) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if s.invalidator != nil {
		// Cache invalidation failure must not fail the write.
		_ = s.invalidator.InvalidateDoctor(ctx, doctorID)
	}
}
