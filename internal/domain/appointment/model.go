package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle state. Cancelled and no-show
// appointments do not occupy the doctor's time.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Occupies reports whether an appointment in this status still blocks the
// doctor's calendar.
func (s Status) Occupies() bool {
	return s != StatusCancelled && s != StatusNoShow
}

func (s Status) valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// transitions maps each status to the states it may move to. Completed,
// cancelled and no-show are terminal.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment maps to the appointment table. StartTime is an absolute
// instant; the occupied interval is [StartTime, StartTime+DurationMin).
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	StartTime   time.Time `db:"start_time" json:"fecha_hora_inicio"`
	DurationMin int       `db:"duration_min" json:"duracion"`
	Status      Status    `db:"status" json:"status"`
	Reason      string    `db:"reason" json:"motivo,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EndTime returns the exclusive end of the occupied interval.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMin) * time.Minute)
}

// Validate checks structural invariants on a booking request.
func (a *Appointment) Validate() error {
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.StartTime.IsZero() {
		return fmt.Errorf("fecha_hora_inicio is required")
	}
	if a.DurationMin <= 0 {
		return fmt.Errorf("duracion must be positive")
	}
	return nil
}
