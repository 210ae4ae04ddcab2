package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table. DefaultDurationMin drives the slot
// granularity used when a request does not specify one; 0 means unset and
// callers fall back to the clinic default of 30 minutes.
type Doctor struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	FullName           string    `db:"full_name" json:"full_name"`
	Specialty          string    `db:"specialty" json:"specialty"`
	Email              *string   `db:"email" json:"email,omitempty"`
	DefaultDurationMin int       `db:"default_duration_min" json:"default_duration_min"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Info is the doctor summary embedded in availability responses.
type Info struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"nombre"`
	Specialty string    `json:"especialidad"`
}

// Info returns the wire summary for this doctor.
func (d *Doctor) Info() Info {
	return Info{ID: d.ID, FullName: d.FullName, Specialty: d.Specialty}
}

// SlotGranularity returns the doctor's configured appointment duration, or
// fallback when unset.
func (d *Doctor) SlotGranularity(fallback int) int {
	if d.DefaultDurationMin > 0 {
		return d.DefaultDurationMin
	}
	return fallback
}
