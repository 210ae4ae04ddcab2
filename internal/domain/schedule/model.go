package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkingHours is one recurring weekly range for a doctor. Times are minutes
// from midnight in the clinic timezone; weekday follows time.Weekday
// (Sunday = 0). A doctor may have several non-overlapping ranges per weekday.
type WorkingHours struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Weekday   int       `db:"weekday" json:"weekday"`
	StartMin  int       `db:"start_min" json:"start_min"`
	EndMin    int       `db:"end_min" json:"end_min"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks a single range in isolation.
func (w *WorkingHours) Validate() error {
	if w.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if w.Weekday < 0 || w.Weekday > 6 {
		return fmt.Errorf("weekday must be between 0 and 6")
	}
	if w.StartMin < 0 || w.EndMin > 24*60 {
		return fmt.Errorf("times must fall within the day")
	}
	if w.StartMin >= w.EndMin {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}

// ScheduleException is a one-off override for a single date: either the whole
// day is blocked, or the range [StartMin, EndMin) is. Exceptions never recur
// and at most one exists per (doctor, date).
type ScheduleException struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      time.Time `db:"date" json:"date"`
	Reason    string    `db:"reason" json:"reason"`
	AllDay    bool      `db:"all_day" json:"all_day"`
	StartMin  *int      `db:"start_min" json:"start_min,omitempty"`
	EndMin    *int      `db:"end_min" json:"end_min,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks structural invariants; the past-date rule lives in the
// service because it depends on the clinic clock.
func (e *ScheduleException) Validate() error {
	if e.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("fecha is required")
	}
	if e.Reason == "" {
		return fmt.Errorf("motivo is required")
	}
	if !e.AllDay {
		if e.StartMin == nil || e.EndMin == nil {
			return fmt.Errorf("hora_inicio and hora_fin are required for partial exceptions")
		}
		if *e.StartMin < 0 || *e.EndMin > 24*60 {
			return fmt.Errorf("times must fall within the day")
		}
		if *e.StartMin >= *e.EndMin {
			return fmt.Errorf("hora_inicio must be before hora_fin")
		}
	}
	return nil
}

// ParseClock converts "HH:MM" to minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes from midnight to "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// ParseDate converts "YYYY-MM-DD" to a date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
