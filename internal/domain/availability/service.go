package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agenda/agenda/internal/domain/doctor"
	"github.com/agenda/agenda/internal/platform/cache"
)

// MaxDayRange caps the available-days query window.
const MaxDayRange = 62

// DoctorDirectory resolves the doctor whose availability is being queried.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// DayAvailability summarizes one date for calendar rendering.
type DayAvailability struct {
	Date            string `json:"fecha"`
	HasAvailability bool   `json:"tieneDisponibilidad"`
	AvailableBlocks int    `json:"bloquesDisponibles"`
}

// Service orchestrates the resolver with the doctor directory and the read
// cache. A nil cache store disables caching.
type Service struct {
	resolver *Resolver
	doctors  DoctorDirectory
	store    cache.Store
	ttl      time.Duration
	loc      *time.Location
}

func NewService(resolver *Resolver, doctors DoctorDirectory, store cache.Store, ttl time.Duration, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{resolver: resolver, doctors: doctors, store: store, ttl: ttl, loc: loc}
}

// SlotsForDate resolves the bookable slots for one doctor on one date.
// granularityMin <= 0 means use the doctor's default. An inactive doctor has
// no availability.
func (s *Service) SlotsForDate(ctx context.Context, doctorID uuid.UUID, date time.Time, granularityMin int) (*doctor.Doctor, []Slot, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, nil, err
	}
	if !d.Active {
		return d, nil, nil
	}

	if granularityMin <= 0 {
		granularityMin = d.SlotGranularity(DefaultGranularityMin)
	}

	key := cacheKey(doctorID, date, granularityMin)
	if cached, ok := s.cacheGet(ctx, key); ok {
		return d, cached, nil
	}

	slots, err := s.resolver.ResolveSlots(ctx, doctorID, date, granularityMin)
	if err != nil {
		return nil, nil, err
	}
	s.cacheSet(ctx, key, slots)
	return d, slots, nil
}

// DaysAvailability resolves per-date availability over [from, to]. The range
// is capped at MaxDayRange days.
func (s *Service) DaysAvailability(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]DayAvailability, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("to must not be before from")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxDayRange {
		return nil, fmt.Errorf("date range too large: %d days, maximum %d", days, MaxDayRange)
	}

	out := make([]DayAvailability, 0, days)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		_, slots, err := s.SlotsForDate(ctx, doctorID, date, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, DayAvailability{
			Date:            date.Format("2006-01-02"),
			HasAvailability: len(slots) > 0,
			AvailableBlocks: len(slots),
		})
	}
	return out, nil
}

// ValidateBooking re-checks a requested interval against the live schedule.
func (s *Service) ValidateBooking(ctx context.Context, doctorID uuid.UUID, start time.Time, durationMin int) (BookingCheck, error) {
	return s.resolver.ValidateBooking(ctx, doctorID, start, durationMin)
}

// InvalidateDoctor drops every cached availability entry for the doctor. It
// is called by the schedule and appointment services after writes.
func (s *Service) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if s.store == nil {
		return nil
	}
	return s.store.DeleteByPrefix(ctx, keyPrefix(doctorID))
}

func keyPrefix(doctorID uuid.UUID) string {
	return "avail:" + doctorID.String() + ":"
}

func cacheKey(doctorID uuid.UUID, date time.Time, granularityMin int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix(doctorID), date.Format("2006-01-02"), granularityMin)
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]Slot, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("availability cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var slots []Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("availability cache entry corrupt")
		return nil, false
	}
	return slots, true
}

func (s *Service) cacheSet(ctx context.Context, key string, slots []Slot) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("availability cache write failed")
	}
}
