package availability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agenda/agenda/internal/domain/doctor"
	"github.com/agenda/agenda/internal/platform/auth"
)

func newTestServer(t *testing.T, doctorID uuid.UUID) *echo.Echo {
	t.Helper()

	sched, ledger := workedExampleFixture(doctorID)
	resolver := NewResolver(sched, ledger, time.UTC)
	doctors := &mockDoctors{byID: map[uuid.UUID]*doctor.Doctor{
		doctorID: {ID: doctorID, FullName: "Dra. Elena Ruiz", Specialty: "Cardiología", Active: true},
	}}
	svc := NewService(resolver, doctors, nil, time.Minute, time.UTC)

	e := echo.New()
	e.Use(auth.DevAuthMiddleware())
	NewHandler(svc, time.UTC).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func TestGetAvailability(t *testing.T) {
	doctorID := uuid.New()
	e := newTestServer(t, doctorID)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/doctors/"+doctorID.String()+"/availability?date=2026-03-16", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Fecha != "2026-03-16" {
		t.Errorf("expected fecha 2026-03-16, got %s", resp.Fecha)
	}
	if !resp.Disponible {
		t.Error("expected disponible true")
	}
	if len(resp.AvailableSlots) != 11 {
		t.Errorf("expected 11 slots, got %d", len(resp.AvailableSlots))
	}
	if resp.AvailableSlots[0].Hora != "08:00" {
		t.Errorf("expected first slot 08:00, got %s", resp.AvailableSlots[0].Hora)
	}
	if resp.DoctorInfo.FullName != "Dra. Elena Ruiz" {
		t.Errorf("unexpected doctorInfo: %+v", resp.DoctorInfo)
	}
}

func TestGetAvailabilityUnknownDoctor(t *testing.T) {
	e := newTestServer(t, uuid.New())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/doctors/"+uuid.NewString()+"/availability?date=2026-03-16", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetAvailabilityBadDate(t *testing.T) {
	doctorID := uuid.New()
	e := newTestServer(t, doctorID)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/doctors/"+doctorID.String()+"/availability?date=16-03-2026", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetAvailableDays(t *testing.T) {
	doctorID := uuid.New()
	e := newTestServer(t, doctorID)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/doctors/"+doctorID.String()+"/available-days?from=2026-03-16&to=2026-03-17", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var days []DayAvailability
	if err := json.Unmarshal(rec.Body.Bytes(), &days); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if !days[0].HasAvailability || days[0].AvailableBlocks != 11 {
		t.Errorf("monday should have 11 blocks: %+v", days[0])
	}
	if days[1].HasAvailability {
		t.Errorf("tuesday should be empty: %+v", days[1])
	}
}
