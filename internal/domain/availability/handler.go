package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/agenda/agenda/internal/domain/doctor"
	"github.com/agenda/agenda/internal/domain/schedule"
	"github.com/agenda/agenda/internal/platform/auth"
)

type Handler struct {
	svc *Service
	loc *time.Location
}

func NewHandler(svc *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "receptionist", "doctor"))
	readGroup.GET("/doctors/:id/availability", h.GetAvailability)
	readGroup.GET("/doctors/:id/available-days", h.GetAvailableDays)
}

// slotResponse is the wire form consumed by the booking flow. Clients copy
// fecha_hora_inicio and duracion verbatim into the appointment request.
type slotResponse struct {
	BlockID         uuid.UUID `json:"bloque_id"`
	Hora            string    `json:"hora"`
	Duracion        int       `json:"duracion"`
	FechaHoraInicio time.Time `json:"fecha_hora_inicio"`
	FechaHoraFin    time.Time `json:"fecha_hora_fin"`
}

type availabilityResponse struct {
	Fecha          string         `json:"fecha"`
	Disponible     bool           `json:"disponible"`
	AvailableSlots []slotResponse `json:"availableSlots"`
	DoctorInfo     doctor.Info    `json:"doctorInfo"`
}

func (h *Handler) GetAvailability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	date, err := schedule.ParseDate(c.QueryParam("date"), h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}

	granularity := 0
	if raw := c.QueryParam("duracion"); raw != "" {
		granularity, err = strconv.Atoi(raw)
		if err != nil || granularity <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "duracion must be a positive integer")
		}
	}

	d, slots, err := h.svc.SlotsForDate(c.Request().Context(), doctorID, date, granularity)
	if errors.Is(err, doctor.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{
			BlockID:         s.BlockID,
			Hora:            s.Start.In(h.loc).Format("15:04"),
			Duracion:        s.DurationMin(),
			FechaHoraInicio: s.Start,
			FechaHoraFin:    s.End,
		})
	}
	return c.JSON(http.StatusOK, availabilityResponse{
		Fecha:          schedule.FormatDate(date),
		Disponible:     len(out) > 0,
		AvailableSlots: out,
		DoctorInfo:     d.Info(),
	})
}

func (h *Handler) GetAvailableDays(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	from, err := schedule.ParseDate(c.QueryParam("from"), h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
	}
	to, err := schedule.ParseDate(c.QueryParam("to"), h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
	}

	days, err := h.svc.DaysAvailability(c.Request().Context(), doctorID, from, to)
	if errors.Is(err, doctor.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, days)
}
