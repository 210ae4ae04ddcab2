package schedule

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	readGroup.GET("/doctors/:id/working-hours", h.GetWorkingHours)
	readGroup.GET("/doctors/:id/schedule-exceptions", h.ListExceptions)

	writeGroup := api.Group("", auth.RequireRole("admin", "receptionist"))
	writeGroup.PUT("/doctors/:id/working-hours", h.SetWorkingHours)
	writeGroup.POST("/doctors/:id/schedule-exceptions", h.CreateException)
	writeGroup.DELETE("/doctors/:id/schedule-exceptions/:exceptionId", h.DeleteException)
}

// workingHoursEntry is the wire form of one weekly range.
type workingHoursEntry struct {
	DiaSemana  int    `json:"dia_semana"`
	HoraInicio string `json:"hora_inicio"`
	HoraFin    string `json:"hora_fin"`
}

type workingHoursRequest struct {
	Horarios []workingHoursEntry `json:"horarios"`
}

// exceptionRequest mirrors the dashboard's exception form.
type exceptionRequest struct {
	Fecha      string `json:"fecha"`
	Motivo     string `json:"motivo"`
	TodoElDia  bool   `json:"todo_el_dia"`
	HoraInicio string `json:"hora_inicio,omitempty"`
	HoraFin    string `json:"hora_fin,omitempty"`
}

type exceptionResponse struct {
	ID         uuid.UUID `json:"id"`
	Fecha      string    `json:"fecha"`
	Motivo     string    `json:"motivo"`
	TodoElDia  bool      `json:"todo_el_dia"`
	HoraInicio string    `json:"hora_inicio,omitempty"`
	HoraFin    string    `json:"hora_fin,omitempty"`
}

func toExceptionResponse(e *ScheduleException) exceptionResponse {
	resp := exceptionResponse{
		ID:        e.ID,
		Fecha:     FormatDate(e.Date),
		Motivo:    e.Reason,
		TodoElDia: e.AllDay,
	}
	if e.StartMin != nil {
		resp.HoraInicio = FormatClock(*e.StartMin)
	}
	if e.EndMin != nil {
		resp.HoraFin = FormatClock(*e.EndMin)
	}
	return resp
}

func (h *Handler) GetWorkingHours(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	hours, err := h.svc.GetWorkingHours(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]workingHoursEntry, 0, len(hours))
	for _, w := range hours {
		entries = append(entries, workingHoursEntry{
			DiaSemana:  w.Weekday,
			HoraInicio: FormatClock(w.StartMin),
			HoraFin:    FormatClock(w.EndMin),
		})
	}
	return c.JSON(http.StatusOK, workingHoursRequest{Horarios: entries})
}

func (h *Handler) SetWorkingHours(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	var req workingHoursRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entries := make([]*WorkingHours, 0, len(req.Horarios))
	for _, in := range req.Horarios {
		start, err := ParseClock(in.HoraInicio)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		end, err := ParseClock(in.HoraFin)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		entries = append(entries, &WorkingHours{
			DoctorID: doctorID,
			Weekday:  in.DiaSemana,
			StartMin: start,
			EndMin:   end,
		})
	}

	if err := h.svc.SetWorkingHours(c.Request().Context(), doctorID, entries); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateException(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	var req exceptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	e := &ScheduleException{
		DoctorID: doctorID,
		Reason:   req.Motivo,
		AllDay:   req.TodoElDia,
	}
	if req.Fecha != "" {
		date, err := ParseDate(req.Fecha, h.loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		e.Date = date
	}
	if !req.TodoElDia {
		if req.HoraInicio != "" {
			start, err := ParseClock(req.HoraInicio)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			e.StartMin = &start
		}
		if req.HoraFin != "" {
			end, err := ParseClock(req.HoraFin)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			e.EndMin = &end
		}
	}

	if err := h.svc.CreateException(c.Request().Context(), e); err != nil {
		if errors.Is(err, ErrDuplicateException) {
			return echo.NewHTTPError(http.StatusConflict, map[string]string{
				"codigo":  "duplicate_exception",
				"mensaje": err.Error(),
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toExceptionResponse(e))
}

func (h *Handler) ListExceptions(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}

	from, err := ParseDate(c.QueryParam("from"), h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
	}
	to, err := ParseDate(c.QueryParam("to"), h.loc)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
	}

	items, err := h.svc.ListExceptions(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]exceptionResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toExceptionResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteException(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	exceptionID, err := uuid.Parse(c.Param("exceptionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid exception id")
	}

	if err := h.svc.DeleteException(c.Request().Context(), doctorID, exceptionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
