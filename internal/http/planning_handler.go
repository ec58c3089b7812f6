package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/export"
)

type planningService interface {
	ComputeSchedule(ctx context.Context, start, end calendar.Date) (application.ScheduleView, error)
	WeekSchedule(ctx context.Context, reference calendar.Date, offset int) (application.ScheduleView, error)
	ThreeWeekSchedule(ctx context.Context, reference calendar.Date) (application.ScheduleView, error)
	ExportSchedule(ctx context.Context, start, end calendar.Date) ([]byte, error)
}

// PlanningHandler serves computed schedule views.
type PlanningHandler struct {
	service   planningService
	responder responder
	logger    *slog.Logger
}

// NewPlanningHandler constructs a PlanningHandler.
func NewPlanningHandler(service planningService, logger *slog.Logger) *PlanningHandler {
	base := defaultLogger(logger)
	return &PlanningHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PlanningHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "PlanningHandler", operation, attrs...)
}

// Range handles GET /api/planning?start=&end=.
func (h *PlanningHandler) Range(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.requireRange(w, r)
	if !ok {
		return
	}
	view, err := h.service.ComputeSchedule(r.Context(), start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(view))
}

// Week handles GET /api/planning/week?date=&offset=.
func (h *PlanningHandler) Week(w http.ResponseWriter, r *http.Request) {
	vErr := &application.ValidationError{}
	reference := queryDate(r, "date", vErr)
	offset := 0
	if value := strings.TrimSpace(r.URL.Query().Get("offset")); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			addFieldError(vErr, "offset", "must be an integer")
		}
		offset = n
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	view, err := h.service.WeekSchedule(r.Context(), reference, offset)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(view))
}

// ThreeWeeks handles GET /api/planning/three-weeks?date=.
func (h *PlanningHandler) ThreeWeeks(w http.ResponseWriter, r *http.Request) {
	vErr := &application.ValidationError{}
	reference := queryDate(r, "date", vErr)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	view, err := h.service.ThreeWeekSchedule(r.Context(), reference)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleDTO(view))
}

// Export handles GET /api/planning/export?start=&end= and streams an xlsx workbook.
func (h *PlanningHandler) Export(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.requireRange(w, r)
	if !ok {
		return
	}

	data, err := h.service.ExportSchedule(r.Context(), start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	filename := fmt.Sprintf("planning_%s_%s.xlsx", start, end)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log(r.Context(), "Export").ErrorContext(r.Context(), "failed to write workbook", "error", err)
	}
}

func (h *PlanningHandler) requireRange(w http.ResponseWriter, r *http.Request) (calendar.Date, calendar.Date, bool) {
	vErr := &application.ValidationError{}
	start := queryDate(r, "start", vErr)
	end := queryDate(r, "end", vErr)
	if start.IsZero() && vErr.FieldErrors["start"] == "" {
		addFieldError(vErr, "start", "is required")
	}
	if end.IsZero() && vErr.FieldErrors["end"] == "" {
		addFieldError(vErr, "end", "is required")
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return calendar.Date{}, calendar.Date{}, false
	}
	return start, end, true
}
