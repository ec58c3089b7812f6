package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
)

type assignmentService interface {
	ListRecurring(ctx context.Context) ([]application.RecurringAssignment, error)
	CreateRecurring(ctx context.Context, params application.CreateRecurringParams) (application.RecurringAssignment, error)
	DeleteRecurring(ctx context.Context, id string) error
	SetRecurringRoster(ctx context.Context, params application.SetRosterParams) (application.RosterResult, error)
	ListSpecific(ctx context.Context, start, end calendar.Date) ([]application.SpecificAssignment, error)
	CreateSpecific(ctx context.Context, params application.CreateSpecificParams) (application.SpecificAssignment, error)
	DeleteSpecific(ctx context.Context, id string) error
	GenerateSpecific(ctx context.Context, start, end calendar.Date) (application.GenerateResult, error)
}

// AssignmentHandler serves the weekly roster and the dated assignments.
type AssignmentHandler struct {
	service   assignmentService
	responder responder
	logger    *slog.Logger
}

// NewAssignmentHandler constructs an AssignmentHandler.
func NewAssignmentHandler(service assignmentService, logger *slog.Logger) *AssignmentHandler {
	base := defaultLogger(logger)
	return &AssignmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AssignmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AssignmentHandler", operation, attrs...)
}

type createRecurringRequest struct {
	Weekday  *int   `json:"weekday" validate:"required,min=0,max=6"`
	Slot     string `json:"slot" validate:"required,slot"`
	MemberID string `json:"member_id" validate:"required"`
}

type setRosterRequest struct {
	MemberIDs []string `json:"member_ids" validate:"dive,required"`
}

type createSpecificRequest struct {
	Date     string `json:"date" validate:"required,isodate"`
	Slot     string `json:"slot" validate:"required,slot"`
	MemberID string `json:"member_id" validate:"required"`
}

type generateRequest struct {
	Start string `json:"start" validate:"required,isodate"`
	End   string `json:"end" validate:"required,isodate"`
}

type recurringResponse struct {
	Assignment recurringDTO `json:"assignment"`
}

type recurringListResponse struct {
	Assignments []recurringDTO `json:"assignments"`
}

type rosterResponse struct {
	Assignments []recurringDTO `json:"assignments"`
	Warnings    []string       `json:"warnings"`
}

type specificResponse struct {
	Assignment specificDTO `json:"assignment"`
}

type specificListResponse struct {
	Assignments []specificDTO `json:"assignments"`
}

type generateResponse struct {
	Start     calendar.Date `json:"start"`
	End       calendar.Date `json:"end"`
	Generated int           `json:"generated"`
}

// ListRecurring handles GET /api/assignments/recurring.
func (h *AssignmentHandler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRecurring(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, recurringListResponse{Assignments: toRecurringDTOs(list)})
}

// CreateRecurring handles POST /api/assignments/recurring.
func (h *AssignmentHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(r.Context(), h.responder, h.log(r.Context(), "CreateRecurring"), w, err)
		return
	}

	slot, _ := calendar.ParseSlot(req.Slot)
	created, err := h.service.CreateRecurring(r.Context(), application.CreateRecurringParams{
		Weekday:  *req.Weekday,
		Slot:     slot,
		MemberID: strings.TrimSpace(req.MemberID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, recurringResponse{Assignment: toRecurringDTOs([]application.RecurringAssignment{created})[0]})
}

// DeleteRecurring handles DELETE /api/assignments/recurring/{id}.
func (h *AssignmentHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRecurring(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// SetRoster handles PUT /api/assignments/recurring/{weekday}/{slot}.
func (h *AssignmentHandler) SetRoster(w http.ResponseWriter, r *http.Request) {
	vErr := &application.ValidationError{}
	weekday, err := strconv.Atoi(chi.URLParam(r, "weekday"))
	if err != nil || weekday < 0 || weekday > 6 {
		addFieldError(vErr, "weekday", "must be between 0 (Monday) and 6 (Sunday)")
	}
	slot, err := calendar.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		addFieldError(vErr, "slot", "must be opening or closing")
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	var req setRosterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(r.Context(), h.responder, h.log(r.Context(), "SetRoster"), w, err)
		return
	}

	result, err := h.service.SetRecurringRoster(r.Context(), application.SetRosterParams{
		Weekday:   weekday,
		Slot:      slot,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rosterResponse{
		Assignments: toRecurringDTOs(result.Assignments),
		Warnings:    warnings,
	})
}

// ListSpecific handles GET /api/assignments/specific?start=&end=.
func (h *AssignmentHandler) ListSpecific(w http.ResponseWriter, r *http.Request) {
	vErr := &application.ValidationError{}
	start := queryDate(r, "start", vErr)
	end := queryDate(r, "end", vErr)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	list, err := h.service.ListSpecific(r.Context(), start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, specificListResponse{Assignments: toSpecificDTOs(list)})
}

// CreateSpecific handles POST /api/assignments/specific.
func (h *AssignmentHandler) CreateSpecific(w http.ResponseWriter, r *http.Request) {
	var req createSpecificRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(r.Context(), h.responder, h.log(r.Context(), "CreateSpecific"), w, err)
		return
	}

	date, _ := calendar.ParseDate(req.Date)
	slot, _ := calendar.ParseSlot(req.Slot)
	created, err := h.service.CreateSpecific(r.Context(), application.CreateSpecificParams{
		Date:     date,
		Slot:     slot,
		MemberID: strings.TrimSpace(req.MemberID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, specificResponse{Assignment: toSpecificDTO(created)})
}

// DeleteSpecific handles DELETE /api/assignments/specific/{id}.
func (h *AssignmentHandler) DeleteSpecific(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSpecific(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Generate handles POST /api/assignments/specific/generate.
func (h *AssignmentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(r.Context(), h.responder, h.log(r.Context(), "Generate"), w, err)
		return
	}

	start, _ := calendar.ParseDate(req.Start)
	end, _ := calendar.ParseDate(req.End)
	result, err := h.service.GenerateSpecific(r.Context(), start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Generate", "generated_count", result.Generated).InfoContext(r.Context(), "assignments generated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, generateResponse{Start: result.From, End: result.To, Generated: result.Generated})
}
