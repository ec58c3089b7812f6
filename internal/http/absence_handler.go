package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
)

type absenceService interface {
	CreateAbsence(ctx context.Context, params application.CreateAbsenceParams) (application.CreateAbsenceResult, error)
	RemoveAbsence(ctx context.Context, id string) error
	ListAbsences(ctx context.Context, memberID string) ([]application.Absence, error)
	ListAbsencesInRange(ctx context.Context, start, end calendar.Date) ([]application.Absence, error)
	IsAbsent(ctx context.Context, memberID string, date calendar.Date, slot calendar.Slot) (bool, error)
	Consolidate(ctx context.Context, memberID string) (application.ConsolidationResult, error)
	ConsolidateAll(ctx context.Context) ([]application.ConsolidationResult, error)
	AbsentMembersForDate(ctx context.Context, date calendar.Date) ([]application.AbsentMember, error)
}

type todayProvider interface {
	Today() calendar.Date
}

// AbsenceHandler serves absence registration and availability queries.
type AbsenceHandler struct {
	service   absenceService
	clock     todayProvider
	responder responder
	logger    *slog.Logger
}

// NewAbsenceHandler constructs an AbsenceHandler. clock supplies the default
// date of the "today" panel.
func NewAbsenceHandler(service absenceService, clock todayProvider, logger *slog.Logger) *AbsenceHandler {
	base := defaultLogger(logger)
	return &AbsenceHandler{service: service, clock: clock, responder: newResponder(base), logger: base}
}

func (h *AbsenceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AbsenceHandler", operation, attrs...)
}

type createAbsenceRequest struct {
	MemberID  string `json:"member_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,isodate"`
	EndDate   string `json:"end_date" validate:"required,isodate"`
	StartSlot string `json:"start_slot" validate:"omitempty,slot"`
	EndSlot   string `json:"end_slot" validate:"omitempty,slot"`
}

func (req createAbsenceRequest) toParams() application.CreateAbsenceParams {
	start, _ := calendar.ParseDate(req.StartDate)
	end, _ := calendar.ParseDate(req.EndDate)
	startSlot, _ := calendar.ParseSlotOr(req.StartSlot, calendar.Opening)
	endSlot, _ := calendar.ParseSlotOr(req.EndSlot, calendar.Closing)
	return application.CreateAbsenceParams{
		MemberID:  strings.TrimSpace(req.MemberID),
		StartDate: start,
		EndDate:   end,
		StartSlot: startSlot,
		EndSlot:   endSlot,
	}
}

type absenceResponse struct {
	Absence absenceDTO   `json:"absence"`
	Merged  []absenceDTO `json:"merged"`
}

type absenceListResponse struct {
	Absences []absenceDTO `json:"absences"`
}

type absentResponse struct {
	MemberID string        `json:"member_id"`
	Date     calendar.Date `json:"date"`
	Slot     string        `json:"slot,omitempty"`
	Absent   bool          `json:"absent"`
}

type todayResponse struct {
	Date   calendar.Date    `json:"date"`
	Absent []absentTodayDTO `json:"absent"`
}

type consolidationListResponse struct {
	Results []consolidationDTO `json:"results"`
}

// Create handles POST /api/absences.
func (h *AbsenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAbsenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(r.Context(), h.responder, h.log(r.Context(), "Create"), w, err)
		return
	}

	params := req.toParams()
	logger := h.log(r.Context(), "Create", "member_id", params.MemberID)

	result, err := h.service.CreateAbsence(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("absence_id", result.Absence.ID, "merged_count", len(result.Merged)).InfoContext(r.Context(), "absence recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, absenceResponse{
		Absence: toAbsenceDTO(result.Absence),
		Merged:  toAbsenceDTOs(result.Merged),
	})
}

// Delete handles DELETE /api/absences/{id}.
func (h *AbsenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.RemoveAbsence(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List handles GET /api/absences. With start and end it lists the absences
// intersecting the range, otherwise those of member_id or of everybody.
func (h *AbsenceHandler) List(w http.ResponseWriter, r *http.Request) {
	vErr := &application.ValidationError{}
	start := queryDate(r, "start", vErr)
	end := queryDate(r, "end", vErr)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	var (
		list []application.Absence
		err  error
	)
	if !start.IsZero() || !end.IsZero() {
		list, err = h.service.ListAbsencesInRange(r.Context(), start, end)
	} else {
		list, err = h.service.ListAbsences(r.Context(), strings.TrimSpace(r.URL.Query().Get("member_id")))
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, absenceListResponse{Absences: toAbsenceDTOs(list)})
}

// ListForMember handles GET /api/members/{id}/absences.
func (h *AbsenceHandler) ListForMember(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAbsences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, absenceListResponse{Absences: toAbsenceDTOs(list)})
}

// IsAbsent handles GET /api/members/{id}/absent?date=&slot=.
func (h *AbsenceHandler) IsAbsent(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "id")

	vErr := &application.ValidationError{}
	date := queryDate(r, "date", vErr)
	if date.IsZero() && !vErr.HasErrors() {
		addFieldError(vErr, "date", "is required")
	}
	slot, err := calendar.ParseSlotOr(r.URL.Query().Get("slot"), calendar.SlotUnspecified)
	if err != nil {
		addFieldError(vErr, "slot", "must be opening or closing")
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	absent, err := h.service.IsAbsent(r.Context(), memberID, date, slot)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := absentResponse{MemberID: memberID, Date: date, Absent: absent}
	if slot.Valid() {
		resp.Slot = slot.String()
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Today handles GET /api/absences/today?date=. Without date it uses the
// current day of the association's time zone.
func (h *AbsenceHandler) Today(w http.ResponseWriter, r *http.Request) {
	vErr := &application.ValidationError{}
	date := queryDate(r, "date", vErr)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	if date.IsZero() && h.clock != nil {
		date = h.clock.Today()
	}

	absent, err := h.service.AbsentMembersForDate(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := todayResponse{Date: date, Absent: make([]absentTodayDTO, len(absent))}
	for i, a := range absent {
		resp.Absent[i] = absentTodayDTO{
			MemberID:    a.Member.ID,
			DisplayName: a.Member.DisplayName,
			Coverage:    a.Coverage.String(),
			Absence:     toAbsenceDTO(a.Absence),
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// ConsolidateMember handles POST /api/members/{id}/absences/consolidate.
func (h *AbsenceHandler) ConsolidateMember(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Consolidate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConsolidationDTO(result))
}

// ConsolidateAll handles POST /api/maintenance/consolidate. Partial failures
// are logged and the successful results returned.
func (h *AbsenceHandler) ConsolidateAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ConsolidateAll(r.Context())
	if err != nil && len(results) == 0 {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err != nil {
		h.log(r.Context(), "ConsolidateAll").WarnContext(r.Context(), "consolidation partially failed", "error", err)
	}

	resp := consolidationListResponse{Results: make([]consolidationDTO, len(results))}
	for i, res := range results {
		resp.Results[i] = toConsolidationDTO(res)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}
