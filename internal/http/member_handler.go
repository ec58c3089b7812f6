package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/association-planning/internal/application"
)

type memberService interface {
	CreateMember(ctx context.Context, fullName string) (application.Member, error)
	GetMember(ctx context.Context, id string) (application.Member, error)
	ListMembers(ctx context.Context) ([]application.Member, error)
	DeleteMember(ctx context.Context, id string) error
}

// MemberHandler serves the member directory.
type MemberHandler struct {
	service   memberService
	responder responder
	logger    *slog.Logger
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(service memberService, logger *slog.Logger) *MemberHandler {
	base := defaultLogger(logger)
	return &MemberHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MemberHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "MemberHandler", operation, attrs...)
}

type createMemberRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
}

type memberResponse struct {
	Member memberDTO `json:"member"`
}

type memberListResponse struct {
	Members []memberDTO `json:"members"`
}

// List handles GET /api/members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := memberListResponse{Members: make([]memberDTO, len(members))}
	for i, m := range members {
		resp.Members[i] = toMemberDTO(m)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Create handles POST /api/members.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, r, "Create", err)
		return
	}

	logger := h.log(r.Context(), "Create")

	member, err := h.service.CreateMember(r.Context(), strings.TrimSpace(req.FullName))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("member_id", member.ID).InfoContext(r.Context(), "member created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, memberResponse{Member: toMemberDTO(member)})
}

// Get handles GET /api/members/{id}.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, memberResponse{Member: toMemberDTO(member)})
}

// Delete handles DELETE /api/members/{id}.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteMember(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.log(r.Context(), "Delete", "member_id", id).InfoContext(r.Context(), "member deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MemberHandler) writeDecodeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	writeDecodeError(r.Context(), h.responder, h.log(r.Context(), operation), w, err)
}

// writeDecodeError answers 400 for unreadable bodies and 422 for rule violations.
func writeDecodeError(ctx context.Context, resp responder, logger *slog.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequestBody) {
		logger.WarnContext(ctx, "failed to decode request", "error", err, "error_kind", "bad_request")
		resp.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	resp.handleServiceError(ctx, w, err)
}
