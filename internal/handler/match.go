package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/auth"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/service"
)

// MatchHandler serves the match-request workflow. Role gating happens in the
// router (mentee routes vs mentor routes); ownership is enforced below in
// the service and repository by scoping every write to the caller's rows.
type MatchHandler struct {
	svc    *service.MatchService
	logger *slog.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(svc *service.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{svc: svc, logger: logger}
}

// HandleCreate files a new match request from the calling mentee.
//
// HTTP: POST /api/match-requests
// Body: {"mentorId", "message"}; a menteeId field is accepted for client
// compatibility but must match the caller when present.
func (h *MatchHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	var input struct {
		MentorID int64  `json:"mentorId"`
		MenteeID int64  `json:"menteeId,omitempty"`
		Message  string `json:"message"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	if input.MenteeID != 0 && input.MenteeID != identity.ID {
		writeError(w, apperror.ValidationFailed("menteeId", "menteeId must match authenticated user"))
		return
	}

	match, err := h.svc.Create(r.Context(), identity.ID, input.MentorID, input.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, match)
}

// HandleIncoming lists requests addressed to the calling mentor.
//
// HTTP: GET /api/match-requests/incoming
func (h *MatchHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	requests, err := h.svc.Incoming(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// HandleOutgoing lists requests sent by the calling mentee.
//
// HTTP: GET /api/match-requests/outgoing
func (h *MatchHandler) HandleOutgoing(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	requests, err := h.svc.Outgoing(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// HandleAccept accepts a pending request addressed to the calling mentor.
//
// HTTP: PUT /api/match-requests/{id}/accept
func (h *MatchHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Accept)
}

// HandleReject rejects a pending request addressed to the calling mentor.
//
// HTTP: PUT /api/match-requests/{id}/reject
func (h *MatchHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reject)
}

// HandleCancel cancels the calling mentee's own request, whatever its
// current status.
//
// HTTP: DELETE /api/match-requests/{id}
func (h *MatchHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

// transition factors the shared shape of accept/reject/cancel: parse the id,
// run the state change as the caller, return the updated record. A
// non-numeric id gets the same 404 as a missing one.
func (h *MatchHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, matchID, callerID int64) (*model.MatchRequest, error),
) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	matchID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, apperror.NotFound("match request"))
		return
	}

	match, err := op(r.Context(), matchID, identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, match)
}
