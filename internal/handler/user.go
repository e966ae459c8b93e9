package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/auth"
	"github.com/sakif/mentor-match/internal/service"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleMe returns the caller's role-shaped profile.
//
// HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	user, err := h.svc.GetProfile(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// HandleUpdateProfile applies a self-service profile update and returns the
// updated role-shaped profile.
//
// HTTP: PUT /api/users/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	var input service.UpdateProfileInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), identity.ID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}
