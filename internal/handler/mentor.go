package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/mentor-match/internal/service"
)

// MentorHandler serves the mentor directory.
type MentorHandler struct {
	svc    *service.MentorService
	logger *slog.Logger
}

// NewMentorHandler creates a MentorHandler.
func NewMentorHandler(svc *service.MentorService, logger *slog.Logger) *MentorHandler {
	return &MentorHandler{svc: svc, logger: logger}
}

// HandleList returns mentor profiles, optionally filtered and sorted.
//
// HTTP: GET /api/mentors?skill=React&orderBy=name
func (h *MentorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	mentors, err := h.svc.ListMentors(r.Context(),
		r.URL.Query().Get("skill"),
		r.URL.Query().Get("orderBy"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mentors)
}
