package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mentor-match/internal/auth"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository/sqlite"
	"github.com/sakif/mentor-match/internal/service"
)

// newMatchEnv builds a MatchHandler on an in-memory database with one
// mentor and one mentee seeded. Identity is injected directly; the
// middleware has its own tests.
func newMatchEnv(t *testing.T) (*MatchHandler, *model.User, *model.User) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	mentor := &model.User{Email: "mentor@example.com", PasswordHash: "h", Name: "Mentor", Role: model.RoleMentor}
	mentee := &model.User{Email: "mentee@example.com", PasswordHash: "h", Name: "Mentee", Role: model.RoleMentee}
	require.NoError(t, db.Users.Create(ctx, mentor))
	require.NoError(t, db.Users.Create(ctx, mentee))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewMatchService(db.Matches, db.Users, logger)
	return NewMatchHandler(svc, logger), mentor, mentee
}

func identityFor(u *model.User) auth.Identity {
	return auth.Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// authedRequest builds a request carrying the user's identity, as if it had
// passed RequireAuth.
func authedRequest(u *model.User, method, path string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	return req.WithContext(auth.WithIdentity(req.Context(), identityFor(u)))
}

func TestHandleCreate(t *testing.T) {
	h, mentor, mentee := newMatchEnv(t)

	req := authedRequest(mentee, http.MethodPost, "/api/match-requests", map[string]any{
		"mentorId": mentor.ID, "message": "hello",
	})
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var match model.MatchRequest
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&match))
	assert.Equal(t, model.StatusPending, match.Status)
	assert.Equal(t, mentee.ID, match.MenteeID)
}

func TestHandleCreate_BadJSON(t *testing.T) {
	h, _, mentee := newMatchEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/match-requests", bytes.NewReader([]byte("{not json")))
	req = req.WithContext(auth.WithIdentity(req.Context(), identityFor(mentee)))
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "validation_failed", body.Error)
}

// A menteeId in the payload must match the authenticated caller.
func TestHandleCreate_MenteeIDMismatch(t *testing.T) {
	h, mentor, mentee := newMatchEnv(t)

	req := authedRequest(mentee, http.MethodPost, "/api/match-requests", map[string]any{
		"mentorId": mentor.ID, "menteeId": mentee.ID + 100, "message": "hello",
	})
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "menteeId must match authenticated user")
}

func TestHandleCreate_NoIdentity(t *testing.T) {
	h, _, _ := newMatchEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/match-requests", nil)
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleAccept(t *testing.T) {
	h, mentor, mentee := newMatchEnv(t)

	req := authedRequest(mentee, http.MethodPost, "/api/match-requests", map[string]any{
		"mentorId": mentor.ID, "message": "hello",
	})
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)
	var match model.MatchRequest
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&match))

	req = authedRequest(mentor, http.MethodPut, "/api/match-requests/1/accept", nil)
	req.SetPathValue("id", "1")
	rr = httptest.NewRecorder()
	h.HandleAccept(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated model.MatchRequest
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, model.StatusAccepted, updated.Status)
}

// A non-numeric id names no request, so it gets the same 404 as a missing
// one rather than a parse error.
func TestTransition_NonNumericID(t *testing.T) {
	h, mentor, _ := newMatchEnv(t)

	req := authedRequest(mentor, http.MethodPut, "/api/match-requests/abc/accept", nil)
	req.SetPathValue("id", "abc")
	rr := httptest.NewRecorder()
	h.HandleAccept(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "not_found", body.Error)
}

func TestHandleIncoming_EmptyList(t *testing.T) {
	h, mentor, _ := newMatchEnv(t)

	req := authedRequest(mentor, http.MethodGet, "/api/match-requests/incoming", nil)
	rr := httptest.NewRecorder()
	h.HandleIncoming(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	// An empty listing is [], never null.
	assert.JSONEq(t, "[]", rr.Body.String())
}
