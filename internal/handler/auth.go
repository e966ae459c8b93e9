package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/auth"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/service"
)

// AuthHandler serves signup, login, token validation, the password strength
// helper and the GitHub OAuth flow.
type AuthHandler struct {
	svc    *service.AuthService
	github *auth.GitHubProvider // nil when OAuth is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the OAuth routes
// are only registered when it isn't.
func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		github: github,
		logger: logger,
	}
}

// HandleSignup registers a new account.
//
// HTTP: POST /api/signup
// Body: {"email","password","name","role"}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

// HandleLogin authenticates and returns a bearer token plus the compact
// user block.
//
// HTTP: POST /api/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user":  result.User.Auth(),
	})
}

// HandleValidate introspects the caller's bearer token: signature, expiry
// and whether the subject still exists.
//
// HTTP: GET /api/validate
//
// This route does its own header parsing instead of sitting behind
// RequireAuth so that it can report expiry/malformed kinds explicitly.
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeError(w, apperror.Unauthorized("Authorization header is required"))
		return
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	user, claims, err := h.svc.ResolveToken(r.Context(), tokenStr)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"user":      user.Auth(),
		"expiresAt": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

// HandleCheckPassword scores a candidate password without storing anything.
//
// HTTP: POST /api/check-password
func (h *AuthHandler) HandleCheckPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &input); err != nil || input.Password == "" {
		writeError(w, apperror.ValidationFailed("password", "password is required"))
		return
	}

	writeJSON(w, http.StatusOK, auth.CheckPasswordStrength(input.Password))
}

// HandleGitHubLogin starts the GitHub OAuth flow.
//
// HTTP: GET /auth/github/login?role=mentor|mentee
//
// The random state value guards against CSRF: it goes into a short-lived
// cookie and must come back unchanged on the callback. The requested role
// rides along in a second cookie and only applies to first-time signups.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	role := r.URL.Query().Get("role")
	if role == string(model.RoleMentor) || role == string(model.RoleMentee) {
		http.SetCookie(w, &http.Cookie{
			Name:     "oauth_role",
			Value:    role,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: state check, code exchange,
// login-or-register, then a redirect carrying the token in the URL fragment
// for the SPA to pick up.
//
// HTTP: GET /auth/github/callback?code=...&state=...
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	role := model.RoleMentee
	if roleCookie, err := r.Cookie("oauth_role"); err == nil {
		role = model.Role(roleCookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_role", Value: "", Path: "/", MaxAge: -1})

	result, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser, role)
	if err != nil {
		writeError(w, err)
		return
	}

	// The SPA reads the fragment and stores the token; fragments never
	// reach server logs.
	http.Redirect(w, r, "/#token="+result.Token, http.StatusSeeOther)
}
