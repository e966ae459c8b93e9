package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

// Identity is the resolved caller published into the request context by
// RequireAuth. It is built from the database row, not from token claims;
// the token only proves which subject to look up.
type Identity struct {
	ID    int64
	Email string
	Name  string
	Role  model.Role
}

// contextKey is unexported so no other package can read or shadow the
// identity value stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, verifies the
// signature and expiry, and then re-confirms the subject still exists in the
// user store. The re-check is mandatory: a deleted account loses access
// immediately, unexpired tokens notwithstanding.
//
// On success the resolved Identity is stored in the request context for the
// lifetime of this request only. On failure the chain stops with a 401
// carrying a kind-specific message.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "Authorization header is required")
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "Authorization header must use the Bearer scheme")
				return
			}

			claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					unauthorized(w, "Token has expired, please login again")
				} else {
					unauthorized(w, "Token is malformed or invalid")
				}
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				unauthorized(w, "Token is malformed or invalid")
				return
			}

			// The subject must still exist. Claims carry name/email/role
			// too, but those are display hints; the store is the
			// authority for authorization decisions.
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				unauthorized(w, "User associated with token no longer exists")
				return
			}

			identity := Identity{
				ID:    user.ID,
				Email: user.Email,
				Name:  user.Name,
				Role:  user.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole rejects callers whose resolved role is not in the allowed set.
// It composes after RequireAuth; a request that never went through
// RequireAuth has no identity and is rejected with 401.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed[role] = true
		names = append(names, string(role))
	}
	required := strings.Join(names, " or ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w, "Authorization header is required")
				return
			}
			if !allowed[identity.Role] {
				writeAuthError(w, http.StatusForbidden,
					"Insufficient permissions",
					"Access denied. Required role: "+required)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a context carrying the resolved caller. Exported for
// handler tests that exercise a handler without the middleware in front.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the caller resolved by RequireAuth.
// The second return is false for requests that never passed the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusUnauthorized, "Authentication required", message)
}

// writeAuthError emits the same {"error","message"} body shape the handlers
// use, without importing the handler package (which imports this one).
func writeAuthError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errType,
		"message": message,
	})
}
