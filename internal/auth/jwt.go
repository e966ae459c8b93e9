// Package auth provides JWT issuing/verification, password hashing, the
// GitHub OAuth provider, and the authentication/authorization middleware.
//
// The token scheme is stateless HS256: everything a request needs (subject,
// role, expiry) is inside the signed token, and the signature ensures nobody
// can tamper with it without the server secret. The one stateful step,
// confirming the subject still exists, lives in the middleware, not here.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/mentor-match/internal/model"
)

const (
	issuer   = "mentor-mentee-api"
	audience = "mentor-mentee-app"

	// TokenTTL is the fixed lifetime of an access token.
	TokenTTL = time.Hour
)

// Verification failures collapse into exactly two kinds at this layer.
// "Valid signature but no such subject" is the middleware's concern.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
)

// Claims is the JWT payload: the RFC 7519 registered claims plus redundant
// display claims (name, email, role) so a client can show who is logged in
// without a round trip. The display claims are never trusted for
// authorization; the middleware re-resolves the subject against the store.
type Claims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UserID returns the subject as the numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("auth: non-numeric subject %q: %w", c.Subject, err)
	}
	return id, nil
}

// TokenService mints and verifies signed identity assertions.
// It is stateless: only the secret and the wall clock go into a token.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue signs a new access token for the user with the fixed TTL.
func (s *TokenService) Issue(user *model.User) (string, error) {
	return s.IssueWithTTL(user, TokenTTL)
}

// IssueWithTTL signs a token with a custom lifetime. Production code uses
// Issue; tests use this to mint already-expired tokens.
//
// The jti claim is a fresh xid per token, so two tokens for the same user in
// the same second are still distinct strings.
func (s *TokenService) IssueWithTTL(user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        xid.New().String(),
		},
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token string, returning its claims.
//
// Failure kinds: ErrTokenExpired when the clock has passed exp, otherwise
// ErrTokenMalformed for anything structurally or cryptographically wrong
// (bad signature, wrong issuer, wrong algorithm, garbage input).
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			// Pinning the key function to HMAC blocks algorithm
			// confusion attacks ("alg":"none" and friends).
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	return claims, nil
}
