// Package service contains the business logic layer: validation, business
// rules and orchestration. Handlers translate HTTP to service calls;
// repositories translate service calls to SQL. Services know about neither.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/auth"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
	MaxNameLength     = 100
)

// invalidCredentials is returned for both unknown-email and wrong-password
// logins. One message for both causes, so responses can't be used to probe
// which emails are registered.
func invalidCredentials() error {
	return apperror.Unauthorized("Email or password is incorrect")
}

// AuthService handles signup, login and token resolution.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService wires an AuthService from its dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// SignupInput is the payload for account creation.
type SignupInput struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// AuthResult bundles the user and the issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup validates the input and creates a new account. The email is
// lowercased before the uniqueness check so "A@b.com" and "a@b.com" are the
// same account. Role is fixed here and never changes afterwards.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	if utf8.RuneCountInString(input.Password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be less than %d characters", MaxPasswordLength))
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be less than %d characters", MaxNameLength))
	}

	if !input.Role.Valid() {
		return nil, apperror.ValidationFailed("role", `role must be either "mentor" or "mentee"`)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login verifies credentials and issues an access token. A successful login
// bumps the account's updated_at as a last-activity marker.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	if err := s.users.Touch(ctx, user.ID); err != nil {
		// Last-login bookkeeping must not fail an otherwise valid login.
		s.logger.Warn("failed to record login time",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// ResolveToken verifies a raw token string and re-confirms its subject
// against the store. Used by the /validate endpoint; the middleware performs
// the same two steps inline.
func (s *AuthService) ResolveToken(ctx context.Context, tokenStr string) (*model.User, *auth.Claims, error) {
	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, apperror.Unauthorized("Token has expired, please login again")
		}
		return nil, nil, apperror.Unauthorized("Token is malformed or invalid")
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, apperror.Unauthorized("Token is malformed or invalid")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, apperror.Unauthorized("User associated with token no longer exists")
	}
	return user, claims, nil
}

// LoginOrRegisterGitHub completes the GitHub OAuth callback: link by email
// when an account exists, otherwise create one with the requested role.
//
// OAuth accounts never log in with a password, but the column is NOT NULL,
// so new accounts get an unguessable random credential hashed like any
// other.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser, role model.Role) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	if !role.Valid() {
		role = model.RoleMentee
	}

	email := strings.ToLower(strings.TrimSpace(ghUser.Email))
	if email == "" {
		// GitHub hides the email when the user opts out; fall back to the
		// stable noreply form so the account is still linkable.
		email = fmt.Sprintf("%s@users.noreply.github.com", strings.ToLower(ghUser.Login))
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.Touch(ctx, user.ID); err != nil {
			s.logger.Warn("failed to record login time",
				slog.Int64("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}

	case errors.Is(err, apperror.ErrNotFound):
		name := strings.TrimSpace(ghUser.Name)
		if name == "" {
			name = ghUser.Login
		}

		hash, err := s.passwords.Hash(xid.New().String() + xid.New().String())
		if err != nil {
			return nil, fmt.Errorf("service/auth: hashing placeholder credential: %w", err)
		}

		user = &model.User{
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			Role:         role,
			ProfileImage: ghUser.AvatarURL,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user registered via GitHub",
			slog.Int64("userID", user.ID),
			slog.String("role", string(user.Role)),
		)

	default:
		return nil, fmt.Errorf("service/auth: looking up GitHub account: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// normalizeEmail trims, lowercases and syntax-checks an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.ValidationFailed("email", "invalid email format")
	}
	return email, nil
}
