// Package apperror defines the application's error taxonomy.
//
// Services return these domain errors; the HTTP layer translates them to
// status codes in exactly one place (handler/response.go). Nothing below the
// handlers knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors: the categories every failure collapses into.
// Use errors.Is against these to classify a wrapped error chain.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// AppError carries a sentinel category plus a human-readable message.
// The message is safe to return to clients; anything sensitive belongs in
// the wrapped Err chain, which only gets logged.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // client-facing description
	Field   string // optional: the input field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports malformed or out-of-range input.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized reports a missing, invalid, or unresolvable credential.
// The message is kind-specific (expired vs malformed) but never reveals
// whether an account exists.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden reports a valid identity lacking the required role.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// NotFound reports an absent resource. Services also use this for resources
// that exist but are not owned by the caller or not in an actionable state;
// callers must not be able to distinguish the two.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Conflict reports a uniqueness violation (duplicate email, duplicate
// pending request).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}
