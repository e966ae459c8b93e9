// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/mentor-match/internal/model"
)

// MentorFilter narrows and orders the mentor directory listing.
// Skill filters by membership in the mentor's skill list; OrderBy is
// "name" or "skill" (ascending). The zero value lists every mentor,
// newest first.
type MentorFilter struct {
	Skill   string
	OrderBy string
}

// UserRepository persists accounts and profiles.
type UserRepository interface {
	// Create inserts a new user and fills in ID and timestamps.
	// Returns apperror.ErrConflict when the email is already registered.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the user or apperror.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByEmail looks up by case-normalized email.
	// Returns apperror.ErrNotFound when no account exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update persists profile fields (name, bio, image, skills) and bumps
	// updated_at. Email, role and credential are immutable here.
	Update(ctx context.Context, user *model.User) error

	// Touch bumps updated_at, recording a successful login.
	Touch(ctx context.Context, id int64) error

	// ListMentors returns users with role=mentor matching the filter.
	ListMentors(ctx context.Context, filter MentorFilter) ([]model.User, error)
}

// MatchRepository persists match requests and their state transitions.
// Every mutation is a single conditional statement scoped to rows the
// caller owns; ownership and status mismatches come back as
// apperror.ErrNotFound.
type MatchRepository interface {
	// Create inserts a new pending request and fills in ID and timestamps.
	// Returns apperror.ErrConflict when a pending request for the same
	// (mentee, mentor) pair already exists, enforced by a partial unique
	// index, so the guarantee holds under concurrent creates.
	Create(ctx context.Context, m *model.MatchRequest) error

	// HasPending reports whether a pending request exists for the pair.
	HasPending(ctx context.Context, menteeID, mentorID int64) (bool, error)

	// TransitionPending moves a request owned by mentorID from pending to
	// the given terminal status and returns the updated record. Wrong
	// owner, wrong status and nonexistent id are indistinguishable: all
	// return apperror.ErrNotFound.
	TransitionPending(ctx context.Context, id, mentorID int64, to model.MatchStatus) (*model.MatchRequest, error)

	// CancelByMentee moves a request owned by menteeID to cancelled,
	// regardless of its current status, and returns the updated record.
	CancelByMentee(ctx context.Context, id, menteeID int64) (*model.MatchRequest, error)

	// ListByMentor returns all requests addressed to the mentor, oldest
	// first, with each mentee's public display fields joined.
	ListByMentor(ctx context.Context, mentorID int64) ([]model.MatchRequest, error)

	// ListByMentee returns all requests sent by the mentee, oldest first,
	// with each mentor's public display fields joined.
	ListByMentee(ctx context.Context, menteeID int64) ([]model.MatchRequest, error)
}
