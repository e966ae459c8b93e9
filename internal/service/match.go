package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

const MaxMessageLength = 500

// MatchService owns the match-request state machine.
//
// Every mutation is scoped to rows the caller owns: mentees create and
// cancel, mentors accept and reject. Requests that exist but belong to
// someone else, or are no longer pending, are reported exactly like requests
// that don't exist; callers must not learn which it was.
type MatchService struct {
	matches repository.MatchRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

// NewMatchService wires a MatchService.
func NewMatchService(matches repository.MatchRepository, users repository.UserRepository, logger *slog.Logger) *MatchService {
	return &MatchService{
		matches: matches,
		users:   users,
		logger:  logger,
	}
}

// Create files a new pending request from the mentee to the mentor.
//
// The target must be an existing user with role=mentor; a missing user and a
// user with the wrong role produce the same validation error. A pending
// request to the same mentor blocks a second one; checked here first for
// the friendly error, and enforced by the storage index for the race two
// concurrent creates would otherwise win together.
func (s *MatchService) Create(ctx context.Context, menteeID, mentorID int64, message string) (*model.MatchRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("mentorId", "the specified mentor does not exist")
		}
		return nil, fmt.Errorf("looking up mentor %d: %w", mentorID, err)
	}
	if mentor.Role != model.RoleMentor {
		return nil, apperror.ValidationFailed("mentorId", "the specified mentor does not exist")
	}

	pending, err := s.matches.HasPending(ctx, menteeID, mentorID)
	if err != nil {
		return nil, fmt.Errorf("checking pending request: %w", err)
	}
	if pending {
		return nil, apperror.Conflict("you already have a pending request to this mentor")
	}

	match := &model.MatchRequest{
		MentorID: mentorID,
		MenteeID: menteeID,
		Message:  message,
	}
	if err := s.matches.Create(ctx, match); err != nil {
		return nil, err
	}

	s.logger.Info("match request created",
		slog.Int64("matchID", match.ID),
		slog.Int64("menteeID", menteeID),
		slog.Int64("mentorID", mentorID),
	)
	return match, nil
}

// Accept moves a pending request addressed to the mentor to accepted.
func (s *MatchService) Accept(ctx context.Context, matchID, mentorID int64) (*model.MatchRequest, error) {
	return s.transition(ctx, matchID, mentorID, model.StatusAccepted)
}

// Reject moves a pending request addressed to the mentor to rejected.
func (s *MatchService) Reject(ctx context.Context, matchID, mentorID int64) (*model.MatchRequest, error) {
	return s.transition(ctx, matchID, mentorID, model.StatusRejected)
}

func (s *MatchService) transition(ctx context.Context, matchID, mentorID int64, to model.MatchStatus) (*model.MatchRequest, error) {
	match, err := s.matches.TransitionPending(ctx, matchID, mentorID, to)
	if err != nil {
		return nil, err
	}

	s.logger.Info("match request "+string(to),
		slog.Int64("matchID", match.ID),
		slog.Int64("mentorID", mentorID),
	)
	return match, nil
}

// Cancel moves the mentee's own request to cancelled. Unlike accept/reject
// there is no pending-only guard: cancelling an already accepted or rejected
// request succeeds.
func (s *MatchService) Cancel(ctx context.Context, matchID, menteeID int64) (*model.MatchRequest, error) {
	match, err := s.matches.CancelByMentee(ctx, matchID, menteeID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("match request cancelled",
		slog.Int64("matchID", match.ID),
		slog.Int64("menteeID", menteeID),
	)
	return match, nil
}

// Incoming lists requests addressed to the mentor, oldest first, with each
// requesting mentee's display fields attached.
func (s *MatchService) Incoming(ctx context.Context, mentorID int64) ([]model.MatchRequest, error) {
	requests, err := s.matches.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("listing incoming requests: %w", err)
	}
	return requests, nil
}

// Outgoing lists requests sent by the mentee, oldest first, with each target
// mentor's display fields attached.
func (s *MatchService) Outgoing(ctx context.Context, menteeID int64) ([]model.MatchRequest, error) {
	requests, err := s.matches.ListByMentee(ctx, menteeID)
	if err != nil {
		return nil, fmt.Errorf("listing outgoing requests: %w", err)
	}
	return requests, nil
}
