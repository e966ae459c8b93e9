package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

// MentorService is the read-only mentor directory: a filtered, sorted
// projection over the user store restricted to mentors. No pagination and no
// caching; every call re-queries, which is fine at this dataset size.
type MentorService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewMentorService wires a MentorService.
func NewMentorService(users repository.UserRepository, logger *slog.Logger) *MentorService {
	return &MentorService{users: users, logger: logger}
}

// ListMentors returns mentor profiles in their public shape.
//
// skill filters by membership in the mentor's skill list; orderBy is "name"
// or "skill" (ascending). Without orderBy, newest mentors come first.
func (s *MentorService) ListMentors(ctx context.Context, skill, orderBy string) ([]model.PublicUser, error) {
	skill = strings.TrimSpace(skill)
	if utf8.RuneCountInString(skill) > MaxSkillLength {
		return nil, apperror.ValidationFailed("skill",
			fmt.Sprintf("skill filter must be %d characters or less", MaxSkillLength))
	}

	switch orderBy {
	case "", "name", "skill":
	default:
		return nil, apperror.ValidationFailed("orderBy", `orderBy must be "skill" or "name"`)
	}

	mentors, err := s.users.ListMentors(ctx, repository.MentorFilter{
		Skill:   skill,
		OrderBy: orderBy,
	})
	if err != nil {
		s.logger.Error("failed to list mentors", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing mentors: %w", err)
	}

	listing := make([]model.PublicUser, 0, len(mentors))
	for i := range mentors {
		listing = append(listing, mentors[i].Public())
	}
	return listing, nil
}
