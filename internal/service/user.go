package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/imagestore"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

const (
	MaxBioLength   = 1000
	MaxSkills      = 20
	MaxSkillLength = 50
)

// UserService handles profile reads and updates.
type UserService struct {
	users  repository.UserRepository
	images *imagestore.Store
	logger *slog.Logger
}

// NewUserService wires a UserService from its dependencies.
func NewUserService(users repository.UserRepository, images *imagestore.Store, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		images: images,
		logger: logger,
	}
}

// GetProfile returns the caller's own user record.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfileInput is the profile update payload. ID and Role must echo
// the caller's own values; Image, when set, is a base64 data URL; Skills is
// only honored for mentors.
type UpdateProfileInput struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	Bio    *string    `json:"bio,omitempty"`
	Image  string     `json:"image,omitempty"`
	Skills []string   `json:"skills,omitempty"`
}

// UpdateProfile validates and applies a self-service profile update.
//
// Ownership: the payload's id must be the caller's own; anything else is
// Forbidden. The payload's role must match the stored role: roles are fixed
// at signup and a mismatch is a validation error, not a role change.
func (s *UserService) UpdateProfile(ctx context.Context, callerID int64, input UpdateProfileInput) (*model.User, error) {
	if input.ID != callerID {
		return nil, apperror.Forbidden("you can only update your own profile")
	}

	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if input.Role != user.Role {
		return nil, apperror.ValidationFailed("role", "role cannot be changed")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be less than %d characters", MaxNameLength))
	}
	user.Name = name

	if input.Bio != nil {
		if utf8.RuneCountInString(*input.Bio) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		user.Bio = *input.Bio
	}

	if input.Skills != nil {
		if user.Role != model.RoleMentor {
			return nil, apperror.ValidationFailed("skills", "only mentors have a skill list")
		}
		if len(input.Skills) > MaxSkills {
			return nil, apperror.ValidationFailed("skills",
				fmt.Sprintf("at most %d skills allowed", MaxSkills))
		}
		for _, skill := range input.Skills {
			if skill == "" || utf8.RuneCountInString(skill) > MaxSkillLength {
				return nil, apperror.ValidationFailed("skills",
					fmt.Sprintf("each skill must be 1-%d characters", MaxSkillLength))
			}
		}
		user.Skills = input.Skills
	}

	if input.Image != "" {
		imageURL, err := s.images.Save(string(user.Role), user.ID, input.Image)
		if err != nil {
			return nil, err
		}
		user.ProfileImage = imageURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.Int64("userID", user.ID))
	return user, nil
}
