package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

// UserStore implements repository.UserRepository on the shared pool.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, password_hash, name, role, bio, profile_image, tech_stack, created_at, updated_at`

// Create inserts a new user. The email must already be case-normalized by
// the service layer; the UNIQUE index is the final authority on duplicates.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	skills, err := marshalSkills(user)
	if err != nil {
		return err
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, role, bio, profile_image, tech_stack, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.Bio,
		user.ProfileImage,
		skills,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a user with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	return nil
}

// GetByID retrieves a user by primary key.
// Returns apperror.ErrNotFound if no such user exists.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by their case-normalized email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// Update persists the mutable profile fields. Email, role and the password
// hash are not touched; role immutability is a hard invariant.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	skills, err := marshalSkills(user)
	if err != nil {
		return err
	}

	user.UpdatedAt = time.Now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, bio = ?, profile_image = ?, tech_stack = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Bio,
		user.ProfileImage,
		skills,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %d: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

// Touch bumps updated_at, used to record a successful login.
func (s *UserStore) Touch(ctx context.Context, id int64) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE users SET updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("sqlite: touching user %d: %w", id, err)
	}
	return nil
}

// ListMentors returns all mentor accounts matching the filter.
//
// The skill filter matches membership in the JSON-encoded skill list: the
// stored form is `["React","Vue"]`, so LIKE '%"React"%' finds exact list
// members without unpacking the JSON.
func (s *UserStore) ListMentors(ctx context.Context, filter repository.MentorFilter) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'mentor'`
	args := []any{}

	if filter.Skill != "" {
		query += ` AND tech_stack LIKE ?`
		args = append(args, `%"`+filter.Skill+`"%`)
	}

	switch filter.OrderBy {
	case "name":
		query += ` ORDER BY name ASC`
	case "skill":
		query += ` ORDER BY tech_stack ASC`
	default:
		query += ` ORDER BY created_at DESC`
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing mentors: %w", err)
	}
	defer rows.Close()

	mentors := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning mentor row: %w", err)
		}
		mentors = append(mentors, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating mentor rows: %w", err)
	}
	return mentors, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u      model.User
		skills sql.NullString
	)
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.Bio,
		&u.ProfileImage,
		&skills,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if skills.Valid && skills.String != "" {
		if err := json.Unmarshal([]byte(skills.String), &u.Skills); err != nil {
			return nil, fmt.Errorf("decoding skill list for user %d: %w", u.ID, err)
		}
	}
	return &u, nil
}

// marshalSkills encodes the skill list as a JSON text column.
// Mentees (and mentors without skills) store NULL.
func marshalSkills(user *model.User) (any, error) {
	if user.Role != model.RoleMentor || user.Skills == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(user.Skills)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encoding skill list: %w", err)
	}
	return string(encoded), nil
}
