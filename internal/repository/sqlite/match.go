package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/mentor-match/internal/apperror"
	"github.com/sakif/mentor-match/internal/model"
	"github.com/sakif/mentor-match/internal/repository"
)

// MatchStore implements repository.MatchRepository on the shared pool.
type MatchStore struct {
	conn *sql.DB
}

var _ repository.MatchRepository = (*MatchStore)(nil)

const matchColumns = `id, mentor_id, mentee_id, status, message, created_at, updated_at`

// Create inserts a new pending request. The partial unique index on
// (mentee_id, mentor_id) WHERE status='pending' is the storage-level
// guarantee behind the "one pending request per pair" invariant; the
// service's pre-check only exists for a friendlier early error.
func (s *MatchStore) Create(ctx context.Context, m *model.MatchRequest) error {
	now := time.Now()
	m.Status = model.StatusPending
	m.CreatedAt = now
	m.UpdatedAt = now

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO matches (mentor_id, mentee_id, status, message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.MentorID,
		m.MenteeID,
		m.Status,
		m.Message,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("you already have a pending request to this mentor")
		}
		return fmt.Errorf("sqlite: inserting match request (mentee=%d mentor=%d): %w",
			m.MenteeID, m.MentorID, err)
	}

	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new match request id: %w", err)
	}
	return nil
}

// HasPending reports whether the pair already has a pending request.
func (s *MatchStore) HasPending(ctx context.Context, menteeID, mentorID int64) (bool, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches
		 WHERE mentee_id = ? AND mentor_id = ? AND status = 'pending'`,
		menteeID, mentorID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking pending request: %w", err)
	}
	return n > 0, nil
}

// TransitionPending is the accept/reject conditional write: a single UPDATE
// guarded by id, owner and pending status. Zero rows affected means the
// request doesn't exist, isn't pending, or belongs to another mentor; the
// caller can't tell which, and that is deliberate.
func (s *MatchStore) TransitionPending(ctx context.Context, id, mentorID int64, to model.MatchStatus) (*model.MatchRequest, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE matches SET status = ?, updated_at = ?
		 WHERE id = ? AND mentor_id = ? AND status = 'pending'`,
		to, time.Now(), id, mentorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: transitioning match request %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking transition of match request %d: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("match request")
	}

	return s.getMatch(ctx, id)
}

// CancelByMentee moves the mentee's own request to cancelled. Unlike
// accept/reject there is no status guard: a mentee may cancel a request
// that was already accepted or rejected.
func (s *MatchStore) CancelByMentee(ctx context.Context, id, menteeID int64) (*model.MatchRequest, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE matches SET status = ?, updated_at = ?
		 WHERE id = ? AND mentee_id = ?`,
		model.StatusCancelled, time.Now(), id, menteeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: cancelling match request %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking cancel of match request %d: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("match request")
	}

	return s.getMatch(ctx, id)
}

// ListByMentor returns the mentor's incoming requests, oldest first, with
// each requesting mentee's display fields joined.
func (s *MatchStore) ListByMentor(ctx context.Context, mentorID int64) ([]model.MatchRequest, error) {
	return s.listJoined(ctx,
		`SELECT m.`+joinedMatchColumns()+`, u.name, u.email, u.profile_image, u.role, u.id
		 FROM matches m
		 LEFT JOIN users u ON m.mentee_id = u.id
		 WHERE m.mentor_id = ?
		 ORDER BY m.created_at ASC`,
		mentorID, false)
}

// ListByMentee returns the mentee's outgoing requests, oldest first, with
// each target mentor's display fields joined.
func (s *MatchStore) ListByMentee(ctx context.Context, menteeID int64) ([]model.MatchRequest, error) {
	return s.listJoined(ctx,
		`SELECT m.`+joinedMatchColumns()+`, u.name, u.email, u.profile_image, u.role, u.id
		 FROM matches m
		 LEFT JOIN users u ON m.mentor_id = u.id
		 WHERE m.mentee_id = ?
		 ORDER BY m.created_at ASC`,
		menteeID, true)
}

func joinedMatchColumns() string {
	return `id, m.mentor_id, m.mentee_id, m.status, m.message, m.created_at, m.updated_at`
}

// listJoined runs one of the two listing queries. peerIsMentor selects which
// side of the request the joined user columns describe.
func (s *MatchStore) listJoined(ctx context.Context, query string, callerID int64, peerIsMentor bool) ([]model.MatchRequest, error) {
	rows, err := s.conn.QueryContext(ctx, query, callerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing match requests: %w", err)
	}
	defer rows.Close()

	requests := []model.MatchRequest{}
	for rows.Next() {
		var (
			m         model.MatchRequest
			peerName  sql.NullString
			peerEmail sql.NullString
			peerImage sql.NullString
			peerRole  sql.NullString
			peerID    sql.NullInt64
		)
		err := rows.Scan(
			&m.ID,
			&m.MentorID,
			&m.MenteeID,
			&m.Status,
			&m.Message,
			&m.CreatedAt,
			&m.UpdatedAt,
			&peerName,
			&peerEmail,
			&peerImage,
			&peerRole,
			&peerID,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning match request row: %w", err)
		}

		if peerID.Valid {
			peer := &model.MatchPeer{
				Name:  peerName.String,
				Email: peerEmail.String,
			}
			peer.ProfileImage = peerImage.String
			if peer.ProfileImage == "" {
				peer.ProfileImage = fmt.Sprintf("/images/%s/%d", peerRole.String, peerID.Int64)
			}
			if peerIsMentor {
				m.Mentor = peer
			} else {
				m.Mentee = peer
			}
		}
		requests = append(requests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating match request rows: %w", err)
	}
	return requests, nil
}

func (s *MatchStore) getMatch(ctx context.Context, id int64) (*model.MatchRequest, error) {
	var m model.MatchRequest
	err := s.conn.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id,
	).Scan(
		&m.ID,
		&m.MentorID,
		&m.MenteeID,
		&m.Status,
		&m.Message,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("match request")
		}
		return nil, fmt.Errorf("sqlite: getting match request %d: %w", id, err)
	}
	return &m, nil
}
