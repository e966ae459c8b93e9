// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// The driver is modernc.org/sqlite, a pure Go translation of SQLite, so no
// CGo and no external database server. Tests run against ":memory:".
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB owns the connection pool and exposes one store per aggregate:
// Users implements repository.UserRepository, Matches implements
// repository.MatchRepository. Both share the pool.
type DB struct {
	conn    *sql.DB
	Users   *UserStore
	Matches *MatchStore
}

// New opens the database at path (":memory:" for tests), configures it and
// runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time, and a ":memory:" database exists
	// per connection, so the pool must stay at a single connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during a write; one writer per statement
	// is all a request/response workload needs.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. They must be on so that
	// deleting a user cascades to their match requests.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:    conn,
		Users:   &UserStore{conn: conn},
		Matches: &MatchStore{conn: conn},
	}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL CHECK (role IN ('mentor', 'mentee')),
			bio           TEXT NOT NULL DEFAULT '',
			profile_image TEXT NOT NULL DEFAULT '',
			tech_stack    TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_role  ON users(role);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			mentor_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			mentee_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status     TEXT NOT NULL DEFAULT 'pending',
			message    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_mentor_id  ON matches(mentor_id);
		CREATE INDEX IF NOT EXISTS idx_matches_mentee_id  ON matches(mentee_id);
		CREATE INDEX IF NOT EXISTS idx_matches_status     ON matches(status);
		CREATE INDEX IF NOT EXISTS idx_matches_created_at ON matches(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating matches table: %w", err)
	}

	// Partial unique index: at most one pending request per (mentee, mentor)
	// pair, enforced by the storage engine so concurrent creates can't slip
	// a duplicate past the application-level check.
	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_pending_pair
			ON matches(mentee_id, mentor_id) WHERE status = 'pending';
	`)
	if err != nil {
		return fmt.Errorf("creating pending pair index: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite doesn't export a stable typed error for this, so we
// match the driver's message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
