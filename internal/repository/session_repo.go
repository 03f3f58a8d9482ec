package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNoActiveSession is returned when no unfinished session exists.
var ErrNoActiveSession = errors.New("repository: no active session")

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

var _ SessionRepo = (*SessionSQLite)(nil)

const (
	upsertSessionSQL = `
		INSERT INTO cook_sessions (id, started_at, snapshot, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot=excluded.snapshot,
			updated_at=excluded.updated_at
	`

	selectActiveSessionSQL = `
		SELECT id, snapshot FROM cook_sessions
		WHERE ended_at IS NULL
		ORDER BY updated_at DESC LIMIT 1
	`

	endSessionSQL = `UPDATE cook_sessions SET ended_at = ? WHERE id = ?`
)

// Save upserts the snapshot document for the session.
func (r *SessionSQLite) Save(ctx context.Context, id string, startedAt time.Time, snapshot []byte, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, upsertSessionSQL,
		id, startedAt.UTC(), string(snapshot), updatedAt.UTC())
	return err
}

// LoadActive returns the most recently updated unfinished session.
func (r *SessionSQLite) LoadActive(ctx context.Context) (string, []byte, error) {
	var id, snapshot string
	err := r.db.QueryRowContext(ctx, selectActiveSessionSQL).Scan(&id, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNoActiveSession
	}
	if err != nil {
		return "", nil, err
	}
	return id, []byte(snapshot), nil
}

// End marks the session finished.
func (r *SessionSQLite) End(ctx context.Context, id string, endedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, endSessionSQL, endedAt.UTC(), id)
	return err
}
