package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session records one capture run.
type Session struct {
	ID          string
	Facing      string
	Orientation string
	Width       int
	Height      int
	StartedAt   time.Time
	EndedAt     *time.Time
}

// SessionRepository provides operations on capture sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. StartedAt is set to now when zero.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO capture_sessions (id, facing, orientation, width, height, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Facing, sess.Orientation, sess.Width, sess.Height, sess.StartedAt,
	)
	return err
}

// End marks the session as ended now.
func (r *SessionRepository) End(id string) error {
	result, err := r.db.Exec(
		`UPDATE capture_sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, facing, orientation, width, height, started_at, ended_at
		 FROM capture_sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves sessions, most recent first, up to limit (0 means all).
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT id, facing, orientation, width, height, started_at, ended_at
		 FROM capture_sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.Facing, &sess.Orientation, &sess.Width, &sess.Height, &sess.StartedAt, &ended)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
