package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wavewords/core/internal/callsession/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a call-session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, caller_id, callee_id, caller_name, status, media_kind, active, answered_at, created_at, updated_at`

// Create persists the session with its caller-chosen id. The id is the
// primary key, so a retried create of the same attempt conflicts instead of
// minting a second session.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.CallSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO call_sessions (id, caller_id, callee_id, caller_name, status, media_kind, active, answered_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.CallerID, s.CalleeID, s.CallerName, string(s.Status), s.MediaKind, s.Active, s.AnsweredAt, s.CreatedAt, s.UpdatedAt)
	return err
}

// GetByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.CallSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM call_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Transition applies a conditional status update: the row changes only if it
// is still in the expected from status. Terminal target statuses clear the
// liveness flag; the transition into active records answered_at.
func (r *PostgresRepository) Transition(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error) {
	var answeredAt any
	if to == domain.StatusActive {
		answeredAt = at
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE call_sessions
		 SET status = $3,
		     active = CASE WHEN $3 IN ('declined', 'missed', 'ended') THEN FALSE ELSE active END,
		     answered_at = COALESCE($4, answered_at),
		     updated_at = $5
		 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), answeredAt, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListRinging returns ringing sessions addressed to calleeID, oldest first.
func (r *PostgresRepository) ListRinging(ctx context.Context, calleeID string) ([]*domain.CallSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM call_sessions
		 WHERE callee_id = $1 AND status = 'ringing'
		 ORDER BY created_at`, calleeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListStaleRinging returns ringing sessions created before cutoff, oldest first.
func (r *PostgresRepository) ListStaleRinging(ctx context.Context, cutoff time.Time) ([]*domain.CallSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM call_sessions
		 WHERE status = 'ringing' AND created_at < $1
		 ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.CallSession, error) {
	var s domain.CallSession
	var status string
	var answeredAt sql.NullTime
	err := row.Scan(&s.ID, &s.CallerID, &s.CalleeID, &s.CallerName, &status, &s.MediaKind, &s.Active, &answeredAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = domain.Status(status)
	if answeredAt.Valid {
		t := answeredAt.Time
		s.AnsweredAt = &t
	}
	return &s, nil
}

func collectSessions(rows *sql.Rows) ([]*domain.CallSession, error) {
	var out []*domain.CallSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
