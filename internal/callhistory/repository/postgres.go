package repository

import (
	"context"
	"database/sql"

	"wavewords/core/internal/callhistory/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a history repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts the entry and prunes the account's history beyond limit in
// one transaction, so a crash between the two cannot leave the cap exceeded.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.HistoryEntry, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_entries (id, account_id, session_id, counterpart_name, direction, duration_seconds, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AccountID, e.SessionID, e.CounterpartName, string(e.Direction), e.DurationSeconds, e.OccurredAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM history_entries
		 WHERE account_id = $1 AND id NOT IN (
		     SELECT id FROM history_entries
		     WHERE account_id = $1
		     ORDER BY occurred_at DESC, id DESC
		     LIMIT $2
		 )`,
		e.AccountID, limit)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListRecent returns up to limit of the account's entries, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, accountID string, limit int) ([]*domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, session_id, counterpart_name, direction, duration_seconds, occurred_at
		 FROM history_entries
		 WHERE account_id = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var direction string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.SessionID, &e.CounterpartName, &direction, &e.DurationSeconds, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Direction = domain.Direction(direction)
		out = append(out, &e)
	}
	return out, rows.Err()
}
