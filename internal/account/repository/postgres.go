package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wavewords/core/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, first_name, last_name, directory_key, avatar_url, created_at, updated_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByDirectoryKey returns all accounts with the given directory key, which
// the schema keeps unique; callers treat len > 1 as a consistency violation.
func (r *PostgresRepository) ListByDirectoryKey(ctx context.Context, key string) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE directory_key = $1`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the account. The account must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, first_name, last_name, directory_key, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.FirstName, a.LastName, a.DirectoryKey, a.AvatarURL, a.CreatedAt, a.UpdatedAt)
	return err
}

// UpdateProfile updates the mutable profile fields. The directory key and id are immutable.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET first_name = $2, last_name = $3, avatar_url = $4, updated_at = $5
		 WHERE id = $1`,
		a.ID, a.FirstName, a.LastName, a.AvatarURL, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.DirectoryKey, &a.AvatarURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
