package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"wavewords/core/internal/contact/domain"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a contact repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const contactColumns = `id, owner_id, contact_user_id, label, directory_key, first_name, last_name, created_at`

// Create persists the contact. Returns ErrDuplicate when the owner already
// references the same account, no matter which caller lost the race.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, owner_id, contact_user_id, label, directory_key, first_name, last_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.OwnerID, c.ContactUserID, c.Label, c.DirectoryKey, c.FirstName, c.LastName, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListByOwner returns all contacts owned by ownerID, ordered by label.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE owner_id = $1 ORDER BY label, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByOwnerAndContactUser returns the owner's contact for the referenced account, or nil if not found.
func (r *PostgresRepository) GetByOwnerAndContactUser(ctx context.Context, ownerID, contactUserID string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE owner_id = $1 AND contact_user_id = $2`,
		ownerID, contactUserID)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// GetByID returns the contact for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.OwnerID, &c.ContactUserID, &c.Label, &c.DirectoryKey, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
