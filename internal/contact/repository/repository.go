package repository

import (
	"context"
	"errors"

	"wavewords/core/internal/contact/domain"
)

// ErrDuplicate is returned by Create when the (owner, contact user) pair
// already exists. The store enforces the pair's uniqueness, so the loser of a
// near-simultaneous double add gets this instead of a second row.
var ErrDuplicate = errors.New("contact already exists for owner and target")

// Repository defines persistence for contacts.
type Repository interface {
	Create(ctx context.Context, c *domain.Contact) error
	// ListByOwner returns the owner's contacts ordered by label.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Contact, error)
	// GetByOwnerAndContactUser returns the owner's contact referencing the
	// given account, or nil if none exists.
	GetByOwnerAndContactUser(ctx context.Context, ownerID, contactUserID string) (*domain.Contact, error)
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
}
