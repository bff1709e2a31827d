package repository

import (
	"context"

	"wavewords/core/internal/account/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// ListByDirectoryKey returns every account holding the key. The key is
	// unique at the schema level, so more than one row signals a consistency
	// violation the resolver must handle rather than crash on.
	ListByDirectoryKey(ctx context.Context, key string) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	UpdateProfile(ctx context.Context, a *domain.Account) error
}
