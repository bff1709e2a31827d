package repository

import (
	"context"

	"wavewords/core/internal/callhistory/domain"
)

// Repository defines persistence for call history entries.
type Repository interface {
	// Append inserts the entry and evicts the account's oldest entries so at
	// most limit remain.
	Append(ctx context.Context, e *domain.HistoryEntry, limit int) error
	// ListRecent returns up to limit entries for the account, newest first.
	ListRecent(ctx context.Context, accountID string, limit int) ([]*domain.HistoryEntry, error)
}
