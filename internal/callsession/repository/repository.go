package repository

import (
	"context"
	"time"

	"wavewords/core/internal/callsession/domain"
)

// Repository defines persistence for call sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.CallSession) error
	GetByID(ctx context.Context, id string) (*domain.CallSession, error)
	// Transition conditionally moves the session from one status to another.
	// It reports false when the session was not in the expected status, which
	// is how applying a transition twice stays a safe no-op: the second
	// caller's conditional update matches nothing. answeredAt is recorded
	// only on the transition into active.
	Transition(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error)
	// ListRinging returns sessions ringing for the given callee, oldest first.
	ListRinging(ctx context.Context, calleeID string) ([]*domain.CallSession, error)
	// ListStaleRinging returns sessions still ringing that were created
	// before the cutoff. Fed to the missed-call sweep.
	ListStaleRinging(ctx context.Context, cutoff time.Time) ([]*domain.CallSession, error)
}
