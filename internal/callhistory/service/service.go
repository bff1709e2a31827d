package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	accountdomain "wavewords/core/internal/account/domain"
	"wavewords/core/internal/callhistory/domain"
	"wavewords/core/internal/callhistory/repository"
	sessiondomain "wavewords/core/internal/callsession/domain"
	"wavewords/core/internal/db"
	storesync "wavewords/core/internal/sync"
)

// AccountRepo is the minimal account repository needed by the recorder.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
}

// Service derives call history from terminated sessions and serves the
// recent-calls view. Each participant gets an entry from their own
// perspective, and each account keeps at most the configured most-recent-N.
type Service struct {
	entries  repository.Repository
	accounts AccountRepo
	hub      *storesync.Hub
	limit    int
	log      zerolog.Logger
}

// NewService returns a history service keeping at most limit entries per
// account. limit <= 0 falls back to the default cap.
func NewService(entries repository.Repository, accounts AccountRepo, hub *storesync.Hub, limit int, log zerolog.Logger) *Service {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	return &Service{entries: entries, accounts: accounts, hub: hub, limit: limit, log: log}
}

// OnTerminal appends one history entry per participant for a session that
// just reached a terminal state.
//
// Directions: the caller always records outgoing (zero duration when the call
// was never answered). The callee records incoming for a call that was
// answered and later ended, missed for one that was declined or rang out.
// Duration is last update minus the active transition, in whole seconds.
//
// The callee's counterpart name comes from the session's denormalized caller
// name; the caller's side looks up the callee's current profile. If that
// lookup fails the entry still lands, under the unknown-caller fallback.
func (s *Service) OnTerminal(ctx context.Context, sess *sessiondomain.CallSession) error {
	if !sess.Status.Terminal() {
		return fmt.Errorf("session %s is %s, not terminal", sess.ID, sess.Status)
	}

	duration := sess.Duration()
	occurredAt := sess.UpdatedAt

	calleeDirection := domain.DirectionMissed
	if sess.Status == sessiondomain.StatusEnded {
		calleeDirection = domain.DirectionIncoming
	}

	callerEntry := &domain.HistoryEntry{
		ID:              uuid.NewString(),
		AccountID:       sess.CallerID,
		SessionID:       sess.ID,
		CounterpartName: s.calleeName(ctx, sess),
		Direction:       domain.DirectionOutgoing,
		DurationSeconds: duration,
		OccurredAt:      occurredAt,
	}
	calleeEntry := &domain.HistoryEntry{
		ID:              uuid.NewString(),
		AccountID:       sess.CalleeID,
		SessionID:       sess.ID,
		CounterpartName: sess.CallerName,
		Direction:       calleeDirection,
		DurationSeconds: duration,
		OccurredAt:      occurredAt,
	}

	for _, e := range []*domain.HistoryEntry{callerEntry, calleeEntry} {
		if err := s.entries.Append(ctx, e, s.limit); err != nil {
			return db.Unavailable(err)
		}
	}
	return nil
}

// ListRecent returns the account's history, newest first, capped at the limit.
func (s *Service) ListRecent(ctx context.Context, accountID string) ([]*domain.HistoryEntry, error) {
	out, err := s.entries.ListRecent(ctx, accountID, s.limit)
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return out, nil
}

// WatchRecent returns a live, time-descending view of the account's history:
// a snapshot first, then a fresh list after every history change for the
// account. The channel closes when ctx ends.
func (s *Service) WatchRecent(ctx context.Context, accountID string) (<-chan []*domain.HistoryEntry, error) {
	sub := s.hub.Subscribe(ctx, storesync.CollectionHistoryEntries, accountID)

	snapshot, err := s.ListRecent(ctx, accountID)
	if err != nil {
		sub.Cancel()
		return nil, err
	}

	out := make(chan []*domain.HistoryEntry, 1)
	out <- snapshot

	go func() {
		defer close(out)
		defer sub.Cancel()
		for range sub.Events() {
			list, err := s.ListRecent(ctx, accountID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn().Err(err).Str("account_id", accountID).Msg("history view refresh failed")
				continue
			}
			select {
			case out <- list:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Service) calleeName(ctx context.Context, sess *sessiondomain.CallSession) string {
	callee, err := s.accounts.GetByID(ctx, sess.CalleeID)
	if err != nil || callee == nil {
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("callee lookup failed for history entry")
		}
		return accountdomain.UnknownCallerName
	}
	return callee.DisplayName()
}
