package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	accountdomain "wavewords/core/internal/account/domain"
	"wavewords/core/internal/callsession/domain"
	"wavewords/core/internal/callsession/repository"
	contactdomain "wavewords/core/internal/contact/domain"
	"wavewords/core/internal/db"
	"wavewords/core/internal/media"
	storesync "wavewords/core/internal/sync"
	"wavewords/core/internal/telemetry"
)

// Sentinel errors for the call-session service.
var (
	ErrInvalidTarget = errors.New("contact has no resolvable account")
	ErrNotFound      = errors.New("call session not found")
	// ErrAlreadyResolved reports a transition attempted on a session that has
	// already left ringing. A benign race, logged rather than escalated.
	ErrAlreadyResolved = errors.New("call session already resolved")
)

// AccountRepo is the minimal account repository needed by the session service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
}

// Recorder consumes terminal transitions and appends per-participant history.
type Recorder interface {
	OnTerminal(ctx context.Context, s *domain.CallSession) error
}

// Service owns the call-session lifecycle: create, transition, terminate,
// and the missed-call sweep. All coordination between the two participants
// happens through the shared store; transitions are conditional writes so
// racing clients cannot double-apply one.
type Service struct {
	sessions  repository.Repository
	accounts  AccountRepo
	recorder  Recorder
	transport media.Transport
	emitter   telemetry.EventEmitter
	hub       *storesync.Hub
	log       zerolog.Logger
	now       func() time.Time
}

// NewService returns a call-session service with the given dependencies.
// emitter may be nil when the call-event firehose is disabled.
func NewService(
	sessions repository.Repository,
	accounts AccountRepo,
	recorder Recorder,
	transport media.Transport,
	emitter telemetry.EventEmitter,
	hub *storesync.Hub,
	log zerolog.Logger,
) *Service {
	return &Service{
		sessions:  sessions,
		accounts:  accounts,
		recorder:  recorder,
		transport: transport,
		emitter:   emitter,
		hub:       hub,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initiate creates a new ringing session from callerID to the account the
// contact references. The record is fully written, caller display name
// included, before Initiate returns: its existence in the store is what makes
// the callee's client ring, so nothing may be shown on either side first.
// The session id is chosen here, before the record exists; a write that fails
// is not retried automatically because the caller can safely retry with the
// same id instead.
func (s *Service) Initiate(ctx context.Context, callerID string, contact *contactdomain.Contact) (*domain.CallSession, error) {
	if contact == nil || contact.ContactUserID == "" {
		return nil, ErrInvalidTarget
	}

	callerName := accountdomain.UnknownCallerName
	caller, err := s.accounts.GetByID(ctx, callerID)
	if err != nil {
		return nil, db.Unavailable(err)
	}
	if caller != nil {
		callerName = caller.DisplayName()
	}

	now := s.now()
	sess := &domain.CallSession{
		ID:         domain.NewSessionID(now, randomSuffix()),
		CallerID:   callerID,
		CalleeID:   contact.ContactUserID,
		CallerName: callerName,
		Status:     domain.StatusRinging,
		MediaKind:  domain.MediaKindVideo,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, db.Unavailable(err)
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Str("caller_id", callerID).
		Str("callee_id", sess.CalleeID).
		Msg("call initiated")
	telemetry.EmitAsync(s.emitter, s.event(telemetry.EventCallInitiated, sess))
	return sess, nil
}

// Respond accepts or declines a ringing session on behalf of the callee.
// Accepting moves it to active and starts the media transport with the callee
// as the local side; the caller's client starts its own transport when its
// subscription observes the active status. Responding to a session that has
// already left ringing is a benign race reported as ErrAlreadyResolved.
func (s *Service) Respond(ctx context.Context, sessionID string, accept bool) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return db.Unavailable(err)
	}
	if sess == nil {
		return ErrNotFound
	}
	if sess.Status != domain.StatusRinging {
		s.logBenign(sess, "respond on resolved session")
		return ErrAlreadyResolved
	}

	target := domain.StatusDeclined
	if accept {
		target = domain.StatusActive
	}

	now := s.now()
	ok, err := s.sessions.Transition(ctx, sessionID, domain.StatusRinging, target, now)
	if err != nil {
		return db.Unavailable(err)
	}
	if !ok {
		// Someone else resolved it between our read and our write.
		s.logBenign(sess, "respond lost transition race")
		return ErrAlreadyResolved
	}

	sess.Status = target
	sess.UpdatedAt = now
	if accept {
		sess.AnsweredAt = &now
		if err := s.transport.Start(ctx, sess.ID, sess.CalleeID, sess.CallerID); err != nil {
			s.log.Error().Err(err).Str("session_id", sess.ID).Msg("media transport failed to start")
		}
		telemetry.EmitAsync(s.emitter, s.event(telemetry.EventCallAnswered, sess))
		return nil
	}

	sess.Active = false
	s.onTerminal(ctx, sess, telemetry.EventCallDeclined)
	return nil
}

// Terminate ends the session from either participant's side. From active it
// transitions to ended; from ringing it is the caller hanging up before an
// answer, which lands in missed. Terminating an already-terminal session is a
// safe no-op.
func (s *Service) Terminate(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return db.Unavailable(err)
	}
	if sess == nil {
		return ErrNotFound
	}
	if sess.Status.Terminal() {
		s.logBenign(sess, "terminate on terminal session")
		return nil
	}

	from := sess.Status
	target := domain.StatusEnded
	eventType := telemetry.EventCallEnded
	if from == domain.StatusRinging {
		target = domain.StatusMissed
		eventType = telemetry.EventCallMissed
	}

	now := s.now()
	ok, err := s.sessions.Transition(ctx, sessionID, from, target, now)
	if err != nil {
		return db.Unavailable(err)
	}
	if !ok {
		s.logBenign(sess, "terminate lost transition race")
		return nil
	}

	sess.Status = target
	sess.Active = false
	sess.UpdatedAt = now
	s.onTerminal(ctx, sess, eventType)
	return nil
}

// SweepStale transitions sessions that have been ringing longer than timeout
// to missed, recording history for both participants. Returns how many
// sessions were swept. Run periodically; a pending initiate torn down before
// acknowledgment leaves an orphaned ringing record, and this is its cleanup.
func (s *Service) SweepStale(ctx context.Context, timeout time.Duration) (int, error) {
	cutoff := s.now().Add(-timeout)
	stale, err := s.sessions.ListStaleRinging(ctx, cutoff)
	if err != nil {
		return 0, db.Unavailable(err)
	}

	swept := 0
	for _, sess := range stale {
		now := s.now()
		ok, err := s.sessions.Transition(ctx, sess.ID, domain.StatusRinging, domain.StatusMissed, now)
		if err != nil {
			return swept, db.Unavailable(err)
		}
		if !ok {
			// A participant resolved it after the listing; nothing to sweep.
			continue
		}
		sess.Status = domain.StatusMissed
		sess.Active = false
		sess.UpdatedAt = now
		s.onTerminal(ctx, sess, telemetry.EventCallMissed)
		swept++
	}
	return swept, nil
}

// WatchIncoming returns a live view of the sessions currently ringing for
// calleeID, refreshed on every session change the callee participates in.
// This is what drives the incoming-call screen: the view is non-empty exactly
// when something should ring. The channel closes when ctx ends.
func (s *Service) WatchIncoming(ctx context.Context, calleeID string) (<-chan []*domain.CallSession, error) {
	sub := s.hub.Subscribe(ctx, storesync.CollectionCallSessions, calleeID)

	snapshot, err := s.sessions.ListRinging(ctx, calleeID)
	if err != nil {
		sub.Cancel()
		return nil, db.Unavailable(err)
	}

	out := make(chan []*domain.CallSession, 1)
	out <- snapshot

	go func() {
		defer close(out)
		defer sub.Cancel()
		for range sub.Events() {
			list, err := s.sessions.ListRinging(ctx, calleeID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn().Err(err).Str("callee_id", calleeID).Msg("incoming-call view refresh failed")
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

// onTerminal runs the side effects of a terminal transition: history for both
// participants and a lifecycle event. Recorder failures are logged, not
// propagated; the store still holds the authoritative terminal status.
func (s *Service) onTerminal(ctx context.Context, sess *domain.CallSession, eventType string) {
	if err := s.recorder.OnTerminal(ctx, sess); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("history recording failed")
	}
	telemetry.EmitAsync(s.emitter, s.event(eventType, sess))
}

func (s *Service) logBenign(sess *domain.CallSession, msg string) {
	s.log.Debug().
		Str("session_id", sess.ID).
		Str("status", string(sess.Status)).
		Msg(msg)
}

func (s *Service) event(eventType string, sess *domain.CallSession) *telemetry.CallEvent {
	return &telemetry.CallEvent{
		EventType:       eventType,
		SessionID:       sess.ID,
		CallerID:        sess.CallerID,
		CalleeID:        sess.CalleeID,
		Status:          string(sess.Status),
		DurationSeconds: sess.Duration(),
		Source:          "core",
		CreatedAt:       s.now(),
	}
}

// randomSuffix returns the short random tail of a session id.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
