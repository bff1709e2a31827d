package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	accountdomain "wavewords/core/internal/account/domain"
	"wavewords/core/internal/callsession/domain"
	contactdomain "wavewords/core/internal/contact/domain"
	storesync "wavewords/core/internal/sync"
	"wavewords/core/internal/telemetry"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*domain.CallSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*domain.CallSession{}}
}

func (r *memSessionRepo) Create(ctx context.Context, s *domain.CallSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[s.ID]; ok {
		return errors.New("duplicate session id")
	}
	cp := *s
	r.m[s.ID] = &cp
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*domain.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Transition(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = at
	if to == domain.StatusActive {
		t := at
		s.AnsweredAt = &t
	}
	if to.Terminal() {
		s.Active = false
	}
	return true, nil
}

func (r *memSessionRepo) ListRinging(ctx context.Context, calleeID string) ([]*domain.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CallSession
	for _, s := range r.m {
		if s.CalleeID == calleeID && s.Status == domain.StatusRinging {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memSessionRepo) ListStaleRinging(ctx context.Context, cutoff time.Time) ([]*domain.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CallSession
	for _, s := range r.m {
		if s.Status == domain.StatusRinging && s.CreatedAt.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memAccountRepo struct {
	m map[string]*accountdomain.Account
}

func (r *memAccountRepo) GetByID(ctx context.Context, id string) (*accountdomain.Account, error) {
	return r.m[id], nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	sessions []*domain.CallSession
}

func (f *fakeRecorder) OnTerminal(ctx context.Context, s *domain.CallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions = append(f.sessions, &cp)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeTransport struct {
	mu     sync.Mutex
	starts [][3]string
}

func (f *fakeTransport) Start(ctx context.Context, sessionID, local, remote string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, [3]string{sessionID, local, remote})
	return nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []*telemetry.CallEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, e *telemetry.CallEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

type fixture struct {
	svc       *Service
	sessions  *memSessionRepo
	recorder  *fakeRecorder
	transport *fakeTransport
	hub       *storesync.Hub
	clock     *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := newMemSessionRepo()
	accounts := &memAccountRepo{m: map[string]*accountdomain.Account{
		"acc-a": {ID: "acc-a", FirstName: "Alice", LastName: "Smith", DirectoryKey: "5550000001"},
		"acc-b": {ID: "acc-b", FirstName: "Bob", LastName: "Jones", DirectoryKey: "5550000002"},
	}}
	recorder := &fakeRecorder{}
	transport := &fakeTransport{}
	hub := storesync.NewHub()
	svc := NewService(sessions, accounts, recorder, transport, &fakeEmitter{}, hub, zerolog.Nop())

	clock := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	f := &fixture{svc: svc, sessions: sessions, recorder: recorder, transport: transport, hub: hub, clock: &clock}
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
	f.svc.now = func() time.Time { return *f.clock }
}

var bobContact = &contactdomain.Contact{
	ID: "c1", OwnerID: "acc-a", ContactUserID: "acc-b", Label: "Bob", DirectoryKey: "5550000002",
}

func TestInitiate(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Initiate(context.Background(), "acc-a", bobContact)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if sess.Status != domain.StatusRinging {
		t.Errorf("Status = %s, want ringing", sess.Status)
	}
	if sess.CallerID != "acc-a" || sess.CalleeID != "acc-b" {
		t.Errorf("participants = %s -> %s, want acc-a -> acc-b", sess.CallerID, sess.CalleeID)
	}
	if sess.CallerName != "Alice Smith" {
		t.Errorf("CallerName = %q, want denormalized %q", sess.CallerName, "Alice Smith")
	}
	if sess.MediaKind != domain.MediaKindVideo || !sess.Active {
		t.Errorf("MediaKind = %q, Active = %v, want video/true", sess.MediaKind, sess.Active)
	}

	// The record must be observable in the store before Initiate returns.
	stored, _ := f.sessions.GetByID(context.Background(), sess.ID)
	if stored == nil || stored.Status != domain.StatusRinging {
		t.Fatal("session not persisted in ringing state")
	}
}

func TestInitiate_UnknownCallerFallback(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Initiate(context.Background(), "acc-ghost", bobContact)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if sess.CallerName != accountdomain.UnknownCallerName {
		t.Errorf("CallerName = %q, want %q", sess.CallerName, accountdomain.UnknownCallerName)
	}
}

func TestInitiate_InvalidTarget(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Initiate(context.Background(), "acc-a", nil); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("nil contact err = %v, want ErrInvalidTarget", err)
	}
	broken := &contactdomain.Contact{ID: "c2", OwnerID: "acc-a", Label: "??"}
	if _, err := f.svc.Initiate(context.Background(), "acc-a", broken); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("empty target err = %v, want ErrInvalidTarget", err)
	}
}

func TestRespond_Accept(t *testing.T) {
	f := newFixture(t)
	sess, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)

	if err := f.svc.Respond(context.Background(), sess.ID, true); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	stored, _ := f.sessions.GetByID(context.Background(), sess.ID)
	if stored.Status != domain.StatusActive {
		t.Errorf("Status = %s, want active", stored.Status)
	}
	if stored.AnsweredAt == nil {
		t.Error("AnsweredAt should be set on accept")
	}
	if len(f.transport.starts) != 1 {
		t.Fatalf("transport starts = %d, want 1", len(f.transport.starts))
	}
	if got := f.transport.starts[0]; got != [3]string{sess.ID, "acc-b", "acc-a"} {
		t.Errorf("transport start = %v, want callee-local ordering", got)
	}
	if f.recorder.count() != 0 {
		t.Error("accept is not terminal; recorder must not run")
	}
}

func TestRespond_Decline(t *testing.T) {
	f := newFixture(t)
	sess, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)

	if err := f.svc.Respond(context.Background(), sess.ID, false); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	stored, _ := f.sessions.GetByID(context.Background(), sess.ID)
	if stored.Status != domain.StatusDeclined {
		t.Errorf("Status = %s, want declined", stored.Status)
	}
	if stored.Active {
		t.Error("liveness flag should clear on terminal transition")
	}
	if f.recorder.count() != 1 {
		t.Errorf("recorder calls = %d, want 1", f.recorder.count())
	}
	if len(f.transport.starts) != 0 {
		t.Error("declined call must not start media")
	}
}

func TestRespond_AlreadyResolved(t *testing.T) {
	f := newFixture(t)
	sess, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)
	if err := f.svc.Respond(context.Background(), sess.ID, false); err != nil {
		t.Fatalf("first Respond: %v", err)
	}

	err := f.svc.Respond(context.Background(), sess.ID, true)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("err = %v, want ErrAlreadyResolved", err)
	}
	stored, _ := f.sessions.GetByID(context.Background(), sess.ID)
	if stored.Status != domain.StatusDeclined {
		t.Errorf("Status changed to %s; terminal states must absorb transitions", stored.Status)
	}
	if f.recorder.count() != 1 {
		t.Errorf("recorder calls = %d, want 1 (no double record)", f.recorder.count())
	}
}

func TestRespond_NotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Respond(context.Background(), "call_0_nope", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTerminate_ActiveCall(t *testing.T) {
	f := newFixture(t)
	sess, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)
	if err := f.svc.Respond(context.Background(), sess.ID, true); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	f.advance(42 * time.Second)
	if err := f.svc.Terminate(context.Background(), sess.ID); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	stored, _ := f.sessions.GetByID(context.Background(), sess.ID)
	if stored.Status != domain.StatusEnded {
		t.Errorf("Status = %s, want ended", stored.Status)
	}
	if got := stored.Duration(); got != 42 {
		t.Errorf("Duration = %d, want 42", got)
	}
	if f.recorder.count() != 1 {
		t.Errorf("recorder calls = %d, want 1", f.recorder.count())
	}
}

func TestTerminate_RingingBecomesMissed(t *testing.T) {
	f := newFixture(t)
	sess, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)

	if err := f.svc.Terminate(context.Background(), sess.ID); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	stored, _ := f.sessions.GetByID(context.Background(), sess.ID)
	if stored.Status != domain.StatusMissed {
		t.Errorf("Status = %s, want missed when caller hangs up before answer", stored.Status)
	}
}

func TestTerminate_TerminalIsNoOp(t *testing.T) {
	f := newFixture(t)
	sess, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)
	if err := f.svc.Respond(context.Background(), sess.ID, true); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if err := f.svc.Terminate(context.Background(), sess.ID); err != nil {
		t.Fatalf("first Terminate: %v", err)
	}

	if err := f.svc.Terminate(context.Background(), sess.ID); err != nil {
		t.Fatalf("second Terminate should be a no-op, got %v", err)
	}
	if f.recorder.count() != 1 {
		t.Errorf("recorder calls = %d, want 1 (no double record)", f.recorder.count())
	}
}

func TestSweepStale(t *testing.T) {
	f := newFixture(t)
	stale, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)

	f.advance(60 * time.Second)
	fresh, _ := f.svc.Initiate(context.Background(), "acc-a", bobContact)

	swept, err := f.svc.SweepStale(context.Background(), 45*time.Second)
	if err != nil {
		t.Fatalf("SweepStale: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}

	s1, _ := f.sessions.GetByID(context.Background(), stale.ID)
	if s1.Status != domain.StatusMissed {
		t.Errorf("stale session status = %s, want missed", s1.Status)
	}
	s2, _ := f.sessions.GetByID(context.Background(), fresh.ID)
	if s2.Status != domain.StatusRinging {
		t.Errorf("fresh session status = %s, want ringing", s2.Status)
	}
	if f.recorder.count() != 1 {
		t.Errorf("recorder calls = %d, want 1", f.recorder.count())
	}
}

func TestWatchIncoming(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view, err := f.svc.WatchIncoming(ctx, "acc-b")
	if err != nil {
		t.Fatalf("WatchIncoming: %v", err)
	}
	if snapshot := <-view; len(snapshot) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", snapshot)
	}

	sess, _ := f.svc.Initiate(ctx, "acc-a", bobContact)
	f.hub.Publish(storesync.Change{
		Collection: storesync.CollectionCallSessions,
		Op:         storesync.OpAdded,
		ID:         sess.ID,
		Scopes:     []string{"acc-a", "acc-b"},
	})

	select {
	case list := <-view:
		if len(list) != 1 || list[0].ID != sess.ID {
			t.Errorf("view = %v, want the ringing session", list)
		}
		if list[0].CallerName != "Alice Smith" {
			t.Errorf("CallerName = %q; the ring screen needs it without a second lookup", list[0].CallerName)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for incoming-call view")
	}
}
