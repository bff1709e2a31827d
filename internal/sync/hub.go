package sync

import (
	"context"
	stdsync "sync"
)

// subscriptionBuffer is the per-subscription channel depth. A subscriber that
// falls this far behind loses intermediate deltas; views tolerate that by
// re-reading the snapshot, which at-least-once delivery already requires.
const subscriptionBuffer = 64

// Subscription is a cancellable handle on a stream of changes. Events is
// closed after Cancel (or when the subscribing context ends), so ranging over
// it terminates on all exit paths.
type Subscription struct {
	events chan Change
	cancel func()
}

// Events returns the change stream.
func (s *Subscription) Events() <-chan Change {
	return s.events
}

// Cancel detaches the subscription and closes Events. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
}

type subscriber struct {
	collection string
	scope      string
	events     chan Change
}

// Hub fans changes out to subscriptions. The Listener publishes into it in
// production; tests publish directly.
type Hub struct {
	mu     stdsync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers for changes on collection, filtered to scope (an
// account id; empty means the whole collection). The subscription is released
// when ctx ends or Cancel is called, whichever comes first.
func (h *Hub) Subscribe(ctx context.Context, collection, scope string) *Subscription {
	sub := &subscriber{
		collection: collection,
		scope:      scope,
		events:     make(chan Change, subscriptionBuffer),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	var once stdsync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.events)
		})
	}

	stop := context.AfterFunc(ctx, cancel)
	return &Subscription{
		events: sub.events,
		cancel: func() {
			stop()
			cancel()
		},
	}
}

// Publish delivers the change to every matching subscription. Slow
// subscribers are skipped rather than blocking the feed.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.collection != c.Collection || !c.InScope(sub.scope) {
			continue
		}
		select {
		case sub.events <- c:
		default:
		}
	}
}
