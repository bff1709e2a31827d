// Package sync delivers change notifications from the shared store to
// subscribed views. Postgres triggers publish one JSON payload per row
// mutation on a single NOTIFY channel; the Listener fans those out to
// scope-filtered subscriptions. Views layer snapshot-then-deltas on top:
// subscribe first, load the snapshot, then apply deltas, so no change
// between the two can be lost. Delivery is at-least-once and there is no
// ordering guarantee between independent collections.
package sync

// Collection names as published by the store triggers.
const (
	CollectionAccounts       = "accounts"
	CollectionContacts       = "contacts"
	CollectionCallSessions   = "callSessions"
	CollectionHistoryEntries = "historyEntries"
)

// Op is the kind of change applied to a document.
type Op string

const (
	OpAdded    Op = "insert"
	OpModified Op = "update"
	OpRemoved  Op = "delete"
)

// Change is one incremental notification for a document.
type Change struct {
	Collection string   `json:"collection"`
	Op         Op       `json:"op"`
	ID         string   `json:"id"`
	// Scopes holds the account ids whose subscriptions this change belongs
	// to: the owner for contacts and history, both participants for sessions.
	Scopes []string `json:"scopes"`
}

// InScope reports whether the change is visible to a subscription scoped to
// the given account id. An empty scope sees the whole collection.
func (c Change) InScope(scope string) bool {
	if scope == "" {
		return true
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
