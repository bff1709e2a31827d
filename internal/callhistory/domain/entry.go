package domain

import "time"

// DefaultLimit is the most-recent-N cap on history entries per account.
const DefaultLimit = 50

// Direction is the call's direction from the owning account's perspective.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionMissed   Direction = "missed"
)

// HistoryEntry is one account's record of a terminated call session. Derived
// at terminal time and never mutated afterwards.
type HistoryEntry struct {
	ID              string
	AccountID       string
	SessionID       string
	CounterpartName string
	Direction       Direction
	DurationSeconds int
	OccurredAt      time.Time
}
