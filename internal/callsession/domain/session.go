package domain

import (
	"fmt"
	"time"
)

// Status is the call-session state. Sessions start ringing and end in exactly
// one of the terminal states; terminal states absorb all further transitions.
type Status string

const (
	StatusRinging  Status = "ringing"
	StatusActive   Status = "active"
	StatusDeclined Status = "declined"
	StatusMissed   Status = "missed"
	StatusEnded    Status = "ended"
)

// MediaKindVideo is the only media kind the client initiates today.
const MediaKindVideo = "video"

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusMissed, StatusEnded:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal transition:
// ringing -> active | declined | missed, active -> ended.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusRinging:
		return to == StatusActive || to == StatusDeclined || to == StatusMissed
	case StatusActive:
		return to == StatusEnded
	}
	return false
}

// CallSession is one call attempt, shared between both participants through
// the store. Identity fields (id, participants) are immutable once created;
// either participant may transition the status.
type CallSession struct {
	ID         string
	CallerID   string
	CalleeID   string
	CallerName string // captured at creation, never re-resolved
	Status     Status
	MediaKind  string
	Active     bool // liveness flag, cleared on terminal transition
	AnsweredAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Duration returns the call length in whole seconds: last update minus the
// moment the session went active, zero if it never did.
func (s *CallSession) Duration() int {
	if s.AnsweredAt == nil {
		return 0
	}
	d := s.UpdatedAt.Sub(*s.AnsweredAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// NewSessionID composes the session id the initiator chooses before the
// record exists: a wall-clock millisecond timestamp plus a short random
// suffix. No coordination, negligible collision probability, and because the
// id is fixed up front a retried write cannot mint a second session for the
// same call attempt.
func NewSessionID(now time.Time, suffix string) string {
	return fmt.Sprintf("call_%d_%s", now.UnixMilli(), suffix)
}
