// Package telemetry emits call lifecycle events to the analytics firehose.
// Emission is best-effort: a down broker never blocks or fails a call.
package telemetry

import "time"

// Event types for the call lifecycle.
const (
	EventCallInitiated = "call.initiated"
	EventCallAnswered  = "call.answered"
	EventCallDeclined  = "call.declined"
	EventCallMissed    = "call.missed"
	EventCallEnded     = "call.ended"
)

// CallEvent is the JSON payload written to the call-events topic.
type CallEvent struct {
	EventType       string    `json:"eventType"`
	SessionID       string    `json:"sessionId"`
	CallerID        string    `json:"callerId"`
	CalleeID        string    `json:"calleeId"`
	Status          string    `json:"status"`
	DurationSeconds int       `json:"durationSeconds"`
	Source          string    `json:"source"` // emitting component, e.g. "core" or "sweeper"
	CreatedAt       time.Time `json:"createdAt"`
}
