package telemetry

import "context"

// EventEmitter emits call events (e.g. to Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *CallEvent) error
}
