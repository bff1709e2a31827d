package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// notifyChannel is the Postgres NOTIFY channel the store triggers publish on.
const notifyChannel = "wavewords_changes"

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Listener holds a dedicated Postgres connection in LISTEN mode and publishes
// decoded change payloads into a Hub. The stdlib pool cannot surface
// notifications, so the listener dials its own native pgx connection.
type Listener struct {
	dsn string
	hub *Hub
	log zerolog.Logger
}

// NewListener returns a Listener that feeds hub from the store at dsn.
func NewListener(dsn string, hub *Hub, log zerolog.Logger) *Listener {
	return &Listener{dsn: dsn, hub: hub, log: log}
}

// Run listens for change notifications until ctx ends, reconnecting with
// backoff on connection failures. Notifications sent while disconnected are
// lost, which is why views re-read their snapshot on subscribe.
func (l *Listener) Run(ctx context.Context) error {
	backoff := reconnectMin
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Warn().Err(err).Dur("retry_in", backoff).Msg("change feed disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	l.log.Info().Str("channel", notifyChannel).Msg("change feed connected")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var c Change
		if err := json.Unmarshal([]byte(n.Payload), &c); err != nil {
			l.log.Error().Err(err).Str("payload", n.Payload).Msg("malformed change payload")
			continue
		}
		l.hub.Publish(c)
	}
}
