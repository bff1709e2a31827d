// Package media defines the boundary to the peer-to-peer media pipeline.
// The core decides when a session is eligible for media; how audio/video
// actually flows is the transport's business.
package media

import (
	"context"

	"github.com/rs/zerolog"
)

// Transport is invoked once a call session reaches the active state.
type Transport interface {
	Start(ctx context.Context, sessionID, localAccountID, remoteAccountID string) error
}

// LogTransport is a Transport that only logs. Used by shells without a media
// stack and by the sweeper, which never activates sessions.
type LogTransport struct {
	Log zerolog.Logger
}

func (t LogTransport) Start(ctx context.Context, sessionID, localAccountID, remoteAccountID string) error {
	t.Log.Info().
		Str("session_id", sessionID).
		Str("local", localAccountID).
		Str("remote", remoteAccountID).
		Msg("media transport start")
	return nil
}
