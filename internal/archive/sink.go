// Package archive persists finished conversations for later analysis.
package archive

import (
	"context"
	"strings"

	"github.com/voxline/callbot/internal/conversation"
)

// Sink receives conversation snapshots when calls complete.
type Sink interface {
	SaveConversation(ctx context.Context, snap conversation.Snapshot) error
	Close() error
}

// NewSink creates a postgres-backed sink when configured, otherwise a
// no-op sink.
func NewSink(ctx context.Context, databaseURL string) (Sink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NoopSink{}, nil
	}
	return NewPostgresSink(ctx, databaseURL)
}

// NoopSink discards snapshots; used when no archive database is
// configured.
type NoopSink struct{}

func (NoopSink) SaveConversation(context.Context, conversation.Snapshot) error { return nil }
func (NoopSink) Close() error                                                  { return nil }
