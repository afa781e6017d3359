package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxline/callbot/internal/conversation"
)

// PostgresSink stores conversation snapshots in PostgreSQL.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresSink{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS archived_conversations (
			id TEXT PRIMARY KEY,
			call_sid TEXT NOT NULL,
			from_number TEXT NOT NULL,
			to_number TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			messages JSONB NOT NULL DEFAULT '[]',
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_archived_conversations_call_sid
			ON archived_conversations (call_sid, archived_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresSink) SaveConversation(ctx context.Context, snap conversation.Snapshot) error {
	metadata, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	messages, err := json.Marshal(snap.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO archived_conversations (id, call_sid, from_number, to_number, start_time, is_active, metadata, messages)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(),
		snap.CallSID,
		snap.FromNumber,
		snap.ToNumber,
		snap.StartTime,
		snap.IsActive,
		metadata,
		messages,
	)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
