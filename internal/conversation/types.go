package conversation

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversational turn. Once appended to a
// conversation it is never modified.
type Message struct {
	Role      Role                 `json:"role"`
	Content   string               `json:"content"`
	Timestamp time.Time            `json:"timestamp"`
	Metadata  map[string]MetaValue `json:"metadata,omitempty"`
}

// Conversation aggregates the turns of one telephone call. The call SID
// is the primary key and never changes after creation.
type Conversation struct {
	CallSID    string               `json:"call_sid"`
	FromNumber string               `json:"from_number"`
	ToNumber   string               `json:"to_number"`
	StartTime  time.Time            `json:"start_time"`
	Messages   []Message            `json:"messages"`
	IsActive   bool                 `json:"is_active"`
	Metadata   map[string]MetaValue `json:"metadata"`
}

// Stats is a point-in-time summary of one conversation, computed on
// demand from live state.
type Stats struct {
	CallSID           string               `json:"call_sid"`
	FromNumber        string               `json:"from_number"`
	ToNumber          string               `json:"to_number"`
	StartTime         time.Time            `json:"start_time"`
	IsActive          bool                 `json:"is_active"`
	TotalMessages     int                  `json:"total_messages"`
	UserMessages      int                  `json:"user_messages"`
	AssistantMessages int                  `json:"assistant_messages"`
	DurationSeconds   float64              `json:"duration_seconds"`
	Metadata          map[string]MetaValue `json:"metadata"`
}

// SearchResult annotates a conversation summary with the first message
// that matched the query.
type SearchResult struct {
	Stats
	MatchingMessage string `json:"matching_message"`
}

// Snapshot is a complete copy of one conversation, suitable for
// archival or export.
type Snapshot struct {
	CallSID    string               `json:"call_sid"`
	FromNumber string               `json:"from_number"`
	ToNumber   string               `json:"to_number"`
	StartTime  time.Time            `json:"start_time"`
	IsActive   bool                 `json:"is_active"`
	Metadata   map[string]MetaValue `json:"metadata"`
	Messages   []Message            `json:"messages"`
}
