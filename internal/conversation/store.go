package conversation

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	metaLastActivity = "last_activity"
	metaMessageCount = "message_count"
	metaEndTime      = "end_time"
	metaDuration     = "duration"
)

// Options controls store retention bounds.
type Options struct {
	// MaxConversations caps how many conversations are retained. Active
	// conversations are never evicted, so the cap can be exceeded while
	// every entry is still live.
	MaxConversations int
	// CleanupInterval throttles the opportunistic eviction pass.
	CleanupInterval time.Duration
	// MaxAge is the retention window for ended conversations.
	MaxAge time.Duration
}

// Store owns all in-flight conversations, keyed by call SID. Eviction
// runs opportunistically on access rather than on a timer, so the store
// holds no goroutines of its own.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	order         []string

	maxConversations int
	cleanupInterval  time.Duration
	maxAge           time.Duration
	lastCleanup      time.Time

	onEvict func(evicted int)

	now func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.MaxConversations <= 0 {
		opts.MaxConversations = 1000
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Hour
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 24 * time.Hour
	}
	now := time.Now
	return &Store{
		conversations:    make(map[string]*Conversation),
		maxConversations: opts.MaxConversations,
		cleanupInterval:  opts.CleanupInterval,
		maxAge:           opts.MaxAge,
		lastCleanup:      now(),
		now:              now,
	}
}

// SetEvictHook registers a callback invoked after an eviction pass that
// removed at least one conversation. The hook runs while the store lock
// is held and must not call back into the store.
func (s *Store) SetEvictHook(hook func(evicted int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = hook
}

// GetOrCreate returns the conversation for callSID, creating it on
// first sight. The returned pointer is shared with the store: callers
// must mutate it only through store methods. Returns nil only for an
// empty callSID, which indicates a caller bug.
func (s *Store) GetOrCreate(callSID, fromNumber, toNumber string) *Conversation {
	if callSID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	return s.getOrCreateLocked(callSID, fromNumber, toNumber)
}

func (s *Store) getOrCreateLocked(callSID, fromNumber, toNumber string) *Conversation {
	if c, ok := s.conversations[callSID]; ok {
		return c
	}
	if fromNumber == "" {
		fromNumber = "unknown"
	}
	if toNumber == "" {
		toNumber = "unknown"
	}
	c := &Conversation{
		CallSID:    callSID,
		FromNumber: fromNumber,
		ToNumber:   toNumber,
		StartTime:  s.now().UTC(),
		IsActive:   true,
		Metadata:   make(map[string]MetaValue),
	}
	s.conversations[callSID] = c
	s.order = append(s.order, callSID)
	return c
}

// AppendMessage records one turn on the conversation, creating it if
// needed. A false return means the input violated the contract (empty
// SID or unrecognized role); it never aborts the calling flow.
func (s *Store) AppendMessage(callSID string, role Role, content string, metadata map[string]MetaValue) bool {
	if callSID == "" {
		return false
	}
	if role != RoleUser && role != RoleAssistant {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()

	c := s.getOrCreateLocked(callSID, "", "")
	now := s.now().UTC()
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
		Metadata:  copyMeta(metadata),
	})
	c.Metadata[metaLastActivity] = Time(now)
	c.Metadata[metaMessageCount] = Number(float64(len(c.Messages)))
	return true
}

// MessageCount reports how many messages the conversation holds. An
// unknown SID counts as zero.
func (s *Store) MessageCount(callSID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[callSID]
	if !ok {
		return 0
	}
	return len(c.Messages)
}

// History returns the most recent limit messages in conversational
// order. limit <= 0 returns everything. An unknown SID yields an empty
// history and does not create a conversation.
func (s *Store) History(callSID string, limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[callSID]
	if !ok {
		return nil
	}
	msgs := c.Messages
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// End marks the conversation inactive and stamps end time and duration.
// Returns false when the SID is unknown or the conversation has already
// ended; activity never transitions back.
func (s *Store) End(callSID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[callSID]
	if !ok || !c.IsActive {
		return false
	}
	now := s.now().UTC()
	c.IsActive = false
	c.Metadata[metaEndTime] = Time(now)
	c.Metadata[metaDuration] = Number(now.Sub(c.StartTime).Seconds())
	return true
}

// Stats computes a live summary. The zero Stats and ok=false are
// returned for an unknown SID.
func (s *Store) Stats(callSID string) (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[callSID]
	if !ok {
		return Stats{}, false
	}
	return s.statsLocked(c), true
}

func (s *Store) statsLocked(c *Conversation) Stats {
	var user, assistant int
	for _, m := range c.Messages {
		switch m.Role {
		case RoleUser:
			user++
		case RoleAssistant:
			assistant++
		}
	}
	return Stats{
		CallSID:           c.CallSID,
		FromNumber:        c.FromNumber,
		ToNumber:          c.ToNumber,
		StartTime:         c.StartTime,
		IsActive:          c.IsActive,
		TotalMessages:     len(c.Messages),
		UserMessages:      user,
		AssistantMessages: assistant,
		DurationSeconds:   s.now().UTC().Sub(c.StartTime).Seconds(),
		Metadata:          copyMeta(c.Metadata),
	}
}

// ListRecent returns up to limit conversation summaries, newest start
// time first. Ties keep insertion order.
func (s *Store) ListRecent(limit int) []Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Stats, 0, len(s.order))
	for _, sid := range s.order {
		out = append(out, s.statsLocked(s.conversations[sid]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Search scans message content for a case-insensitive substring match,
// walking conversations in insertion order and stopping as soon as
// limit results are collected.
func (s *Store) Search(query string, limit int) []SearchResult {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []SearchResult
	for _, sid := range s.order {
		if limit > 0 && len(results) >= limit {
			break
		}
		c := s.conversations[sid]
		for _, m := range c.Messages {
			if strings.Contains(strings.ToLower(m.Content), needle) {
				results = append(results, SearchResult{
					Stats:           s.statsLocked(c),
					MatchingMessage: m.Content,
				})
				break
			}
		}
	}
	return results
}

// Export copies the full conversation for archival.
func (s *Store) Export(callSID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[callSID]
	if !ok {
		return Snapshot{}, false
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return Snapshot{
		CallSID:    c.CallSID,
		FromNumber: c.FromNumber,
		ToNumber:   c.ToNumber,
		StartTime:  c.StartTime,
		IsActive:   c.IsActive,
		Metadata:   copyMeta(c.Metadata),
		Messages:   msgs,
	}, true
}

// Len reports how many conversations are currently retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// evictLocked runs the throttled eviction pass: first an age sweep of
// ended conversations, then a capacity sweep removing the oldest ended
// conversations while over the cap. Active conversations are never
// touched, so the cap is a soft bound under pressure.
func (s *Store) evictLocked() {
	now := s.now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	cutoff := now.UTC().Add(-s.maxAge)
	evicted := 0
	for sid, c := range s.conversations {
		if !c.IsActive && c.StartTime.Before(cutoff) {
			delete(s.conversations, sid)
			evicted++
		}
	}

	if len(s.conversations) > s.maxConversations {
		inactive := make([]*Conversation, 0)
		for _, c := range s.conversations {
			if !c.IsActive {
				inactive = append(inactive, c)
			}
		}
		sort.Slice(inactive, func(i, j int) bool {
			return inactive[i].StartTime.Before(inactive[j].StartTime)
		})
		for _, c := range inactive {
			if len(s.conversations) <= s.maxConversations {
				break
			}
			delete(s.conversations, c.CallSID)
			evicted++
		}
	}

	if evicted > 0 {
		s.compactOrderLocked()
		if s.onEvict != nil {
			s.onEvict(evicted)
		}
	}
}

func (s *Store) compactOrderLocked() {
	kept := s.order[:0]
	for _, sid := range s.order {
		if _, ok := s.conversations[sid]; ok {
			kept = append(kept, sid)
		}
	}
	s.order = kept
}

func copyMeta(m map[string]MetaValue) map[string]MetaValue {
	if m == nil {
		return nil
	}
	out := make(map[string]MetaValue, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
