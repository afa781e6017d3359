// Package ratelimit implements per-caller sliding-window call limits.
package ratelimit

import (
	"sync"
	"time"
)

// Limits caps how often a single caller number may start webhook turns.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// Limiter tracks recent call timestamps per caller number. Entries
// older than a day are pruned on every check, so memory stays bounded
// by the day limit times the active caller count.
type Limiter struct {
	mu      sync.Mutex
	limits  Limits
	history map[string][]time.Time

	now func() time.Time
}

func NewLimiter(limits Limits) *Limiter {
	if limits.PerMinute <= 0 {
		limits.PerMinute = 10
	}
	if limits.PerHour <= 0 {
		limits.PerHour = 100
	}
	if limits.PerDay <= 0 {
		limits.PerDay = 1000
	}
	return &Limiter{
		limits:  limits,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an attempt for the caller and reports whether it is
// within every window. Denied attempts are not recorded.
func (l *Limiter) Allow(caller string) bool {
	if caller == "" {
		caller = "unknown"
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	dayAgo := now.Add(-24 * time.Hour)

	kept := l.history[caller][:0]
	for _, t := range l.history[caller] {
		if t.After(dayAgo) {
			kept = append(kept, t)
		}
	}

	var lastMinute, lastHour int
	minuteAgo := now.Add(-time.Minute)
	hourAgo := now.Add(-time.Hour)
	for _, t := range kept {
		if t.After(minuteAgo) {
			lastMinute++
		}
		if t.After(hourAgo) {
			lastHour++
		}
	}

	if lastMinute >= l.limits.PerMinute || lastHour >= l.limits.PerHour || len(kept) >= l.limits.PerDay {
		l.history[caller] = kept
		return false
	}

	l.history[caller] = append(kept, now)
	return true
}
