package ratelimit

import (
	"sync"
	"time"
)

// Stats mirrors the X-RateLimit-* response headers.
type Stats struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// Limiter admits at most maxRequests per client id within a trailing
// window. Denied requests are not recorded, so a client at the limit
// regains capacity as old timestamps age out instead of ratcheting
// further behind.
type Limiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	now     func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		clients: map[string][]time.Time{},
		now:     time.Now,
	}
}

// Allow prunes the client's window, admits the request if capacity
// remains, and records it. Stats reflect the state before the new
// request is counted. The reset timestamp is now+window, an
// approximation of true per-oldest-entry expiry.
func (l *Limiter) Allow(clientID string, maxRequests int, window time.Duration) (bool, Stats) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	kept := l.clients[clientID][:0]
	for _, ts := range l.clients[clientID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.clients[clientID] = kept

	remaining := maxRequests - len(kept)
	if remaining < 0 {
		remaining = 0
	}
	stats := Stats{
		Limit:     maxRequests,
		Remaining: remaining,
		Reset:     now.Add(window).Unix(),
	}

	if len(kept) >= maxRequests {
		return false, stats
	}

	l.clients[clientID] = append(kept, now)
	return true, stats
}

// Sweep drops client windows whose newest entry is older than idleFor.
// Bounds growth across the client-id space between scan cycles.
func (l *Limiter) Sweep(idleFor time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleFor)
	removed := 0
	for id, window := range l.clients {
		if len(window) == 0 || window[len(window)-1].Before(cutoff) {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// ClientCount reports how many client windows are currently tracked.
func (l *Limiter) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
