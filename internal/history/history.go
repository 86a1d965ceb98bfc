package history

import (
	"sync"
	"time"

	"token-radar/internal/domain"
)

// DefaultMaxEntries caps per-token history growth. Once full, the
// oldest snapshots are discarded; the retained suffix stays append-only.
const DefaultMaxEntries = 500

const trendThreshold = 5.0

// Store keeps an append-only sentiment time series per token.
// Appends for the same token are serialized; different tokens are
// independent.
type Store struct {
	mu         sync.RWMutex
	maxEntries int
	tokens     map[string]*tokenHistory
}

type tokenHistory struct {
	mu      sync.Mutex
	entries []domain.TokenSentiment
}

func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		maxEntries: maxEntries,
		tokens:     map[string]*tokenHistory{},
	}
}

func (s *Store) forToken(token string) *tokenHistory {
	s.mu.RLock()
	h, ok := s.tokens[token]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.tokens[token]; ok {
		return h
	}
	h = &tokenHistory{}
	s.tokens[token] = h
	return h
}

// Append records a snapshot for its token in completion order.
func (s *Store) Append(sentiment domain.TokenSentiment) {
	h := s.forToken(sentiment.Token)
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, sentiment)
	if len(h.entries) > s.maxEntries {
		h.entries = h.entries[len(h.entries)-s.maxEntries:]
	}
}

// Trend classifies the score movement over the trailing window by
// comparing the first and last snapshots inside it. Fewer than two
// snapshots in the window is insufficient data.
func (s *Store) Trend(token string, window time.Duration, now time.Time) domain.Trend {
	recent := s.Recent(token, window, now)
	if len(recent) < 2 {
		return domain.TrendInsufficientData
	}

	first := recent[0].SentimentScore
	last := recent[len(recent)-1].SentimentScore
	switch {
	case last > first+trendThreshold:
		return domain.TrendRising
	case last < first-trendThreshold:
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}

// Average returns the mean score over the trailing window. An empty
// window reads as neutral 50.0, matching the scorer's empty-batch
// fallback.
func (s *Store) Average(token string, window time.Duration, now time.Time) float64 {
	recent := s.Recent(token, window, now)
	if len(recent) == 0 {
		return 50.0
	}

	sum := 0.0
	for _, e := range recent {
		sum += e.SentimentScore
	}
	return sum / float64(len(recent))
}

// TrendStrength measures the score change across the last ten
// snapshots, normalized to [0,1].
func (s *Store) TrendStrength(token string) float64 {
	h := s.forToken(token)
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.entries
	if len(entries) > 10 {
		entries = entries[len(entries)-10:]
	}
	if len(entries) < 2 {
		return 0.0
	}

	change := entries[len(entries)-1].SentimentScore - entries[0].SentimentScore
	if change < 0 {
		change = -change
	}
	strength := change / 50.0
	if strength > 1 {
		strength = 1
	}
	return strength
}

// Recent returns a copy of the snapshots with timestamp inside
// (now-window, now], oldest first.
func (s *Store) Recent(token string, window time.Duration, now time.Time) []domain.TokenSentiment {
	h := s.forToken(token)
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := now.Add(-window)
	out := []domain.TokenSentiment{}
	for _, e := range h.entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the most recent snapshot for a token, if any.
func (s *Store) Latest(token string) (domain.TokenSentiment, bool) {
	h := s.forToken(token)
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return domain.TokenSentiment{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len reports the number of snapshots retained for a token.
func (s *Store) Len(token string) int {
	h := s.forToken(token)
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Export snapshots the full history as token -> ordered series, for
// operational JSON dumps.
func (s *Store) Export() map[string][]domain.TokenSentiment {
	s.mu.RLock()
	tokens := make([]string, 0, len(s.tokens))
	for token := range s.tokens {
		tokens = append(tokens, token)
	}
	s.mu.RUnlock()

	out := make(map[string][]domain.TokenSentiment, len(tokens))
	for _, token := range tokens {
		h := s.forToken(token)
		h.mu.Lock()
		out[token] = append([]domain.TokenSentiment(nil), h.entries...)
		h.mu.Unlock()
	}
	return out
}
