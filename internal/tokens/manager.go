package tokens

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"token-radar/internal/domain"
)

// TrendingSource lists currently trending pairs for dynamic tracking.
type TrendingSource interface {
	TrendingPairs(ctx context.Context, limit int) ([]domain.TokenPair, error)
}

// Manager holds the set of tracked token symbols. In static mode the
// set comes from configuration; in dynamic mode it refreshes from the
// trending source on an interval, falling back to the static list when
// the source fails or returns nothing.
type Manager struct {
	mu              sync.RWMutex
	symbols         []string
	metadata        map[string]domain.TokenPair
	static          []string
	source          TrendingSource
	dynamic         bool
	maxTokens       int
	refreshInterval time.Duration
	lastRefresh     time.Time
	now             func() time.Time
}

func NewManager(static []string, source TrendingSource, dynamic bool, maxTokens int, refreshInterval time.Duration) *Manager {
	normalized := make([]string, 0, len(static))
	for _, symbol := range static {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol != "" {
			normalized = append(normalized, symbol)
		}
	}
	if maxTokens <= 0 {
		maxTokens = 20
	}
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Minute
	}
	return &Manager{
		symbols:         append([]string(nil), normalized...),
		metadata:        map[string]domain.TokenPair{},
		static:          normalized,
		source:          source,
		dynamic:         dynamic && source != nil,
		maxTokens:       maxTokens,
		refreshInterval: refreshInterval,
		now:             time.Now,
	}
}

// Tokens returns the tracked symbols, refreshing first when the
// dynamic list is stale.
func (m *Manager) Tokens(ctx context.Context) []string {
	if m.shouldRefresh() {
		m.Refresh(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.symbols...)
}

func (m *Manager) shouldRefresh() bool {
	if !m.dynamic {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefresh.IsZero() || m.now().Sub(m.lastRefresh) > m.refreshInterval
}

// Refresh replaces the tracked set with the current trending pairs.
// On source failure the previous set stays, or the static list when
// nothing was tracked yet.
func (m *Manager) Refresh(ctx context.Context) {
	if !m.dynamic {
		return
	}

	pairs, err := m.source.TrendingPairs(ctx, m.maxTokens)
	if err != nil || len(pairs) == 0 {
		if err != nil {
			log.Printf("token refresh failed: %v", err)
		}
		m.mu.Lock()
		if len(m.symbols) == 0 {
			m.symbols = append([]string(nil), m.static...)
		}
		m.lastRefresh = m.now()
		m.mu.Unlock()
		return
	}

	symbols := make([]string, 0, len(pairs))
	metadata := make(map[string]domain.TokenPair, len(pairs))
	for _, pair := range pairs {
		symbols = append(symbols, pair.TokenSymbol)
		metadata[pair.TokenSymbol] = pair
	}

	m.mu.Lock()
	m.symbols = symbols
	m.metadata = metadata
	m.lastRefresh = m.now()
	m.mu.Unlock()

	log.Printf("refreshed token list: %d tokens", len(symbols))
}

// Add inserts a symbol if it is not already tracked.
func (m *Manager) Add(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.symbols {
		if existing == symbol {
			return false
		}
	}
	m.symbols = append(m.symbols, symbol)
	return true
}

// Remove drops a symbol and its metadata.
func (m *Manager) Remove(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.symbols {
		if existing == symbol {
			m.symbols = append(m.symbols[:i], m.symbols[i+1:]...)
			delete(m.metadata, symbol)
			return true
		}
	}
	return false
}

// Contains reports whether the symbol is tracked.
func (m *Manager) Contains(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, existing := range m.symbols {
		if existing == symbol {
			return true
		}
	}
	return false
}

// Metadata returns the trending-pair record for a symbol, if known.
func (m *Manager) Metadata(symbol string) (domain.TokenPair, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	m.mu.RLock()
	defer m.mu.RUnlock()
	pair, ok := m.metadata[symbol]
	return pair, ok
}

// Pairs returns the metadata for every tracked symbol that has any.
func (m *Manager) Pairs() []domain.TokenPair {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.TokenPair, 0, len(m.metadata))
	for _, symbol := range m.symbols {
		if pair, ok := m.metadata[symbol]; ok {
			out = append(out, pair)
		}
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.symbols)
}

// Status summarizes the registry for the stats endpoint.
func (m *Manager) Status() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := map[string]interface{}{
		"token_count":  len(m.symbols),
		"tokens":       append([]string(nil), m.symbols...),
		"dynamic_mode": m.dynamic,
	}
	if !m.lastRefresh.IsZero() {
		status["last_refresh"] = m.lastRefresh.UTC().Format(time.RFC3339)
	}
	if m.dynamic {
		status["refresh_interval_minutes"] = int(m.refreshInterval.Minutes())
	}
	return status
}
