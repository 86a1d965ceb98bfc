package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"token-radar/internal/domain"
)

type stubTrending struct {
	pairs []domain.TokenPair
	err   error
	calls int
}

func (s *stubTrending) TrendingPairs(ctx context.Context, limit int) ([]domain.TokenPair, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.pairs) > limit {
		return s.pairs[:limit], nil
	}
	return s.pairs, nil
}

func TestStaticModeNeverRefreshes(t *testing.T) {
	source := &stubTrending{pairs: []domain.TokenPair{{TokenSymbol: "MOON"}}}
	m := NewManager([]string{"doge", " shib ", ""}, source, false, 20, time.Minute)

	tokens := m.Tokens(context.Background())
	if len(tokens) != 2 || tokens[0] != "DOGE" || tokens[1] != "SHIB" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
	if source.calls != 0 {
		t.Fatalf("static mode hit the trending source %d times", source.calls)
	}
}

func TestDynamicModeRefreshesWhenStale(t *testing.T) {
	source := &stubTrending{pairs: []domain.TokenPair{
		{TokenSymbol: "MOON", TokenAddress: "0xaaa"},
		{TokenSymbol: "WIF", TokenAddress: "0xbbb"},
	}}
	m := NewManager([]string{"DOGE"}, source, true, 20, 30*time.Minute)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	tokens := m.Tokens(context.Background())
	if len(tokens) != 2 || tokens[0] != "MOON" {
		t.Fatalf("expected trending tokens, got %v", tokens)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 refresh, got %d", source.calls)
	}

	// A second read within the interval reuses the cached list.
	m.Tokens(context.Background())
	if source.calls != 1 {
		t.Fatalf("expected no refresh within interval, got %d calls", source.calls)
	}

	// Past the interval the list refreshes again.
	m.now = func() time.Time { return base.Add(31 * time.Minute) }
	m.Tokens(context.Background())
	if source.calls != 2 {
		t.Fatalf("expected refresh after interval, got %d calls", source.calls)
	}
}

func TestRefreshFailureFallsBackToStatic(t *testing.T) {
	source := &stubTrending{err: errors.New("upstream down")}
	m := NewManager([]string{"DOGE", "PEPE"}, source, true, 20, time.Minute)
	// Dynamic managers start with the static list until first refresh.
	m.symbols = nil

	tokens := m.Tokens(context.Background())
	if len(tokens) != 2 || tokens[0] != "DOGE" {
		t.Fatalf("expected static fallback, got %v", tokens)
	}
}

func TestRefreshKeepsPreviousListOnFailure(t *testing.T) {
	source := &stubTrending{pairs: []domain.TokenPair{{TokenSymbol: "MOON"}}}
	m := NewManager([]string{"DOGE"}, source, true, 20, time.Minute)

	m.Refresh(context.Background())
	source.err = errors.New("upstream down")
	m.Refresh(context.Background())

	if !m.Contains("MOON") {
		t.Fatal("expected previous dynamic list retained after failed refresh")
	}
}

func TestAddRemoveContains(t *testing.T) {
	m := NewManager([]string{"DOGE"}, nil, false, 20, time.Minute)

	if !m.Add("pepe") {
		t.Fatal("expected add to succeed")
	}
	if m.Add("PEPE") {
		t.Fatal("expected duplicate add to fail")
	}
	if !m.Contains("pepe") {
		t.Fatal("expected case-insensitive contains")
	}
	if !m.Remove("PEPE") {
		t.Fatal("expected remove to succeed")
	}
	if m.Remove("PEPE") {
		t.Fatal("expected second remove to fail")
	}
	if m.Count() != 1 {
		t.Fatalf("count = %d, want 1", m.Count())
	}
}

func TestMetadataAndPairs(t *testing.T) {
	source := &stubTrending{pairs: []domain.TokenPair{
		{TokenSymbol: "MOON", TokenAddress: "0xaaa", DEX: "uniswap"},
	}}
	m := NewManager(nil, source, true, 20, time.Minute)
	m.Refresh(context.Background())

	pair, ok := m.Metadata("moon")
	if !ok || pair.TokenAddress != "0xaaa" {
		t.Fatalf("unexpected metadata: %+v ok=%v", pair, ok)
	}
	if pairs := m.Pairs(); len(pairs) != 1 || pairs[0].DEX != "uniswap" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestStatusFields(t *testing.T) {
	m := NewManager([]string{"DOGE"}, nil, false, 20, time.Minute)

	status := m.Status()
	if status["token_count"] != 1 {
		t.Fatalf("unexpected status: %v", status)
	}
	if status["dynamic_mode"] != false {
		t.Fatalf("expected static mode, got %v", status)
	}
}
