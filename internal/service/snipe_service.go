package service

import (
	"context"
	"log"
	"sort"
	"time"

	"token-radar/internal/cache"
	"token-radar/internal/domain"
	"token-radar/internal/scorer"

	"go.opentelemetry.io/otel/trace"
)

// PairSource lists trending pairs to scan.
type PairSource interface {
	TrendingPairs(ctx context.Context, limit int) ([]domain.TokenPair, error)
}

// VolumeSource fetches the current volume snapshot for a symbol.
type VolumeSource interface {
	TokenMetrics(ctx context.Context, symbol string) (domain.VolumeMetrics, error)
}

// WalletSource fetches deployer-related wallet balances for a token.
type WalletSource interface {
	DevWallets(ctx context.Context, tokenAddress string) (domain.DevWalletMetrics, error)
}

// SentimentReader serves a token's sentiment snapshot.
type SentimentReader interface {
	GetTokenSentiment(ctx context.Context, token string, useCache bool) (domain.TokenSentiment, error)
}

// SnipeService scans trending pairs and composes per-pair snipe
// signals from volume, sentiment, dev-wallet, and liquidity scores.
type SnipeService struct {
	tracer    trace.Tracer
	pairs     PairSource
	volumes   VolumeSource
	wallets   WalletSource
	sentiment SentimentReader
	cache     *cache.SentimentCache
	maxPairs  int
	now       func() time.Time
}

func NewSnipeService(
	tracer trace.Tracer,
	pairs PairSource,
	volumes VolumeSource,
	wallets WalletSource,
	sentiment SentimentReader,
	sentimentCache *cache.SentimentCache,
	maxPairs int,
) *SnipeService {
	if maxPairs <= 0 {
		maxPairs = 20
	}
	return &SnipeService{
		tracer:    tracer,
		pairs:     pairs,
		volumes:   volumes,
		wallets:   wallets,
		sentiment: sentiment,
		cache:     sentimentCache,
		maxPairs:  maxPairs,
		now:       time.Now,
	}
}

// ScanTokens evaluates the current trending pairs and caches the
// resulting signals, strongest first. A pair without volume data is
// skipped; missing wallet or sentiment data degrades to neutral
// contributions rather than dropping the pair.
func (s *SnipeService) ScanTokens(ctx context.Context) ([]domain.SnipeSignal, error) {
	ctx, span := s.tracer.Start(ctx, "snipe-service.scan-tokens")
	defer span.End()

	pairs, err := s.pairs.TrendingPairs(ctx, s.maxPairs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	signals := make([]domain.SnipeSignal, 0, len(pairs))
	for _, pair := range pairs {
		volume, err := s.volumes.TokenMetrics(ctx, pair.TokenSymbol)
		if err != nil {
			log.Printf("skipping %s: no volume data: %v", pair.TokenSymbol, err)
			continue
		}

		var wallets domain.DevWalletMetrics
		if s.wallets != nil && pair.TokenAddress != "" {
			wallets, err = s.wallets.DevWallets(ctx, pair.TokenAddress)
			if err != nil {
				log.Printf("dev wallet lookup failed for %s: %v", pair.TokenSymbol, err)
				wallets = domain.DevWalletMetrics{}
			}
		}

		sentimentScore := 50.0
		if s.sentiment != nil {
			if snapshot, err := s.sentiment.GetTokenSentiment(ctx, pair.TokenSymbol, true); err == nil {
				sentimentScore = snapshot.SentimentScore
			}
		}

		signals = append(signals, scorer.BuildSnipeSignal(pair, volume, wallets, sentimentScore, now))
	}

	sort.Slice(signals, func(i, j int) bool {
		return signals[i].OverallScore > signals[j].OverallScore
	})

	if len(signals) > 0 {
		s.cache.SetSnipeSignals(ctx, signals)
	}
	return signals, nil
}

// GetSignals serves the cached signal list when allowed, rescanning
// otherwise.
func (s *SnipeService) GetSignals(ctx context.Context, useCache bool) ([]domain.SnipeSignal, error) {
	ctx, span := s.tracer.Start(ctx, "snipe-service.get-signals")
	defer span.End()

	if useCache {
		if cached, ok := s.cache.GetSnipeSignals(ctx); ok {
			return cached, nil
		}
	}
	return s.ScanTokens(ctx)
}
