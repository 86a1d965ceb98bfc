package job

import (
	"context"
	"log"
	"time"

	"token-radar/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// SentimentAnalyzer recomputes sentiment for every tracked token.
type SentimentAnalyzer interface {
	AnalyzeAll(ctx context.Context) map[string]domain.TokenSentiment
}

// SignalScanner rescans trending pairs for snipe signals.
type SignalScanner interface {
	ScanTokens(ctx context.Context) ([]domain.SnipeSignal, error)
}

// TokenRefresher refreshes the dynamic token registry.
type TokenRefresher interface {
	Refresh(ctx context.Context)
}

// LimiterSweeper evicts idle rate-limiter client windows.
type LimiterSweeper interface {
	Sweep(idleFor time.Duration) int
}

// Scanner runs the periodic background cycles: sentiment analysis of
// tracked tokens, snipe-signal scans, token registry refreshes, and
// rate-limiter sweeps. Blocks in Start until ctx is cancelled.
type Scanner struct {
	tracer       trace.Tracer
	analyzer     SentimentAnalyzer
	signals      SignalScanner
	tokens       TokenRefresher
	limiter      LimiterSweeper
	scanInterval time.Duration
}

func NewScanner(
	tracer trace.Tracer,
	analyzer SentimentAnalyzer,
	signals SignalScanner,
	tokens TokenRefresher,
	limiter LimiterSweeper,
	scanIntervalSecs int,
) *Scanner {
	if scanIntervalSecs <= 0 {
		scanIntervalSecs = 300
	}
	return &Scanner{
		tracer:       tracer,
		analyzer:     analyzer,
		signals:      signals,
		tokens:       tokens,
		limiter:      limiter,
		scanInterval: time.Duration(scanIntervalSecs) * time.Second,
	}
}

// Start launches the background loops. Blocks until ctx is cancelled.
func (s *Scanner) Start(ctx context.Context) {
	log.Println("Background scanner starting...")

	go s.loop(ctx, "sentiment-scan", s.scanInterval, s.scanCycle)

	// Limiter sweeps run on their own slower cadence.
	go s.loop(ctx, "limiter-sweep", 10*time.Minute, func(ctx context.Context) error {
		if s.limiter != nil {
			if removed := s.limiter.Sweep(time.Hour); removed > 0 {
				log.Printf("swept %d idle rate-limit clients", removed)
			}
		}
		return nil
	})

	<-ctx.Done()
	log.Println("Background scanner stopped")
}

// scanCycle is one full pass: refresh the token set, recompute
// sentiment, then rescan snipe signals against the fresh scores.
func (s *Scanner) scanCycle(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "scanner.scan-cycle")
	defer span.End()

	if s.tokens != nil {
		s.tokens.Refresh(ctx)
	}

	sentiments := s.analyzer.AnalyzeAll(ctx)
	log.Printf("scan cycle analyzed %d tokens", len(sentiments))

	if s.signals != nil {
		signals, err := s.signals.ScanTokens(ctx)
		if err != nil {
			return err
		}
		log.Printf("scan cycle produced %d snipe signals", len(signals))
	}
	return nil
}

func (s *Scanner) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	// Run immediately on start
	if err := fn(ctx); err != nil {
		log.Printf("scanner %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("scanner %s error: %v", name, err)
			}
		}
	}
}
