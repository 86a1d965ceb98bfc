package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"token-radar/internal/aggregate"
	"token-radar/internal/cache"
	"token-radar/internal/domain"
	"token-radar/internal/history"
	"token-radar/internal/scorer"

	"go.opentelemetry.io/otel/trace"
)

const defaultMaxPosts = 50

// TextSource produces posts mentioning a token.
type TextSource interface {
	Posts(ctx context.Context, token string, max int) ([]domain.Post, error)
}

// Classifier assigns a sentiment class to a single text.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.SentimentClass, error)
}

// BatchClassifier classifies many texts in one upstream call. Result
// order matches input order.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]domain.SentimentClass, error)
}

// TokenLister exposes the tracked token set.
type TokenLister interface {
	Tokens(ctx context.Context) []string
}

// Summary aggregates the latest snapshot of every tracked token.
type Summary struct {
	TotalTokens  int                   `json:"total_tokens"`
	BullishCount int                   `json:"bullish_count"`
	NeutralCount int                   `json:"neutral_count"`
	BearishCount int                   `json:"bearish_count"`
	AverageScore float64               `json:"average_score"`
	MarketLabel  domain.SentimentLabel `json:"market_label"`
	Timestamp    time.Time             `json:"timestamp"`
}

// Comparison relates the scores of an explicit token set.
type Comparison struct {
	Tokens    []domain.TokenSentiment `json:"tokens"`
	Stats     aggregate.Stats         `json:"stats"`
	Outliers  []string                `json:"outliers"`
	Timestamp time.Time               `json:"timestamp"`
}

// SentimentService orchestrates the per-token pipeline: fetch posts,
// classify, score, record history, and cache the snapshot.
type SentimentService struct {
	tracer          trace.Tracer
	texts           TextSource
	classifier      Classifier
	history         *history.Store
	cache           *cache.SentimentCache
	tokens          TokenLister
	maxPosts        int
	classifyTimeout time.Duration
	trendWindow     time.Duration
	now             func() time.Time
}

func NewSentimentService(
	tracer trace.Tracer,
	texts TextSource,
	classifier Classifier,
	historyStore *history.Store,
	sentimentCache *cache.SentimentCache,
	tokenLister TokenLister,
	classifyTimeout time.Duration,
) *SentimentService {
	if classifyTimeout <= 0 {
		classifyTimeout = 10 * time.Second
	}
	return &SentimentService{
		tracer:          tracer,
		texts:           texts,
		classifier:      classifier,
		history:         historyStore,
		cache:           sentimentCache,
		tokens:          tokenLister,
		maxPosts:        defaultMaxPosts,
		classifyTimeout: classifyTimeout,
		trendWindow:     time.Hour,
		now:             time.Now,
	}
}

// AnalyzeToken runs the full pipeline for one token and returns the
// fresh snapshot. Classifier failures degrade to the neutral fallback
// per post; a failed post fetch is an error so callers can serve a
// stale snapshot instead.
func (s *SentimentService) AnalyzeToken(ctx context.Context, token string) (domain.TokenSentiment, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.analyze-token")
	defer span.End()

	token = strings.ToUpper(strings.TrimSpace(token))
	now := s.now().UTC()

	posts, err := s.texts.Posts(ctx, token, s.maxPosts)
	if err != nil {
		return domain.TokenSentiment{}, fmt.Errorf("fetch posts for %s: %w", token, err)
	}

	classes := s.classifyPosts(ctx, posts)
	sentiment := scorer.AnalyzeBatch(token, classes, posts, now)

	s.history.Append(sentiment)
	sentiment.Trend = s.history.Trend(token, s.trendWindow, now)
	sentiment.TrendStrength = s.history.TrendStrength(token)

	s.cache.SetTokenSentiment(ctx, sentiment)
	return sentiment, nil
}

// classifyPosts classifies every post, preferring one batched upstream
// call. Any failure substitutes the neutral fallback so one bad post
// or upstream hiccup cannot sink the whole batch.
func (s *SentimentService) classifyPosts(ctx context.Context, posts []domain.Post) []domain.SentimentClass {
	if len(posts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.classifyTimeout)
	defer cancel()

	if batcher, ok := s.classifier.(BatchClassifier); ok {
		texts := make([]string, len(posts))
		for i, post := range posts {
			texts[i] = post.Text
		}
		classes, err := batcher.ClassifyBatch(ctx, texts)
		if err == nil && len(classes) == len(posts) {
			return classes
		}
		if err != nil {
			log.Printf("batch classification failed, falling back per post: %v", err)
		}
	}

	classes := make([]domain.SentimentClass, len(posts))
	for i, post := range posts {
		class, err := s.classifier.Classify(ctx, post.Text)
		if err != nil {
			class = domain.NeutralFallbackClass()
		}
		classes[i] = class
	}
	return classes
}

// GetTokenSentiment serves the cached snapshot when allowed and fresh
// enough, recomputing otherwise. When recomputation fails, a stale
// cached snapshot still serves.
func (s *SentimentService) GetTokenSentiment(ctx context.Context, token string, useCache bool) (domain.TokenSentiment, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.get-token-sentiment")
	defer span.End()

	token = strings.ToUpper(strings.TrimSpace(token))

	cached, haveCached := s.cache.GetTokenSentiment(ctx, token)
	if useCache && haveCached {
		return cached, nil
	}

	fresh, err := s.AnalyzeToken(ctx, token)
	if err != nil {
		if haveCached {
			log.Printf("serving stale sentiment for %s: %v", token, err)
			return cached, nil
		}
		return domain.TokenSentiment{}, err
	}
	return fresh, nil
}

// AnalyzeAll recomputes every tracked token and caches the combined
// map. Tokens that fail are skipped rather than failing the cycle.
func (s *SentimentService) AnalyzeAll(ctx context.Context) map[string]domain.TokenSentiment {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.analyze-all")
	defer span.End()

	out := map[string]domain.TokenSentiment{}
	for _, token := range s.tokens.Tokens(ctx) {
		sentiment, err := s.AnalyzeToken(ctx, token)
		if err != nil {
			log.Printf("analyze %s failed: %v", token, err)
			continue
		}
		out[token] = sentiment
	}

	if len(out) > 0 {
		s.cache.SetAllSentiments(ctx, out)
	}
	return out
}

// GetAllSentiments serves the cached map when allowed, recomputing
// otherwise.
func (s *SentimentService) GetAllSentiments(ctx context.Context, useCache bool) map[string]domain.TokenSentiment {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.get-all-sentiments")
	defer span.End()

	if useCache {
		if cached, ok := s.cache.GetAllSentiments(ctx); ok {
			return cached
		}
	}
	return s.AnalyzeAll(ctx)
}

// Summarize reduces the latest snapshots to one market-wide view.
func (s *SentimentService) Summarize(ctx context.Context) Summary {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.summarize")
	defer span.End()

	sentiments := s.GetAllSentiments(ctx, true)

	summary := Summary{Timestamp: s.now().UTC(), MarketLabel: domain.LabelNeutral}
	scores := make([]float64, 0, len(sentiments))
	for _, sentiment := range sentiments {
		summary.TotalTokens++
		scores = append(scores, sentiment.SentimentScore)
		switch sentiment.SentimentLabel {
		case domain.LabelBullish:
			summary.BullishCount++
		case domain.LabelBearish:
			summary.BearishCount++
		default:
			summary.NeutralCount++
		}
	}

	stats := aggregate.Summarize(scores)
	summary.AverageScore = stats.Mean
	if summary.BullishCount > summary.NeutralCount+summary.BearishCount {
		summary.MarketLabel = domain.LabelBullish
	} else if summary.BearishCount > summary.NeutralCount+summary.BullishCount {
		summary.MarketLabel = domain.LabelBearish
	}
	return summary
}

// Compare evaluates an explicit token set side by side, flagging
// statistical outliers among their scores.
func (s *SentimentService) Compare(ctx context.Context, tokens []string) (Comparison, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.compare")
	defer span.End()

	if len(tokens) == 0 {
		return Comparison{}, fmt.Errorf("no tokens to compare")
	}

	comparison := Comparison{Timestamp: s.now().UTC()}
	scores := make([]float64, 0, len(tokens))
	symbols := make([]string, 0, len(tokens))
	for _, token := range tokens {
		sentiment, err := s.GetTokenSentiment(ctx, token, true)
		if err != nil {
			return Comparison{}, err
		}
		comparison.Tokens = append(comparison.Tokens, sentiment)
		scores = append(scores, sentiment.SentimentScore)
		symbols = append(symbols, sentiment.Token)
	}

	sort.Slice(comparison.Tokens, func(i, j int) bool {
		return comparison.Tokens[i].SentimentScore > comparison.Tokens[j].SentimentScore
	})

	comparison.Stats = aggregate.Summarize(scores)
	comparison.Outliers = []string{}
	for _, idx := range aggregate.Outliers(scores) {
		comparison.Outliers = append(comparison.Outliers, symbols[idx])
	}
	return comparison, nil
}

// History returns the token's snapshots over the trailing hours,
// cache-aside with a one hour TTL.
func (s *SentimentService) History(ctx context.Context, token string, hours int) []domain.TokenSentiment {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.history")
	defer span.End()

	token = strings.ToUpper(strings.TrimSpace(token))
	if hours <= 0 {
		hours = 24
	}

	if cached, ok := s.cache.GetTokenHistory(ctx, token, hours); ok {
		return cached
	}

	series := s.history.Recent(token, time.Duration(hours)*time.Hour, s.now().UTC())
	if len(series) > 0 {
		s.cache.SetTokenHistory(ctx, token, hours, series)
	}
	return series
}

// TrendReport is the trailing-window view of one token's trajectory.
// Momentum compares the window's first and second halves and can
// disagree with Direction, which only looks at the endpoints.
type TrendReport struct {
	Token         string       `json:"token"`
	Trend         domain.Trend `json:"trend"`
	TrendStrength float64      `json:"trend_strength"`
	AverageScore  float64      `json:"average_score"`
	Momentum      string       `json:"momentum"`
}

// TrendInfo reports the token's trend direction, strength, momentum,
// and average score over the trailing window.
func (s *SentimentService) TrendInfo(ctx context.Context, token string) TrendReport {
	_, span := s.tracer.Start(ctx, "sentiment-service.trend-info")
	defer span.End()

	token = strings.ToUpper(strings.TrimSpace(token))
	now := s.now().UTC()

	series := s.history.Recent(token, s.trendWindow, now)
	scores := make([]float64, 0, len(series))
	for _, entry := range series {
		scores = append(scores, entry.SentimentScore)
	}

	return TrendReport{
		Token:         token,
		Trend:         s.history.Trend(token, s.trendWindow, now),
		TrendStrength: s.history.TrendStrength(token),
		AverageScore:  s.history.Average(token, s.trendWindow, now),
		Momentum:      aggregate.Trend(scores),
	}
}

// ExportHistory dumps the full in-memory history, token by token.
func (s *SentimentService) ExportHistory() map[string][]domain.TokenSentiment {
	return s.history.Export()
}

// InvalidateToken drops every cached entry for one token.
func (s *SentimentService) InvalidateToken(ctx context.Context, token string) {
	s.cache.InvalidateToken(ctx, token)
}

// InvalidateAll drops every cached sentiment, history, and signal entry.
func (s *SentimentService) InvalidateAll(ctx context.Context) int {
	return s.cache.InvalidateAll(ctx)
}

// CacheStats reports cache connectivity and size.
func (s *SentimentService) CacheStats(ctx context.Context) map[string]interface{} {
	return s.cache.Stats(ctx)
}
