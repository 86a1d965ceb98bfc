package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"token-radar/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const dexScreenerBaseURL = "https://api.dexscreener.com/latest"

// DexScreenerClient fetches pair volume and trending data from the
// DexScreener free API.
type DexScreenerClient struct {
	client  *http.Client
	baseURL string
	chain   string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewDexScreenerClient creates a client with built-in rate limiting.
// The free tier allows 300 requests per minute (one token every 200ms).
func NewDexScreenerClient(tracer trace.Tracer, baseURL string, timeout time.Duration) *DexScreenerClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = dexScreenerBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DexScreenerClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		chain:   "base",
		tracer:  tracer,
		limiter: NewRateLimiter(5, 200*time.Millisecond),
	}
}

// dexPair mirrors the DexScreener pair payload. Numeric fields arrive
// as strings or numbers depending on endpoint, hence the raw types.
type dexPair struct {
	PairAddress string `json:"pairAddress"`
	DexID       string `json:"dexId"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"baseToken"`
	PriceUSD string `json:"priceUsd"`
	Volume   struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

// TokenMetrics looks a symbol up and returns the volume snapshot of
// its highest-liquidity pair.
func (d *DexScreenerClient) TokenMetrics(ctx context.Context, symbol string) (domain.VolumeMetrics, error) {
	ctx, span := d.tracer.Start(ctx, "dexscreener.token-metrics")
	defer span.End()

	pairs, err := d.search(ctx, symbol)
	if err != nil {
		return domain.VolumeMetrics{}, fmt.Errorf("fetch metrics for %s: %w", symbol, err)
	}

	var best *dexPair
	for i := range pairs {
		pair := &pairs[i]
		if !strings.EqualFold(pair.BaseToken.Symbol, symbol) {
			continue
		}
		if best == nil || pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}
	if best == nil {
		return domain.VolumeMetrics{}, fmt.Errorf("no pair found for %s", symbol)
	}

	price, _ := strconv.ParseFloat(best.PriceUSD, 64)
	return domain.VolumeMetrics{
		Volume5m:       best.Volume.M5,
		Volume1h:       best.Volume.H1,
		Volume24h:      best.Volume.H24,
		LiquidityUSD:   best.Liquidity.USD,
		Price:          price,
		PriceChange5m:  best.PriceChange.M5,
		PriceChange1h:  best.PriceChange.H1,
		PriceChange24h: best.PriceChange.H24,
	}, nil
}

// TrendingPairs returns up to limit distinct-symbol pairs on the
// configured chain, newest data first as DexScreener ranks them.
func (d *DexScreenerClient) TrendingPairs(ctx context.Context, limit int) ([]domain.TokenPair, error) {
	ctx, span := d.tracer.Start(ctx, "dexscreener.trending-pairs")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	pairs, err := d.search(ctx, d.chain)
	if err != nil {
		return nil, fmt.Errorf("fetch trending pairs: %w", err)
	}

	seen := make(map[string]struct{}, limit)
	out := make([]domain.TokenPair, 0, limit)
	for i := range pairs {
		if len(out) >= limit {
			break
		}
		pair := &pairs[i]
		symbol := strings.ToUpper(strings.TrimSpace(pair.BaseToken.Symbol))
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}

		out = append(out, domain.TokenPair{
			TokenAddress: pair.BaseToken.Address,
			TokenSymbol:  symbol,
			TokenName:    pair.BaseToken.Name,
			DEX:          pair.DexID,
			PoolAddress:  pair.PairAddress,
			LiquidityUSD: pair.Liquidity.USD,
			CreatedAt:    time.UnixMilli(pair.PairCreatedAt).UTC(),
		})
	}
	return out, nil
}

func (d *DexScreenerClient) search(ctx context.Context, query string) ([]dexPair, error) {
	endpoint := fmt.Sprintf("%s/dex/search?q=%s", d.baseURL, url.QueryEscape(query))

	body, err := d.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return raw.Pairs, nil
}

func (d *DexScreenerClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dexscreener API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
