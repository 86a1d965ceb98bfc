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

const basescanBaseURL = "https://api.basescan.org/api"

// maxDevWallets bounds how many transfer recipients are treated as
// deployer-related wallets per token.
const maxDevWallets = 10

// BasescanClient reads wallet balances for a token's early transfer
// recipients from the Basescan API.
type BasescanClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewBasescanClient creates a client with built-in rate limiting.
// The free tier allows 5 requests per second.
func NewBasescanClient(tracer trace.Tracer, baseURL, apiKey string, timeout time.Duration) *BasescanClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = basescanBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BasescanClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(5, 200*time.Millisecond),
	}
}

// DevWallets collects the earliest transfer recipients of the token
// contract and returns their current ETH balances. Near-uniform
// balances across these wallets indicate deployer clustering.
func (b *BasescanClient) DevWallets(ctx context.Context, tokenAddress string) (domain.DevWalletMetrics, error) {
	ctx, span := b.tracer.Start(ctx, "basescan.dev-wallets")
	defer span.End()

	holders, err := b.earlyRecipients(ctx, tokenAddress)
	if err != nil {
		return domain.DevWalletMetrics{}, fmt.Errorf("fetch transfers for %s: %w", tokenAddress, err)
	}

	balances := make([]float64, 0, len(holders))
	for _, holder := range holders {
		balance, err := b.balance(ctx, holder)
		if err != nil {
			continue
		}
		balances = append(balances, balance)
	}
	return domain.DevWalletMetrics{Balances: balances}, nil
}

func (b *BasescanClient) earlyRecipients(ctx context.Context, tokenAddress string) ([]string, error) {
	params := url.Values{
		"module":          {"account"},
		"action":          {"tokentx"},
		"contractaddress": {tokenAddress},
		"page":            {"1"},
		"offset":          {"50"},
		"sort":            {"asc"},
		"apikey":          {b.apiKey},
	}

	body, err := b.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status string `json:"status"`
		Result []struct {
			To string `json:"to"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse transfer response: %w", err)
	}
	if raw.Status != "1" {
		return nil, fmt.Errorf("basescan returned status %s", raw.Status)
	}

	seen := make(map[string]struct{}, maxDevWallets)
	recipients := make([]string, 0, maxDevWallets)
	for _, tx := range raw.Result {
		if len(recipients) >= maxDevWallets {
			break
		}
		addr := strings.ToLower(strings.TrimSpace(tx.To))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		recipients = append(recipients, addr)
	}
	return recipients, nil
}

func (b *BasescanClient) balance(ctx context.Context, address string) (float64, error) {
	params := url.Values{
		"module":  {"account"},
		"action":  {"balance"},
		"address": {address},
		"apikey":  {b.apiKey},
	}

	body, err := b.doRequest(ctx, params)
	if err != nil {
		return 0, err
	}

	var raw struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parse balance response: %w", err)
	}
	if raw.Status != "1" {
		return 0, fmt.Errorf("basescan returned status %s", raw.Status)
	}

	wei, err := strconv.ParseFloat(raw.Result, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", raw.Result, err)
	}
	return wei / 1e18, nil
}

func (b *BasescanClient) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("basescan API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
