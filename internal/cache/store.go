package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"token-radar/internal/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = 300 * time.Second

// RedisClient is the slice of go-redis the cache layer needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	DBSize(ctx context.Context) *redis.IntCmd
}

// Manager is a TTL key-value store for JSON payloads. A nil client is
// a valid degraded mode: every Get misses and every write is a no-op,
// so callers fall back to recomputation rather than erroring.
type Manager struct {
	client RedisClient
}

func NewManager(client RedisClient) *Manager {
	return &Manager{client: client}
}

// Get unmarshals the cached payload for key into dest. It returns
// false on a miss, an expired entry, or any transport error.
func (m *Manager) Get(ctx context.Context, key string, dest interface{}) bool {
	if m == nil || m.client == nil {
		return false
	}

	data, err := m.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("cache read error for %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("cache decode error for %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key, replacing any existing entry and its TTL.
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if m == nil || m.client == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache encode error for %s: %v", key, err)
		return
	}
	if err := m.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("cache write error for %s: %v", key, err)
	}
}

// Delete removes a single key.
func (m *Manager) Delete(ctx context.Context, key string) {
	if m == nil || m.client == nil {
		return
	}
	if err := m.client.Del(ctx, key).Err(); err != nil {
		log.Printf("cache delete error for %s: %v", key, err)
	}
}

// ClearPattern removes every key matching a glob pattern.
func (m *Manager) ClearPattern(ctx context.Context, pattern string) int {
	if m == nil || m.client == nil {
		return 0
	}

	keys, err := m.client.Keys(ctx, pattern).Result()
	if err != nil {
		log.Printf("cache scan error for %s: %v", pattern, err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache clear error for %s: %v", pattern, err)
		return 0
	}
	return len(keys)
}

// Stats reports cache connectivity and key count.
func (m *Manager) Stats(ctx context.Context) map[string]interface{} {
	if m == nil || m.client == nil {
		return map[string]interface{}{"status": "disconnected"}
	}

	size, err := m.client.DBSize(ctx).Result()
	if err != nil {
		return map[string]interface{}{"status": "error", "error": err.Error()}
	}
	return map[string]interface{}{"status": "connected", "keys": size}
}

// SentimentCache layers token-keyed helpers over the Manager.
type SentimentCache struct {
	manager *Manager
	ttl     time.Duration
}

func NewSentimentCache(manager *Manager, ttl time.Duration) *SentimentCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SentimentCache{manager: manager, ttl: ttl}
}

func sentimentKey(token string) string {
	return "sentiment:" + strings.ToUpper(token)
}

func historyKey(token string, hours int) string {
	return fmt.Sprintf("history:%s:%dh", strings.ToUpper(token), hours)
}

const (
	allSentimentsKey = "sentiment:all"
	snipeSignalsKey  = "snipe:signals"
)

func (c *SentimentCache) GetTokenSentiment(ctx context.Context, token string) (domain.TokenSentiment, bool) {
	var out domain.TokenSentiment
	ok := c.manager.Get(ctx, sentimentKey(token), &out)
	return out, ok
}

func (c *SentimentCache) SetTokenSentiment(ctx context.Context, sentiment domain.TokenSentiment) {
	c.manager.Set(ctx, sentimentKey(sentiment.Token), sentiment, c.ttl)
}

func (c *SentimentCache) GetAllSentiments(ctx context.Context) (map[string]domain.TokenSentiment, bool) {
	out := map[string]domain.TokenSentiment{}
	ok := c.manager.Get(ctx, allSentimentsKey, &out)
	return out, ok
}

func (c *SentimentCache) SetAllSentiments(ctx context.Context, sentiments map[string]domain.TokenSentiment) {
	c.manager.Set(ctx, allSentimentsKey, sentiments, c.ttl)
}

func (c *SentimentCache) GetTokenHistory(ctx context.Context, token string, hours int) ([]domain.TokenSentiment, bool) {
	var out []domain.TokenSentiment
	ok := c.manager.Get(ctx, historyKey(token, hours), &out)
	return out, ok
}

func (c *SentimentCache) SetTokenHistory(ctx context.Context, token string, hours int, series []domain.TokenSentiment) {
	c.manager.Set(ctx, historyKey(token, hours), series, time.Hour)
}

func (c *SentimentCache) GetSnipeSignals(ctx context.Context) ([]domain.SnipeSignal, bool) {
	var out []domain.SnipeSignal
	ok := c.manager.Get(ctx, snipeSignalsKey, &out)
	return out, ok
}

func (c *SentimentCache) SetSnipeSignals(ctx context.Context, signals []domain.SnipeSignal) {
	c.manager.Set(ctx, snipeSignalsKey, signals, c.ttl)
}

// InvalidateToken drops the token's sentiment entry and every cached
// history window for it.
func (c *SentimentCache) InvalidateToken(ctx context.Context, token string) {
	c.manager.Delete(ctx, sentimentKey(token))
	c.manager.Delete(ctx, allSentimentsKey)
	c.manager.ClearPattern(ctx, "history:"+strings.ToUpper(token)+":*")
}

// InvalidateAll drops every sentiment, history, and snipe entry.
func (c *SentimentCache) InvalidateAll(ctx context.Context) int {
	n := c.manager.ClearPattern(ctx, "sentiment:*")
	n += c.manager.ClearPattern(ctx, "history:*")
	n += c.manager.ClearPattern(ctx, "snipe:*")
	return n
}

func (c *SentimentCache) Stats(ctx context.Context) map[string]interface{} {
	return c.manager.Stats(ctx)
}
