package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port     string
	RedisURL string
	APIKey   string

	Tokens              []string
	DynamicTokens       bool
	MaxTrackedTokens    int
	TokenRefreshMinutes int

	ScanIntervalSecs   int
	StreamIntervalSecs int

	RateLimitMax        int
	RateLimitWindowSecs int
	CacheTTLSecs        int

	ClassifyTimeoutSecs int
	SourceTimeoutSecs   int

	OpenAIAPIKey string
	OpenAIModel  string

	TelegramBotToken string

	DexScreenerURL string
	BasescanURL    string
	BasescanAPIKey string
}

func Load() *Config {
	cfg := &Config{
		RedisURL:         os.Getenv("REDIS_URL"),
		APIKey:           os.Getenv("API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DexScreenerURL:   strings.TrimSpace(os.Getenv("DEXSCREENER_URL")),
		BasescanURL:      strings.TrimSpace(os.Getenv("BASESCAN_URL")),
		BasescanAPIKey:   os.Getenv("BASESCAN_API_KEY"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, API authentication disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, using keyword classifier only")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.Tokens = []string{"DOGE", "SHIB", "PEPE"}
	if v := strings.TrimSpace(os.Getenv("TOKENS")); v != "" {
		tokens := []string{}
		for _, token := range strings.Split(v, ",") {
			if token = strings.ToUpper(strings.TrimSpace(token)); token != "" {
				tokens = append(tokens, token)
			}
		}
		if len(tokens) > 0 {
			cfg.Tokens = tokens
		}
	}

	cfg.DynamicTokens = strings.EqualFold(strings.TrimSpace(os.Getenv("DYNAMIC_TOKENS")), "true")

	cfg.MaxTrackedTokens = 20
	if v := strings.TrimSpace(os.Getenv("MAX_TRACKED_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTrackedTokens = n
		}
	}

	cfg.TokenRefreshMinutes = 30
	if v := strings.TrimSpace(os.Getenv("TOKEN_REFRESH_MINUTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TokenRefreshMinutes = n
		}
	}

	cfg.ScanIntervalSecs = 300
	if v := strings.TrimSpace(os.Getenv("SCAN_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScanIntervalSecs = n
		}
	}

	cfg.StreamIntervalSecs = 5
	if v := strings.TrimSpace(os.Getenv("STREAM_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StreamIntervalSecs = n
		}
	}

	cfg.RateLimitMax = 100
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitMax = n
		}
	}

	cfg.RateLimitWindowSecs = 60
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitWindowSecs = n
		}
	}

	cfg.CacheTTLSecs = 300
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLSecs = n
		}
	}

	cfg.ClassifyTimeoutSecs = 10
	if v := strings.TrimSpace(os.Getenv("CLASSIFY_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ClassifyTimeoutSecs = n
		}
	}

	cfg.SourceTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("SOURCE_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SourceTimeoutSecs = n
		}
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	return cfg
}
