package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("TOKENS", "")
	t.Setenv("SCAN_INTERVAL_SECS", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("DYNAMIC_TOKENS", "")
	t.Setenv("PORT", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if len(cfg.Tokens) != 3 || cfg.Tokens[0] != "DOGE" {
		t.Fatalf("expected default token list, got %v", cfg.Tokens)
	}
	if cfg.ScanIntervalSecs != 300 {
		t.Fatalf("expected default scan interval 300, got %d", cfg.ScanIntervalSecs)
	}
	if cfg.RateLimitMax != 100 || cfg.RateLimitWindowSecs != 60 {
		t.Fatalf("unexpected rate limit defaults: %d/%d", cfg.RateLimitMax, cfg.RateLimitWindowSecs)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %s", cfg.OpenAIModel)
	}
	if cfg.DynamicTokens {
		t.Fatal("dynamic tokens should default off")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("TOKENS", "wif, bonk ,,floki")
	t.Setenv("SCAN_INTERVAL_SECS", "120")
	t.Setenv("DYNAMIC_TOKENS", "TRUE")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()
	if cfg.TelegramBotToken != "token" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Tokens) != 3 || cfg.Tokens[0] != "WIF" || cfg.Tokens[1] != "BONK" || cfg.Tokens[2] != "FLOKI" {
		t.Fatalf("expected normalized token list, got %v", cfg.Tokens)
	}
	if cfg.ScanIntervalSecs != 120 {
		t.Fatalf("expected scan interval 120, got %d", cfg.ScanIntervalSecs)
	}
	if !cfg.DynamicTokens {
		t.Fatal("expected dynamic tokens enabled")
	}

	t.Setenv("SCAN_INTERVAL_SECS", "bad")
	cfg = Load()
	if cfg.ScanIntervalSecs != 300 {
		t.Fatalf("invalid scan interval should fall back to default, got %d", cfg.ScanIntervalSecs)
	}
}
