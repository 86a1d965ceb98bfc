package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token-radar/internal/bot"
	"token-radar/internal/cache"
	"token-radar/internal/config"
	"token-radar/internal/handler"
	"token-radar/internal/history"
	"token-radar/internal/hub"
	"token-radar/internal/job"
	"token-radar/internal/provider"
	"token-radar/internal/ratelimit"
	"token-radar/internal/service"
	"token-radar/internal/tokens"
	"token-radar/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newClassifierFunc = func(cfg *config.Config) service.Classifier {
		if oai := provider.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel); oai != nil {
			log.Println("Using OpenAI classifier")
			return oai
		}
		log.Println("Using keyword classifier")
		return provider.NewKeywordClassifier()
	}
	newDexScreenerFunc = func(tracer trace.Tracer, cfg *config.Config) *provider.DexScreenerClient {
		return provider.NewDexScreenerClient(tracer, cfg.DexScreenerURL, time.Duration(cfg.SourceTimeoutSecs)*time.Second)
	}
	newBasescanFunc = func(tracer trace.Tracer, cfg *config.Config) *provider.BasescanClient {
		return provider.NewBasescanClient(tracer, cfg.BasescanURL, cfg.BasescanAPIKey, time.Duration(cfg.SourceTimeoutSecs)*time.Second)
	}
	startScannerFunc = func(s *job.Scanner, ctx context.Context) { go s.Start(ctx) }
	startStreamFunc  = func(h *hub.Hub, ctx context.Context, interval time.Duration) {
		go h.Stream(ctx, interval)
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Redis
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Shared cache and history stores
	cacheManager := cache.NewManager(cache.Client)
	sentimentCache := cache.NewSentimentCache(cacheManager, time.Duration(cfg.CacheTTLSecs)*time.Second)
	historyStore := history.NewStore(0)

	// Providers
	dexScreener := newDexScreenerFunc(tracer, cfg)
	basescan := newBasescanFunc(tracer, cfg)
	classifier := newClassifierFunc(cfg)
	texts := provider.NewSampleTextSource()

	// Token registry
	tokenManager := tokens.NewManager(
		cfg.Tokens, dexScreener, cfg.DynamicTokens,
		cfg.MaxTrackedTokens, time.Duration(cfg.TokenRefreshMinutes)*time.Minute,
	)

	// Services
	sentimentService := service.NewSentimentService(
		tracer, texts, classifier, historyStore, sentimentCache,
		tokenManager, time.Duration(cfg.ClassifyTimeoutSecs)*time.Second,
	)
	snipeService := service.NewSnipeService(
		tracer, dexScreener, dexScreener, basescan, sentimentService,
		sentimentCache, cfg.MaxTrackedTokens,
	)

	// WebSocket hub with periodic broadcast stream
	wsHub := hub.NewHub(sentimentService)
	startStreamFunc(wsHub, ctx, time.Duration(cfg.StreamIntervalSecs)*time.Second)

	// Background scanner (stopped by ctx cancel)
	limiter := ratelimit.NewLimiter()
	scanner := job.NewScanner(tracer, sentimentService, snipeService, tokenManager, limiter, cfg.ScanIntervalSecs)
	startScannerFunc(scanner, ctx)

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(sentimentService, snipeService)

	// Create handlers and routes
	h := newHandlerFunc(
		tracer, sentimentService, snipeService, tokenManager, wsHub,
		limiter, cfg.RateLimitMax, time.Duration(cfg.RateLimitWindowSecs)*time.Second,
		cfg.APIKey,
	)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("token-radar"))

	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
