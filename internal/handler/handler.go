package handler

import (
	"net/http"
	"time"

	"token-radar/internal/hub"
	"token-radar/internal/ratelimit"
	"token-radar/internal/service"
	"token-radar/internal/tokens"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer    trace.Tracer
	sentiment *service.SentimentService
	snipes    *service.SnipeService
	tokens    *tokens.Manager
	hub       *hub.Hub

	limiter         *ratelimit.Limiter
	rateLimitMax    int
	rateLimitWindow time.Duration
	apiKey          string
}

func New(
	tracer trace.Tracer,
	sentimentService *service.SentimentService,
	snipeService *service.SnipeService,
	tokenManager *tokens.Manager,
	wsHub *hub.Hub,
	limiter *ratelimit.Limiter,
	rateLimitMax int,
	rateLimitWindow time.Duration,
	apiKey string,
) *Handler {
	if rateLimitMax <= 0 {
		rateLimitMax = 100
	}
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	return &Handler{
		tracer:          tracer,
		sentiment:       sentimentService,
		snipes:          snipeService,
		tokens:          tokenManager,
		hub:             wsHub,
		limiter:         limiter,
		rateLimitMax:    rateLimitMax,
		rateLimitWindow: rateLimitWindow,
		apiKey:          apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ws", h.WebSocket)

	api := r.Group("/api/v1")
	if h.limiter != nil {
		api.Use(ratelimit.Middleware(h.limiter, h.rateLimitMax, h.rateLimitWindow))
	}
	api.Use(APIKeyAuth(h.apiKey))

	api.GET("/sentiment", h.GetAllSentiments)
	api.GET("/sentiment/:token", h.GetSentiment)
	api.GET("/sentiment/:token/history", h.GetHistory)
	api.GET("/sentiment/:token/trend", h.GetTrend)
	api.GET("/summary", h.GetSummary)
	api.POST("/analyze", h.Analyze)
	api.POST("/compare", h.Compare)
	api.POST("/export/history", h.ExportHistory)

	api.GET("/signals", h.GetSignals)

	api.GET("/tokens", h.GetTokens)
	api.POST("/tokens", h.AddToken)
	api.DELETE("/tokens/:token", h.RemoveToken)

	api.GET("/stats", h.GetStats)
	api.GET("/cache/stats", h.GetCacheStats)
	api.POST("/cache/invalidate/:token", h.InvalidateToken)
	api.POST("/cache/clear", h.ClearCache)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
