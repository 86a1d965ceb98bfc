package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetTokens lists the tracked token registry status.
func (h *Handler) GetTokens(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-tokens")
	defer span.End()

	c.JSON(http.StatusOK, h.tokens.Status())
}

type addTokenRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// AddToken starts tracking a symbol.
func (h *Handler) AddToken(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.add-token")
	defer span.End()

	var req addTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if !h.tokens.Add(symbol) {
		c.JSON(http.StatusConflict, gin.H{"error": "token already tracked: " + symbol})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": symbol, "tracked": true})
}

// RemoveToken stops tracking a symbol and drops its cached entries.
func (h *Handler) RemoveToken(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.remove-token")
	defer span.End()

	symbol := strings.ToUpper(c.Param("token"))
	if !h.tokens.Remove(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not tracked: " + symbol})
		return
	}

	h.sentiment.InvalidateToken(ctx, symbol)
	c.JSON(http.StatusOK, gin.H{"token": symbol, "tracked": false})
}

// GetStats reports service-level operational counters.
func (h *Handler) GetStats(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	stats := gin.H{
		"tokens": h.tokens.Status(),
		"cache":  h.sentiment.CacheStats(ctx),
	}
	if h.hub != nil {
		stats["websocket_connections"] = h.hub.ConnectionCount()
	}
	if h.limiter != nil {
		stats["rate_limited_clients"] = h.limiter.ClientCount()
	}
	c.JSON(http.StatusOK, stats)
}
