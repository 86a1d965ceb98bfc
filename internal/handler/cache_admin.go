package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetCacheStats reports cache connectivity and key count.
func (h *Handler) GetCacheStats(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-cache-stats")
	defer span.End()

	c.JSON(http.StatusOK, h.sentiment.CacheStats(ctx))
}

// InvalidateToken drops every cached entry for one token.
func (h *Handler) InvalidateToken(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.invalidate-token")
	defer span.End()

	token := strings.ToUpper(c.Param("token"))
	h.sentiment.InvalidateToken(ctx, token)

	c.JSON(http.StatusOK, gin.H{"token": token, "invalidated": true})
}

// ClearCache drops every cached sentiment, history, and signal entry.
func (h *Handler) ClearCache(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.clear-cache")
	defer span.End()

	cleared := h.sentiment.InvalidateAll(ctx)
	c.JSON(http.StatusOK, gin.H{"cleared_keys": cleared})
}
