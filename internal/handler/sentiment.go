package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSentiment returns the latest sentiment snapshot for one token.
// ?cache=false forces a recomputation.
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	token := strings.ToUpper(c.Param("token"))
	span.SetAttributes(attribute.String("token", token))

	useCache := c.DefaultQuery("cache", "true") != "false"
	sentiment, err := h.sentiment.GetTokenSentiment(ctx, token, useCache)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sentiment)
}

// GetAllSentiments returns the latest snapshot for every tracked token.
func (h *Handler) GetAllSentiments(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-all-sentiments")
	defer span.End()

	useCache := c.DefaultQuery("cache", "true") != "false"
	sentiments := h.sentiment.GetAllSentiments(ctx, useCache)

	c.JSON(http.StatusOK, gin.H{
		"count":      len(sentiments),
		"sentiments": sentiments,
	})
}

// GetHistory returns the token's snapshots over a trailing window,
// default 24 hours.
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	token := strings.ToUpper(c.Param("token"))
	span.SetAttributes(attribute.String("token", token))

	hours := 24
	if v := c.Query("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 168 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be between 1 and 168"})
			return
		}
		hours = n
	}

	series := h.sentiment.History(ctx, token, hours)
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"hours":   hours,
		"count":   len(series),
		"history": series,
	})
}

// GetTrend returns the token's trend direction, strength, and the
// average score over the trailing hour.
func (h *Handler) GetTrend(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trend")
	defer span.End()

	token := strings.ToUpper(c.Param("token"))
	span.SetAttributes(attribute.String("token", token))

	c.JSON(http.StatusOK, h.sentiment.TrendInfo(ctx, token))
}

// GetSummary returns the market-wide sentiment rollup.
func (h *Handler) GetSummary(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-summary")
	defer span.End()

	c.JSON(http.StatusOK, h.sentiment.Summarize(ctx))
}

type analyzeRequest struct {
	Tokens []string `json:"tokens"`
}

// Analyze forces a fresh analysis. With a token list in the body only
// those tokens recompute; without one, every tracked token does.
func (h *Handler) Analyze(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if len(req.Tokens) == 0 {
		sentiments := h.sentiment.AnalyzeAll(ctx)
		c.JSON(http.StatusOK, gin.H{
			"count":      len(sentiments),
			"sentiments": sentiments,
		})
		return
	}

	out := gin.H{}
	for _, token := range req.Tokens {
		sentiment, err := h.sentiment.AnalyzeToken(ctx, token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "token": token})
			return
		}
		out[sentiment.Token] = sentiment
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      len(out),
		"sentiments": out,
	})
}

type compareRequest struct {
	Tokens []string `json:"tokens" binding:"required"`
}

// Compare evaluates an explicit token set side by side.
func (h *Handler) Compare(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.compare")
	defer span.End()

	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Tokens) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least 2 tokens required"})
		return
	}

	comparison, err := h.sentiment.Compare(ctx, req.Tokens)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// ExportHistory dumps the full in-memory history.
func (h *Handler) ExportHistory(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.export-history")
	defer span.End()

	export := h.sentiment.ExportHistory()
	c.JSON(http.StatusOK, gin.H{
		"tokens":  len(export),
		"history": export,
	})
}
