package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSignals returns the latest snipe signals, strongest first.
// ?cache=false forces a rescan of trending pairs.
func (h *Handler) GetSignals(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	useCache := c.DefaultQuery("cache", "true") != "false"
	signals, err := h.snipes.GetSignals(ctx, useCache)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(signals),
		"signals": signals,
	})
}
