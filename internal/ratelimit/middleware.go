package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ClientID extracts the caller identity: first hop of X-Forwarded-For
// when present, else the connection address.
func ClientID(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return c.ClientIP()
}

// Middleware returns a Gin middleware enforcing the sliding-window
// limit per client. Every response carries the X-RateLimit-* headers;
// rejections are 429 with the current stats in the body.
func Middleware(limiter *Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, stats := limiter.Allow(ClientID(c), maxRequests, window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(stats.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(stats.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(stats.Reset, 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "rate limit exceeded",
				"limit":     stats.Limit,
				"remaining": stats.Remaining,
				"reset":     stats.Reset,
			})
			return
		}
		c.Next()
	}
}
