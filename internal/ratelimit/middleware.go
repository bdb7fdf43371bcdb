package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"portfolio-api/internal/errorsx"
	"portfolio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client IP. Limiter errors fail open.
func Middleware(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retry := int(time.Until(d.ResetAt).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			h.Set("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "too many requests",
				"reason": errorsx.ReasonRateLimited,
			})
			return
		}
		c.Next()
	}
}
