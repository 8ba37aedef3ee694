package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chhinhsovath/plp-telegram-manager/utils/ratelimit"
)

// RateLimitMiddleware throttles the admin REST surface per client IP. A nil
// limiter disables throttling (redis unavailable at startup).
func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP(), limit, window)
		if err != nil || !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "too many requests",
				"details": "rate limit exceeded, try again later",
			})
			return
		}

		c.Next()
	}
}
