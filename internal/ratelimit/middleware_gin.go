package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PerIP limits the public form endpoints by client address. A nil bucket
// (no Redis configured) disables limiting, and a Redis failure fails open.
func PerIP(bucket *TokenBucket, log *zap.Logger, rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket == nil {
			c.Next()
			return
		}

		key := "ratelimit:ip:" + c.ClientIP()
		result, err := bucket.Allow(c.Request.Context(), key, rate, burst)
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			if result.RetryAfter > 0 {
				seconds := int(result.RetryAfter.Seconds()) + 1
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too_many_requests",
			})
			return
		}
		c.Next()
	}
}
