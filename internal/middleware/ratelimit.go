package middleware

import (
	"net/http"

	"anoa.com/jobportal/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// FormRateLimit throttles state-changing requests per client IP. Reads pass through.
func FormRateLimit(limiter *ratelimiter.ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
