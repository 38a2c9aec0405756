package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond pps per second with 429. pps <= 0 disables it.
func RateLimit(pps int) gin.HandlerFunc {
	if pps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := pps + 10
	if burst < 20 {
		burst = 20
	}
	limiter := rate.NewLimiter(rate.Limit(pps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
