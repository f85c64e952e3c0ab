package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
)

// Middleware limits requests per client IP. When the store fails the
// request is let through and the failure logged.
func Middleware(l *Limiter, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		res, err := l.Allow(ctx, c.ClientIP())
		if err != nil {
			log.Error(ctx, "rate limit store failed", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(math.Ceil(float64(res.Reset.UnixMilli())/1000)), 10))

		if !res.Allowed {
			retryAfter := int64(math.Ceil(time.Until(res.Reset).Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.RateLimitResponse{
				Success:    false,
				Error:      "Too many requests, please try again later",
				RetryAfter: retryAfter,
			})
			return
		}
		c.Next()
	}
}
