package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/interfaces/http/response"
	"actdone.backend/pkg/logger"
	"actdone.backend/pkg/redis"
)

const msgTooManyRequests = "Too many requests. Please try again later."

var windowHit = redis.WindowHit

// RateLimitMiddleware allows limit requests per client IP in each fixed window
// for the routes it wraps. Redis failures let the request through.
func RateLimitMiddleware(scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + scope + ":" + c.ClientIP()
		count, ttl, err := windowHit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			retry := int(math.Ceil(ttl.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			response.Abort(c, domainerrors.TooManyRequests(msgTooManyRequests))
			return
		}

		c.Next()
	}
}
