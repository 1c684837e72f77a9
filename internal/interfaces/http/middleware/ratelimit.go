package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils"
)

// Allower is satisfied by ratelimit.RedisRateLimiter.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter throttles callers by client IP. Limiter errors let the request
// through so a Redis outage does not block webhooks.
type RateLimiter struct {
	limiter Allower
	prefix  string
	logger  logger.Interface
}

func NewRateLimiter(limiter Allower, prefix string, log logger.Interface) *RateLimiter {
	return &RateLimiter{limiter: limiter, prefix: prefix, logger: log}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.limiter == nil {
			c.Next()
			return
		}

		allowed, err := rl.limiter.Allow(c.Request.Context(), rl.prefix+":ip:"+c.ClientIP())
		if err != nil {
			rl.logger.Warnw("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
