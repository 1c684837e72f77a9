// Package ratelimit throttles outbound vendor traffic per branch so a burst
// of syncs cannot trip the vendor's own rate limiting.
package ratelimit

import (
	"context"
	"time"
)

type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	GetUsed(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
