package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a sliding-window limiter backed by one sorted set per
// key and window. Members are scored by request time in nanoseconds.
type RedisRateLimiter struct {
	client *redis.Client
	config RateLimitConfig
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		config: config,
		prefix: "accessbridge:ratelimit",
		now:    time.Now,
	}
}

// Allow records the request when every window has room. Denied requests are
// not counted.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()

	windows := []struct {
		duration time.Duration
		limit    int
	}{
		{time.Minute, l.config.RequestsPerMinute},
		{time.Hour, l.config.RequestsPerHour},
	}

	for _, window := range windows {
		if window.limit <= 0 {
			continue
		}
		used, err := l.count(ctx, l.getKey(key, window.duration), window.duration, now)
		if err != nil {
			return false, err
		}
		if used >= int64(window.limit) {
			return false, nil
		}
	}

	pipe := l.client.Pipeline()
	for _, window := range windows {
		if window.limit <= 0 {
			continue
		}
		redisKey := l.getKey(key, window.duration)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		pipe.Expire(ctx, redisKey, window.duration+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}
	return true, nil
}

func (l *RedisRateLimiter) count(ctx context.Context, redisKey string, window time.Duration, now time.Time) (int64, error) {
	windowStart := now.Add(-window).UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	zcard := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}
	return zcard.Val(), nil
}

func (l *RedisRateLimiter) GetUsed(ctx context.Context, key string, window time.Duration) (int64, error) {
	return l.count(ctx, l.getKey(key, window), window, l.now())
}

func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	pattern := fmt.Sprintf("%s:%s:*", l.prefix, key)

	iter := l.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	return nil
}

func (l *RedisRateLimiter) getKey(identifier string, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, identifier, window.String())
}
