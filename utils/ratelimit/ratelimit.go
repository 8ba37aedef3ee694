package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is the rate limiting contract consumed by the HTTP middleware.
type Limiter interface {
	// Allow reports whether one more request fits in the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// GetRemaining returns how many requests are left in the current window.
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)

	// Reset clears the current window for a key.
	Reset(ctx context.Context, key string, window time.Duration) error
}

// FixedWindowLimiter counts requests per time-bucketed redis key. Redis
// keeps the counters shared across instances; INCR plus EXPIRE in a pipeline
// keeps the check cheap.
type FixedWindowLimiter struct {
	redisClient *redis.Client
	logger      *zap.Logger
	// failOpen allows requests when redis is unavailable instead of
	// rejecting them.
	failOpen bool
}

func NewFixedWindowLimiter(redisClient *redis.Client, logger *zap.Logger, failOpen bool) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		redisClient: redisClient,
		logger:      logger,
		failOpen:    failOpen,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	pipe := l.redisClient.Pipeline()
	incrCmd := pipe.Incr(ctx, bucketKey)
	pipe.Expire(ctx, bucketKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.logger.Warn("rate limit check failed, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed := incrCmd.Val() <= int64(limit)
	if !allowed {
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", incrCmd.Val()),
			zap.Int("limit", limit),
		)
	}
	return allowed, nil
}

func (l *FixedWindowLimiter) GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	count, err := l.redisClient.Get(ctx, bucketKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return limit, nil
		}
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (l *FixedWindowLimiter) Reset(ctx context.Context, key string, window time.Duration) error {
	bucketKey := l.bucketKey(key, time.Now(), window)
	if err := l.redisClient.Del(ctx, bucketKey).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for key %s: %w", key, err)
	}
	return nil
}

func (l *FixedWindowLimiter) bucketKey(key string, now time.Time, window time.Duration) string {
	bucket := now.UnixNano() / int64(window)
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}
