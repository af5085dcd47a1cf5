// Package ratelimit protects the write endpoints from runaway callers.
// A fixed window per caller is enough here: the ledger's appends are
// serialized at the chain tip anyway, so the limiter only needs to shed
// abusive load before it reaches the store.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter answers whether one more request from the given caller is allowed.
type Limiter interface {
	// Allow consumes one slot for key. When denied, retryAfter tells the
	// caller how long until the window resets.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

const redisKeyPrefix = "veritas:ratelimit:"

// RedisLimiter counts requests per caller in fixed windows shared across
// all service replicas.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows limit requests per caller per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

// Allow increments the caller's window counter. The first hit in a window
// sets the expiry so abandoned keys clean themselves up.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	windowStart := time.Now().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, windowStart.Unix())

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > l.limit {
		return false, time.Until(windowStart.Add(l.window)), nil
	}
	return true, 0, nil
}

// MemoryLimiter is the single-replica fallback used when Redis is not
// configured.
type MemoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	start  time.Time
	limit  int64
	window time.Duration
}

// NewMemoryLimiter allows limit requests per caller per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counts: make(map[string]int64),
		start:  time.Now().Truncate(window),
		limit:  int64(limit),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Truncate(l.window)
	if !windowStart.Equal(l.start) {
		l.counts = make(map[string]int64)
		l.start = windowStart
	}

	l.counts[key]++
	if l.counts[key] > l.limit {
		return false, windowStart.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}
