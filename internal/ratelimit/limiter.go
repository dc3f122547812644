package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter enforces a per-IP request budget across replicas using the
// GCRA implementation in redis_rate.
type Limiter struct {
	limiter *redis_rate.Limiter
	client  *RedisClient
	limit   redis_rate.Limit
}

// NewLimiter allows perMinute requests per IP per minute, with a burst of perMinute.
func NewLimiter(client *RedisClient, perMinute int) *Limiter {
	return &Limiter{
		limiter: redis_rate.NewLimiter(client.client),
		client:  client,
		limit:   redis_rate.PerMinute(perMinute),
	}
}

// AllowIP records one request from ip.
func (l *Limiter) AllowIP(ctx context.Context, ip string) (Result, error) {
	res, err := l.limiter.Allow(ctx, "ratelimit:ip:"+ip, l.limit)
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit check: %w", err)
	}

	return Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

// Reset clears the budget of ip.
func (l *Limiter) Reset(ctx context.Context, ip string) error {
	return l.limiter.Reset(ctx, "ratelimit:ip:"+ip)
}

// HealthCheck pings the backing Redis.
func (l *Limiter) HealthCheck(ctx context.Context) error {
	return l.client.HealthCheck(ctx)
}

// Stats reports the limit and the Redis pool.
func (l *Limiter) Stats() map[string]any {
	return map[string]any{
		"backend":    "redis",
		"per_minute": l.limit.Rate,
		"pool":       l.client.PoolStats(),
	}
}
