package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options locate the Redis instance shared by every replica.
type Options struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// RedisClient wraps the Redis client with a health check.
type RedisClient struct {
	client *redis.Client
	addr   string
}

// NewRedisClient connects and pings Redis. The caller decides whether a
// failure is fatal; the rate limiter can run on local limiters alone.
func NewRedisClient(ctx context.Context, opts Options) (*RedisClient, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	slog.Info("Redis client connected", "addr", opts.Addr, "db", opts.DB)
	return &RedisClient{client: client, addr: opts.Addr}, nil
}

// HealthCheck pings the server.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the connection pool.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// PoolStats returns connection pool statistics.
func (r *RedisClient) PoolStats() map[string]any {
	stats := r.client.PoolStats()
	return map[string]any{
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
