package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds per-client throttle parameters.
type Config struct {
	Prefix      string
	MaxRequests int
	Window      time.Duration
}

// Limiter enforces per-client request budgets for unauthenticated entry
// points using Redis fixed-window counters. It complements the per-account
// windows stored on the credential record.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "gcip"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Allow records one request for (scope, ip) and returns ErrRateLimited once
// the budget for the current window is spent. An empty ip is never limited.
func (l *Limiter) Allow(ctx context.Context, scope, ip string) error {
	if l == nil || l.redis == nil || ip == "" {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.key(scope, ip), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRequests) {
		return ErrRateLimited
	}
	return nil
}

func (l *Limiter) key(scope, ip string) string {
	return l.config.Prefix + ":" + scope + ":" + ip
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
