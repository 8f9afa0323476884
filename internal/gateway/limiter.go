package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shareit/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter throttles callers by key (the identity header, or the remote
// host for anonymous endpoints).
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter counts requests per key in a fixed window via INCR+EXPIRE,
// so the limit holds across gateway replicas.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, cfg config.RateLimitConfig) *RedisLimiter {
	window := cfg.Window.Std()
	limit := int64(cfg.RPS * window.Seconds())
	if limit < 1 {
		limit = 1
	}
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}

	return count <= l.limit, nil
}

// LocalLimiter is the in-process fallback when redis is disabled.
type LocalLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rps      float64
	burst    int
}

func NewLocalLimiter(cfg config.RateLimitConfig) *LocalLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &LocalLimiter{rps: cfg.RPS, burst: burst}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.getLimiter(key).Allow(), nil
}

func (l *LocalLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
