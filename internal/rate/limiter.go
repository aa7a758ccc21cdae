package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters.
type Config struct {
	MaxUnauthorized int
	Window          time.Duration
}

// Limiter counts unauthorized lookups per client IP using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// New creates a [Limiter]. sessionPrefix is the session store's key prefix.
func New(redisClient redis.UniversalClient, sessionPrefix string, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		prefix: sessionPrefix + "-rl",
		config: cfg,
	}
}

// Check reports [ErrRateLimited] once ip has used up its budget for the
// current window. It never increments.
func (l *Limiter) Check(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}

	count, err := l.attempts(ctx, ip)
	if err != nil {
		return err
	}
	if count >= int64(l.config.MaxUnauthorized) {
		return ErrRateLimited
	}
	return nil
}

// RecordUnauthorized counts one unauthorized answer against ip.
func (l *Limiter) RecordUnauthorized(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	_, err := l.incrementWithTTL(ctx, l.key(ip), l.config.Window)
	return err
}

// Attempts returns the current counter for ip. Missing keys read as zero.
func (l *Limiter) Attempts(ctx context.Context, ip string) (int, error) {
	count, err := l.attempts(ctx, ip)
	return int(count), err
}

func (l *Limiter) attempts(ctx context.Context, ip string) (int64, error) {
	count, err := l.redis.Get(ctx, l.key(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) key(ip string) string {
	return l.prefix + ":" + ip
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
