package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles failed logins per key.
type LoginLimiter interface {
	// Blocked reports whether key is over its failure budget and for how long.
	Blocked(ctx context.Context, key string) (bool, time.Duration, error)
	// Fail records one failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset clears the failures for key after a successful login.
	Reset(ctx context.Context, key string) error
}

// NoopLimiter never blocks.
type NoopLimiter struct{}

func (NoopLimiter) Blocked(context.Context, string) (bool, time.Duration, error) { return false, 0, nil }
func (NoopLimiter) Fail(context.Context, string) error                         { return nil }
func (NoopLimiter) Reset(context.Context, string) error                        { return nil }

// RedisLoginLimiter is a fixed-window failure counter in Redis.
// The window opens on the first failure and the key expires with it.
type RedisLoginLimiter struct {
	rdb    redis.UniversalClient
	max    int
	window time.Duration
	prefix string
}

// NewRedisLoginLimiter returns a limiter allowing max failures per window.
func NewRedisLoginLimiter(rdb redis.UniversalClient, max int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{rdb: rdb, max: max, window: window, prefix: "scribe:login:fail:"}
}

func (l *RedisLoginLimiter) Blocked(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.max <= 0 {
		return false, 0, nil
	}
	k := l.prefix + key

	n, err := l.rdb.Get(ctx, k).Int()
	if err == redis.Nil {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if n < l.max {
		return false, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl <= 0 {
		ttl = l.window
	}
	return true, ttl, nil
}

func (l *RedisLoginLimiter) Fail(ctx context.Context, key string) error {
	if l.max <= 0 {
		return nil
	}
	k := l.prefix + key

	// The counter and its expiry are written in one transaction, so a key
	// can never exist without a TTL.
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, k, 0, l.window)
		p.Incr(ctx, k)
		return nil
	})
	return err
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.prefix+key).Err()
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
}
