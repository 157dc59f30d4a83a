package api

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold bounds how many keys may sit idle before a full prune.
const sweepThreshold = 10_000

// MemoryLoginLimiter is a per-process sliding-window failure counter.
// It serves single-instance deployments without Redis.
type MemoryLoginLimiter struct {
	mu     sync.Mutex
	fails  map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

// NewMemoryLoginLimiter returns a limiter allowing max failures per sliding window.
func NewMemoryLoginLimiter(max int, window time.Duration) *MemoryLoginLimiter {
	if window <= 0 {
		window = DefaultConfig().LoginWindow
	}
	return &MemoryLoginLimiter{
		fails:  make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLoginLimiter) Blocked(ctx context.Context, key string) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	if l.max <= 0 {
		return false, 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	events := l.prune(key, now)
	if len(events) < l.max {
		return false, 0, nil
	}
	// Unblocked once enough of the oldest failures age out.
	return true, events[len(events)-l.max].Add(l.window).Sub(now), nil
}

func (l *MemoryLoginLimiter) Fail(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.max <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.fails) >= sweepThreshold {
		for k := range l.fails {
			l.prune(k, now)
		}
	}
	l.fails[key] = append(l.prune(key, now), now)
	return nil
}

func (l *MemoryLoginLimiter) Reset(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	delete(l.fails, key)
	l.mu.Unlock()
	return nil
}

// prune drops failures outside the window. Caller holds l.mu.
func (l *MemoryLoginLimiter) prune(key string, now time.Time) []time.Time {
	events := l.fails[key]
	cut := now.Add(-l.window)
	dst := events[:0]
	for _, t := range events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	if len(dst) == 0 {
		delete(l.fails, key)
		return nil
	}
	l.fails[key] = dst
	return dst
}
