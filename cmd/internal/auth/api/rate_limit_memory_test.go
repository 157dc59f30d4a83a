package api

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLoginLimiter_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	l := NewMemoryLoginLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	const key = "203.0.113.5|a@x.com"

	_ = l.Fail(ctx, key)
	now = now.Add(20 * time.Second)
	_ = l.Fail(ctx, key)

	blocked, retry, err := l.Blocked(ctx, key)
	if err != nil || !blocked {
		t.Fatalf("Blocked = (%v, %v), want blocked", blocked, err)
	}
	if retry != 40*time.Second {
		t.Fatalf("retry = %v, want 40s", retry)
	}

	if blocked, _, _ := l.Blocked(ctx, "198.51.100.7|a@x.com"); blocked {
		t.Fatalf("other key blocked")
	}

	// The first failure ages out; one remains inside the window.
	now = now.Add(41 * time.Second)
	if blocked, _, _ := l.Blocked(ctx, key); blocked {
		t.Fatalf("still blocked after oldest failure expired")
	}

	_ = l.Fail(ctx, key)
	if blocked, _, _ := l.Blocked(ctx, key); !blocked {
		t.Fatalf("expected blocked again")
	}
	_ = l.Reset(ctx, key)
	if blocked, _, _ := l.Blocked(ctx, key); blocked {
		t.Fatalf("blocked after reset")
	}
}

func TestMemoryLoginLimiter_Disabled(t *testing.T) {
	l := NewMemoryLoginLimiter(0, time.Minute)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = l.Fail(ctx, "k")
	}
	if blocked, _, _ := l.Blocked(ctx, "k"); blocked {
		t.Fatalf("disabled limiter blocked")
	}
}

func TestMemoryLoginLimiter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewMemoryLoginLimiter(1, time.Minute).Blocked(ctx, "k"); err == nil {
		t.Fatalf("expected ctx error")
	}
}
