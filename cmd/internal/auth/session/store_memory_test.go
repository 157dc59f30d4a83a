package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_FindByTriple_SkipsUnusable(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := Triple{UserID: "u1", IPAddress: "203.0.113.5", UserAgent: "UA-1"}

	rows := []Session{
		{ID: "expired", UserID: "u1", IPAddress: tr.IPAddress, UserAgent: tr.UserAgent, IsActive: true, ExpiresAt: now, UpdatedAt: now},
		{ID: "inactive", UserID: "u1", IPAddress: tr.IPAddress, UserAgent: tr.UserAgent, IsActive: false, ExpiresAt: now.Add(time.Hour), UpdatedAt: now},
		{ID: "other-ua", UserID: "u1", IPAddress: tr.IPAddress, UserAgent: "UA-2", IsActive: true, ExpiresAt: now.Add(time.Hour), UpdatedAt: now},
	}
	for _, r := range rows {
		if err := m.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.ID, err)
		}
	}

	if _, err := m.FindByTriple(ctx, tr, now); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	live := Session{ID: "live", UserID: "u1", IPAddress: tr.IPAddress, UserAgent: tr.UserAgent, IsActive: true, ExpiresAt: now.Add(time.Hour), UpdatedAt: now}
	if err := m.Create(ctx, live); err != nil {
		t.Fatalf("Create live: %v", err)
	}
	got, err := m.FindByTriple(ctx, tr, now)
	if err != nil || got.ID != "live" {
		t.Fatalf("expected live record, got %+v (%v)", got, err)
	}

	if err := m.Create(ctx, live); err == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
}

func TestMemoryStore_DeactivateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := m.Create(ctx, Session{ID: "s1", IsActive: true, ExpiresAt: now.Add(time.Hour), UpdatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := now.Add(time.Minute)
	if err := m.Deactivate(ctx, "s1", later); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := m.Deactivate(ctx, "s1", later.Add(time.Minute)); err != nil {
		t.Fatalf("Deactivate again: %v", err)
	}
	if err := m.Deactivate(ctx, "missing", later); err != nil {
		t.Fatalf("Deactivate unknown: %v", err)
	}

	s, _ := m.FindByID(ctx, "s1")
	if s.IsActive || !s.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected row after deactivation: %+v", s)
	}
}

func TestMemoryStore_WithTripleLock_HonorsContext(t *testing.T) {
	m := NewMemoryStore()
	tr := Triple{UserID: "u1", IPAddress: "ip", UserAgent: "ua"}

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- m.WithTripleLock(context.Background(), tr, func(Store) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.WithTripleLock(ctx, tr, func(Store) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while lock is held, got %v", err)
	}

	// A different triple is not blocked.
	other := Triple{UserID: "u1", IPAddress: "ip", UserAgent: "ua-2"}
	if err := m.WithTripleLock(context.Background(), other, func(Store) error { return nil }); err != nil {
		t.Fatalf("unrelated triple blocked: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}

	m.locksMu.Lock()
	n := len(m.locks)
	m.locksMu.Unlock()
	if n != 0 {
		t.Fatalf("expected lock table to drain, got %d entries", n)
	}
}
