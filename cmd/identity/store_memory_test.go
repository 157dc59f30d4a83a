package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_CreateAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	u, err := s.CreateUser(ctx, CreateUserInput{
		Email:        "  Ada@Example.com ",
		Name:         "Ada",
		PasswordHash: "$2a$12$hash",
		Now:          now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Email != "Ada@Example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(now) || u.IsBanned || u.IsAdmin {
		t.Fatalf("unexpected defaults: %+v", u)
	}

	byEmail, err := s.GetUserByEmail(ctx, "ada@example.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("expected %q, got %q", u.ID, byEmail.ID)
	}

	byID, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != u.Email {
		t.Fatalf("expected email %q, got %q", u.Email, byID.Email)
	}
}

func TestMemoryStore_CreateUser_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	cases := []struct {
		name string
		in   CreateUserInput
	}{
		{name: "empty email", in: CreateUserInput{PasswordHash: "h"}},
		{name: "no at sign", in: CreateUserInput{Email: "nobody", PasswordHash: "h"}},
		{name: "empty hash", in: CreateUserInput{Email: "a@b.c"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateUser(ctx, tc.in)
			if !IsInvalidInput(err) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestMemoryStore_CreateUser_ConflictEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.CreateUser(ctx, CreateUserInput{Email: "user@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("create 1: %v", err)
	}
	_, err := s.CreateUser(ctx, CreateUserInput{Email: "USER@example.com", PasswordHash: "h"})
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("expected email conflict, got %#v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict in chain")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetUserByID(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("GetUserByID: expected not found, got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "missing@example.com"); !IsNotFound(err) {
		t.Fatalf("GetUserByEmail: expected not found, got %v", err)
	}
	if err := s.SetBanned(ctx, "missing", true, time.Now()); !IsNotFound(err) {
		t.Fatalf("SetBanned: expected not found, got %v", err)
	}
}

func TestMemoryStore_SetBanned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	u, err := s.CreateUser(ctx, CreateUserInput{Email: "ban@example.com", PasswordHash: "h", Now: t0})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	t1 := t0.Add(time.Hour)
	if err := s.SetBanned(ctx, u.ID, true, t1); err != nil {
		t.Fatalf("SetBanned: %v", err)
	}
	got, _ := s.GetUserByID(ctx, u.ID)
	if !got.IsBanned || !got.UpdatedAt.Equal(t1) {
		t.Fatalf("expected banned at %v, got %+v", t1, got)
	}

	if err := s.SetBanned(ctx, u.ID, false, t1); err != nil {
		t.Fatalf("unban: %v", err)
	}
	got, _ = s.GetUserByID(ctx, u.ID)
	if got.IsBanned {
		t.Fatalf("expected unbanned")
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	if _, err := s.GetUserByID(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
