package password

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testHasher() *Hasher {
	return New(Config{Cost: bcrypt.MinCost})
}

func TestHashAndVerify_OK(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	enc, err := h.Hash(ctx, "P@ssw0rd1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if enc == "P@ssw0rd1" {
		t.Fatalf("hash must not equal the secret")
	}

	ok, err := h.Verify(ctx, "P@ssw0rd1", enc)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestHash_IsSalted(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	a, err := h.Hash(ctx, "same secret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := h.Hash(ctx, "same secret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct salted hashes")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	enc, err := h.Hash(ctx, "P@ssw0rd1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify(ctx, "wrong password", enc)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_MalformedHashIsFalseNotError(t *testing.T) {
	h := testHasher()

	for _, enc := range []string{"", "not-a-hash", "$2a$", "$argon2id$v=19$m=1,t=1,p=1$x$y"} {
		ok, err := h.Verify(context.Background(), "whatever", enc)
		if err != nil {
			t.Fatalf("Verify(%q) error: %v", enc, err)
		}
		if ok {
			t.Fatalf("Verify(%q) expected false", enc)
		}
	}
}

func TestVerify_RejectsExcessiveCost(t *testing.T) {
	h := testHasher()

	enc, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost+costHeadroom+1)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	ok, err := h.Verify(context.Background(), "secret", string(enc))
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for excessive cost, got (%v, %v)", ok, err)
	}
}

func TestHash_InputBounds(t *testing.T) {
	h := testHasher()
	ctx := context.Background()

	if _, err := h.Hash(ctx, ""); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	if _, err := h.Hash(ctx, strings.Repeat("a", MaxSecretBytes+1)); err != ErrSecretTooLong {
		t.Fatalf("expected ErrSecretTooLong, got %v", err)
	}
}

func TestVerify_CanceledContext(t *testing.T) {
	h := testHasher()

	enc, err := h.Hash(context.Background(), "P@ssw0rd1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := h.Verify(ctx, "P@ssw0rd1", enc)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ok {
		t.Fatalf("expected false on canceled context")
	}
}

func TestNew_ClampsCost(t *testing.T) {
	if got := New(Config{Cost: 0}).Cost(); got != DefaultCost {
		t.Fatalf("zero cost: got %d want %d", got, DefaultCost)
	}
	if got := New(Config{Cost: 1}).Cost(); got != bcrypt.MinCost {
		t.Fatalf("low cost: got %d want %d", got, bcrypt.MinCost)
	}
	if got := New(Config{Cost: 99}).Cost(); got != bcrypt.MaxCost {
		t.Fatalf("high cost: got %d want %d", got, bcrypt.MaxCost)
	}
}
