package password

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies secrets with bcrypt. It is safe for concurrent use.
type Hasher struct {
	cost int
}

// New returns a Hasher for cfg, clamping the cost into bcrypt's valid range.
func New(cfg Config) *Hasher {
	cost := cfg.Cost
	if cost <= 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the work factor used by Hash.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns a bcrypt hash of secret.
// It returns ctx.Err() if the context ends before hashing completes.
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	if len(secret) > MaxSecretBytes {
		return "", ErrSecretTooLong
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		hash []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
		done <- result{hash: b, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return string(res.hash), nil
	}
}

// Verify reports whether secret matches encodedHash.
//
// Mismatches and malformed or out-of-bounds hashes yield (false, nil).
// The only errors returned come from ctx, so callers can tell an aborted
// check apart from a failed one.
func (h *Hasher) Verify(ctx context.Context, secret, encodedHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if secret == "" || len(secret) > MaxSecretBytes {
		return false, nil
	}
	if err := h.checkHash(encodedHash); err != nil {
		return false, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(secret))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-done:
		return err == nil, nil
	}
}

// checkHash rejects hashes that are not bcrypt or would be pathologically slow to verify.
func (h *Hasher) checkHash(encodedHash string) error {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return errors.Join(ErrInvalidHash, err)
	}
	if cost > h.cost+costHeadroom {
		return ErrInvalidHash
	}
	return nil
}
