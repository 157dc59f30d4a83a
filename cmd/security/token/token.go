package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// HMACEnvKey is the env var name for the token HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "SCRIBE_TOKEN_HMAC_KEY"
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrHMACKeyMissing.
// If too short -> ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// Digester reduces bearer credentials to a 64-char hex digest.
// The zero value uses plain SHA-256.
type Digester struct {
	key []byte
}

// NewDigester returns a Digester that uses HMAC-SHA256 when key is non-empty.
func NewDigester(key []byte) Digester {
	if len(key) == 0 {
		return Digester{}
	}
	k := make([]byte, len(key))
	copy(k, key)
	return Digester{key: k}
}

// DigesterFromEnv builds a Digester from SCRIBE_TOKEN_HMAC_KEY, falling back to SHA-256.
func DigesterFromEnv() Digester {
	key, err := HMACKeyFromEnv(0)
	if err != nil {
		return Digester{}
	}
	return NewDigester(key)
}

// Keyed reports whether the digester is in HMAC mode.
func (d Digester) Keyed() bool { return len(d.key) > 0 }

// Hex returns the digest of s.
func (d Digester) Hex(s string) string {
	if len(d.key) == 0 {
		return HashSHA256Hex(s)
	}
	return HashHMACSHA256Hex(s, d.key)
}
