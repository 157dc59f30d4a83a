package session

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

// Token formats accepted by SCRIBE_TOKEN_FORMAT.
const (
	FormatJWT    = "jwt"
	FormatPaseto = "paseto"
)

// MinTokenSecretBytes is the minimum HS256 secret length.
const MinTokenSecretBytes = 32

// Config defines runtime configuration for the session subsystem.
type Config struct {
	// SessionTTL is the fixed lifetime of a session from issuance or renewal.
	SessionTTL time.Duration

	// Issuer is the value set in the "iss" claim of bearer tokens.
	Issuer string

	// TokenFormat selects the bearer token encoding: "jwt" or "paseto".
	TokenFormat string

	// TokenSecret is the HS256 secret used when TokenFormat is "jwt".
	TokenSecret string

	// PasetoV4SecretKeyHex is the hex-encoded Ed25519 secret key
	// used when TokenFormat is "paseto".
	PasetoV4SecretKeyHex string

	// ClockSkew is the tolerance applied to token time claims.
	ClockSkew time.Duration
}

// DefaultConfig returns the development defaults. Key material is left empty.
func DefaultConfig() Config {
	return Config{
		SessionTTL:  24 * time.Hour,
		Issuer:      "scribe",
		TokenFormat: FormatJWT,
		ClockSkew:   30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - SCRIBE_SESSION_TTL (Go duration, >= 1s)
//   - SCRIBE_TOKEN_ISSUER
//   - SCRIBE_TOKEN_FORMAT (jwt|paseto)
//   - SCRIBE_TOKEN_SECRET
//   - SCRIBE_PASETO_V4_SECRET_KEY_HEX
//   - SCRIBE_AUTH_CLOCK_SKEW (Go duration, >= 0)
//
// Key presence is checked by NewTokenManager, not here.
// Returns ErrConfig if a value is malformed.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("SCRIBE_SESSION_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Second {
			return Config{}, ErrConfig
		}
		cfg.SessionTTL = d
	}

	if v := strings.TrimSpace(os.Getenv("SCRIBE_TOKEN_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := strings.TrimSpace(os.Getenv("SCRIBE_TOKEN_FORMAT")); v != "" {
		v = strings.ToLower(v)
		if v != FormatJWT && v != FormatPaseto {
			return Config{}, ErrConfig
		}
		cfg.TokenFormat = v
	}

	if v := strings.TrimSpace(os.Getenv("SCRIBE_AUTH_CLOCK_SKEW")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.TokenSecret = os.Getenv("SCRIBE_TOKEN_SECRET")
	if cfg.TokenSecret != "" && len(cfg.TokenSecret) < MinTokenSecretBytes {
		return Config{}, ErrConfig
	}
	cfg.PasetoV4SecretKeyHex = strings.TrimSpace(os.Getenv("SCRIBE_PASETO_V4_SECRET_KEY_HEX"))

	return cfg, nil
}

// WithEphemeralKey returns a copy of cfg carrying freshly generated key
// material for its token format. Tokens signed with it die with the process.
func (c Config) WithEphemeralKey() (Config, error) {
	switch c.TokenFormat {
	case FormatPaseto:
		c.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	default:
		b := make([]byte, MinTokenSecretBytes)
		if _, err := rand.Read(b); err != nil {
			return Config{}, err
		}
		c.TokenSecret = hex.EncodeToString(b)
	}
	return c, nil
}
