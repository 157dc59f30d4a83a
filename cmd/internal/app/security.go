package app

import (
	"errors"

	"scribe/cmd/security/token"
)

// ValidateSecurityConfig enforces scribe's startup security policy.
// Under SCRIBE_REQUIRE_TOKEN_HMAC the server refuses to start rather than fall
// back to unkeyed token digests.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Measured in bytes: the key is used raw.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: SCRIBE_REQUIRE_TOKEN_HMAC=true but SCRIBE_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: SCRIBE_REQUIRE_TOKEN_HMAC=true but SCRIBE_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.DigesterFromEnv().Keyed() {
		return errors.New("security policy: SCRIBE_REQUIRE_TOKEN_HMAC=true but token digester is not in HMAC mode")
	}

	return nil
}
