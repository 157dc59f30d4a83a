package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when neither a session id nor a token was presented.
	ErrMissingCredential = errors.New("missing credential")

	// ErrSessionInvalid is returned when the session does not exist, is inactive,
	// or its owning user no longer exists.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrSessionExpired is returned when the session is past its expiry.
	// The record is deactivated before this error is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrTokenInvalid is returned when the bearer token fails verification,
	// or is bound to a different session or user.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrAccountBanned is returned when the owning user is banned.
	ErrAccountBanned = errors.New("account banned")

	// ErrSessionNotFound is the store-level miss. Service maps it to ErrSessionInvalid.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")

	// ErrSigningKeyMissing is returned by NewTokenManager when no key material is configured.
	ErrSigningKeyMissing = fmt.Errorf("%w: signing key missing", ErrConfig)
)

// IsRejection reports whether err is one of the authentication rejections
// (as opposed to an internal failure).
func IsRejection(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrSessionInvalid) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrAccountBanned)
}
