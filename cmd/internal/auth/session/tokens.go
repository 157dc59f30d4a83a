package session

import (
	"strings"
	"time"
)

// Claims is the identity envelope carried by a bearer token.
type Claims struct {
	UserID    string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
}

// TokenManager issues and verifies bearer tokens bound to a session.
//
// Verify returns ErrTokenInvalid for every signature, format, issuer, or
// time-claim failure.
type TokenManager interface {
	Issue(userID, sessionID string, now, exp time.Time) (string, error)
	Verify(token string, now time.Time) (Claims, error)
}

// NewTokenManager builds the TokenManager selected by cfg.TokenFormat.
func NewTokenManager(cfg Config) (TokenManager, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TokenFormat)) {
	case "", FormatJWT:
		return NewJWTManager(cfg)
	case FormatPaseto:
		return NewPasetoV4PublicManager(cfg)
	default:
		return nil, ErrConfig
	}
}

// maxTokenLen bounds presented tokens before any parsing work.
const maxTokenLen = 4096
