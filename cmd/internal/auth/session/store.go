package session

import (
	"context"
	"strings"
	"time"
)

// Session mirrors the scribe.sessions row.
// TokenHash is a bcrypt hash of the bearer token's digest; the raw token is never stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	IPAddress string
	UserAgent string
	IsActive  bool
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the record is active and unexpired at now.
// Token verification is separate.
func (s Session) Usable(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

// DeviceContext describes the client a login comes from.
type DeviceContext struct {
	IP        string
	UserAgent string
}

// maxUserAgentBytes bounds persisted user agents.
const maxUserAgentBytes = 512

// Triple is the (user, ip, user agent) key deciding renew-vs-create.
type Triple struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// Key returns a stable string form of the triple, used for locking.
func (t Triple) Key() string {
	return t.UserID + "\n" + t.IPAddress + "\n" + t.UserAgent
}

func tripleFor(userID string, dev DeviceContext) Triple {
	ua := strings.TrimSpace(dev.UserAgent)
	if len(ua) > maxUserAgentBytes {
		ua = ua[:maxUserAgentBytes]
	}
	return Triple{
		UserID:    strings.TrimSpace(userID),
		IPAddress: strings.TrimSpace(dev.IP),
		UserAgent: ua,
	}
}

// Store abstracts persistence for session state.
//
// Records are never hard-deleted. FindByID returns ErrSessionNotFound on a miss.
type Store interface {
	// Create inserts a new record. The caller assigns the id.
	Create(ctx context.Context, s Session) error

	// FindByID loads a record regardless of state.
	FindByID(ctx context.Context, id string) (Session, error)

	// FindByTriple returns the most recently updated active, unexpired record
	// for the triple, or ErrSessionNotFound.
	FindByTriple(ctx context.Context, t Triple, now time.Time) (Session, error)

	// Update overwrites token hash, expiry, active flag and updated_at of an existing record.
	Update(ctx context.Context, s Session) error

	// Deactivate flips is_active to false. Unknown or already inactive ids are not an error.
	Deactivate(ctx context.Context, id string, now time.Time) error

	// ListByUser returns the user's active, unexpired records, newest first.
	ListByUser(ctx context.Context, userID string, now time.Time) ([]Session, error)

	// WithTripleLock runs fn while holding an exclusive lock for the triple.
	// fn must use the Store it is given; for Postgres it is bound to the
	// transaction that holds the lock.
	WithTripleLock(ctx context.Context, t Triple, fn func(Store) error) error
}
