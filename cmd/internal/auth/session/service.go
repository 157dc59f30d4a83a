package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scribe/cmd/identity"
	"scribe/cmd/identity/ids"
	"scribe/cmd/security/token"
)

// CredentialVerifier hashes and verifies secrets with a deliberately slow hash.
// Verify returns (false, nil) for a mismatch or a malformed hash; a non-nil
// error is an internal failure such as cancellation.
type CredentialVerifier interface {
	Hash(ctx context.Context, secret string) (string, error)
	Verify(ctx context.Context, secret, encodedHash string) (bool, error)
}

// UserLookup resolves the owner of a session.
// A missing user must satisfy identity.IsNotFound.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (identity.User, error)
}

// Identity is the resolved principal of an authenticated request.
type Identity struct {
	User    identity.User
	Session Session
}

// Issued is the result of a login: the session record and its bearer token.
type Issued struct {
	Session Session
	Token   string

	// Renewed is true when an existing record for the triple was renewed in place.
	Renewed bool
}

// Deps bundles the collaborators of Service.
type Deps struct {
	Store    Store
	Tokens   TokenManager
	Verifier CredentialVerifier
	Users    UserLookup

	// Digest pre-hashes bearer tokens before the slow hash.
	// The zero value uses plain SHA-256.
	Digest token.Digester
}

// Service is the session manager: it creates or renews sessions, validates
// presented credentials, and revokes sessions.
//
// Service holds no mutable state; the Store is the single source of truth.
type Service struct {
	cfg Config
	d   Deps
}

// NewService constructs a Service.
func NewService(cfg Config, d Deps) (*Service, error) {
	if d.Store == nil || d.Tokens == nil || d.Verifier == nil || d.Users == nil {
		return nil, fmt.Errorf("%w: missing session dependency", ErrConfig)
	}
	if cfg.SessionTTL < time.Second {
		return nil, fmt.Errorf("%w: session ttl too short", ErrConfig)
	}
	return &Service{cfg: cfg, d: d}, nil
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration { return s.cfg.SessionTTL }

// Create opens a session for userID, or renews the caller's existing one.
//
// Under the per-triple lock it looks for an active, unexpired record for
// (userID, dev.IP, dev.UserAgent). A hit is renewed in place: same id, new
// token hash, new expiry. A miss inserts a new record under a fresh ULID.
func (s *Service) Create(ctx context.Context, now time.Time, userID string, dev DeviceContext) (Issued, error) {
	t := tripleFor(userID, dev)
	if t.UserID == "" {
		return Issued{}, fmt.Errorf("session: create: empty user id")
	}

	now = now.UTC()
	// Token time claims have second precision; keep the record aligned with them.
	expiresAt := now.Add(s.cfg.SessionTTL).Truncate(time.Second)

	var out Issued
	err := s.d.Store.WithTripleLock(ctx, t, func(st Store) error {
		existing, err := st.FindByTriple(ctx, t, now)
		renew := err == nil
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}

		id := existing.ID
		if !renew {
			if id, err = ids.NewULID(now); err != nil {
				return err
			}
		}

		tok, err := s.d.Tokens.Issue(t.UserID, id, now, expiresAt)
		if err != nil {
			return fmt.Errorf("session: issue token: %w", err)
		}
		hash, err := s.d.Verifier.Hash(ctx, s.d.Digest.Hex(tok))
		if err != nil {
			return fmt.Errorf("session: hash token: %w", err)
		}

		if renew {
			existing.TokenHash = hash
			existing.ExpiresAt = expiresAt
			existing.IsActive = true
			existing.UpdatedAt = now
			if err := st.Update(ctx, existing); err != nil {
				return err
			}
			out = Issued{Session: existing, Token: tok, Renewed: true}
			return nil
		}

		row := Session{
			ID:        id,
			UserID:    t.UserID,
			TokenHash: hash,
			IPAddress: t.IPAddress,
			UserAgent: t.UserAgent,
			IsActive:  true,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.Create(ctx, row); err != nil {
			return err
		}
		out = Issued{Session: row, Token: tok}
		return nil
	})
	if err != nil {
		return Issued{}, err
	}
	return out, nil
}

// Validate resolves a session id and bearer token into an Identity.
//
// Checks run in order and stop at the first failure:
//  1. missing or inactive record: ErrSessionInvalid
//  2. expired record: deactivated, then ErrSessionExpired
//  3. token signature, claims binding or hash mismatch: ErrTokenInvalid
//  4. owner missing: ErrSessionInvalid; owner banned: ErrAccountBanned
//
// Steps 3 and 4 never modify the record. Any other error is internal.
func (s *Service) Validate(ctx context.Context, now time.Time, sessionID, presented string) (Identity, error) {
	sessionID = strings.TrimSpace(sessionID)
	presented = strings.TrimSpace(presented)
	if sessionID == "" && presented == "" {
		return Identity{}, ErrMissingCredential
	}
	if sessionID == "" {
		return Identity{}, ErrSessionInvalid
	}

	row, err := s.d.Store.FindByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return Identity{}, ErrSessionInvalid
	}
	if err != nil {
		return Identity{}, err
	}
	if !row.IsActive {
		return Identity{}, ErrSessionInvalid
	}

	if !row.ExpiresAt.After(now) {
		if err := s.d.Store.Deactivate(ctx, row.ID, now.UTC()); err != nil {
			return Identity{}, err
		}
		return Identity{}, ErrSessionExpired
	}

	claims, err := s.d.Tokens.Verify(presented, now)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}
	if claims.SessionID != row.ID || claims.UserID != row.UserID {
		return Identity{}, ErrTokenInvalid
	}
	ok, err := s.d.Verifier.Verify(ctx, s.d.Digest.Hex(presented), row.TokenHash)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, ErrTokenInvalid
	}

	user, err := s.d.Users.GetUserByID(ctx, row.UserID)
	if identity.IsNotFound(err) {
		return Identity{}, ErrSessionInvalid
	}
	if err != nil {
		return Identity{}, err
	}
	if user.IsBanned {
		return Identity{}, ErrAccountBanned
	}

	return Identity{User: user, Session: row}, nil
}

// Revoke deactivates a session. Unknown and already inactive ids are a no-op.
func (s *Service) Revoke(ctx context.Context, now time.Time, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	return s.d.Store.Deactivate(ctx, sessionID, now.UTC())
}

// Get loads a session record in any state. A miss is ErrSessionNotFound.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	return s.d.Store.FindByID(ctx, strings.TrimSpace(sessionID))
}

// ListActive returns the user's active, unexpired sessions, newest first.
func (s *Service) ListActive(ctx context.Context, now time.Time, userID string) ([]Session, error) {
	return s.d.Store.ListByUser(ctx, strings.TrimSpace(userID), now)
}
