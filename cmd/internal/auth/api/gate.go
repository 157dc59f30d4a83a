package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"scribe/cmd/internal/auth/session"
)

// SessionValidator is the part of the session manager the gate needs.
type SessionValidator interface {
	Validate(ctx context.Context, now time.Time, sessionID, presented string) (session.Identity, error)
}

// Client-facing gate messages. Internal reasons never reach the client.
const (
	msgMissingCredential = "missing credential"
	msgInvalidSession    = "invalid or expired session"
	msgAccountSuspended  = "account is suspended"
	msgInternal          = "internal error"
)

// Gate authenticates requests from their session id and bearer token.
type Gate struct {
	log      *slog.Logger
	cfg      Config
	sessions SessionValidator
	metrics  *Metrics
	now      func() time.Time
}

// NewGate builds a Gate. A nil clock uses time.Now.
func NewGate(log *slog.Logger, cfg Config, sessions SessionValidator, metrics *Metrics, now func() time.Time) *Gate {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{log: log, cfg: cfg, sessions: sessions, metrics: metrics, now: now}
}

// Authenticate resolves the request's identity.
func (g *Gate) Authenticate(r *http.Request) (session.Identity, error) {
	sid, tok := g.cfg.credentials(r)
	if sid == "" && tok == "" {
		return session.Identity{}, session.ErrMissingCredential
	}
	return g.sessions.Validate(r.Context(), g.now().UTC(), sid, tok)
}

// Require runs next only for authenticated requests, with the identity
// attached to the request context.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			g.reject(w, r, err)
			return
		}
		g.metrics.gateDecision("allowed", "ok")
		next.ServeHTTP(w, r.WithContext(session.WithIdentity(r.Context(), id)))
	})
}

// RequireFunc is Require for handler functions.
func (g *Gate) RequireFunc(next http.HandlerFunc) http.Handler {
	return g.Require(next)
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, reason := gateOutcome(err)

	attrs := []any{"reason", reason, "path", r.URL.Path, "remote", clientIP(r, g.cfg.TrustProxy)}
	switch status {
	case http.StatusInternalServerError:
		g.log.ErrorContext(r.Context(), "auth.gate.error", append(attrs, "err", err)...)
		g.metrics.gateDecision("error", reason)
	case http.StatusForbidden:
		g.log.InfoContext(r.Context(), "auth.gate.forbidden", attrs...)
		g.metrics.gateDecision("forbidden", reason)
	default:
		g.log.InfoContext(r.Context(), "auth.gate.reject", attrs...)
		g.metrics.gateDecision("unauthenticated", reason)
	}
	writeError(w, status, msg)
}

// gateOutcome maps a validation error to status, client message and internal reason.
func gateOutcome(err error) (status int, msg string, reason string) {
	switch {
	case errors.Is(err, session.ErrMissingCredential):
		return http.StatusUnauthorized, msgMissingCredential, "missing_credential"
	case errors.Is(err, session.ErrSessionInvalid):
		return http.StatusUnauthorized, msgInvalidSession, "session_invalid"
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusUnauthorized, msgInvalidSession, "session_expired"
	case errors.Is(err, session.ErrTokenInvalid):
		return http.StatusUnauthorized, msgInvalidSession, "token_invalid"
	case errors.Is(err, session.ErrAccountBanned):
		return http.StatusForbidden, msgAccountSuspended, "account_banned"
	default:
		return http.StatusInternalServerError, msgInternal, "internal"
	}
}
