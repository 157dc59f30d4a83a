package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scribe/cmd/identity"
	"scribe/cmd/internal/auth/scope"
	"scribe/cmd/internal/auth/session"
)

// Deps are the required collaborators of Handler.
type Deps struct {
	Users    identity.Store
	Sessions *session.Service
	Verifier session.CredentialVerifier
}

// Handler wires HTTP auth endpoints to the identity store and session manager.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	sessions *session.Service
	verifier session.CredentialVerifier

	limiter LoginLimiter
	audit   Auditor
	metrics *Metrics
	now     func() time.Time

	gate *Gate

	dummyHash string
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithLoginLimiter overrides the default no-op login limiter.
func WithLoginLimiter(l LoginLimiter) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.limiter = l
		}
	}
}

// WithAuditor overrides the default log auditor.
func WithAuditor(a Auditor) HandlerOption {
	return func(h *Handler) {
		if a != nil {
			h.audit = a
		}
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, d Deps, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if d.Users == nil || d.Sessions == nil || d.Verifier == nil {
		return nil, errors.New("auth: missing handler dependency")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		users:    d.Users,
		sessions: d.Sessions,
		verifier: d.Verifier,
		limiter:  NoopLimiter{},
		audit:    LogAuditor{Log: log},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	h.gate = NewGate(log, cfg, d.Sessions, h.metrics, h.now)

	// Dummy hash for timing-resistant login checks.
	hash, err := d.Verifier.Hash(context.Background(), "dummy-password-for-timing-only")
	if err != nil {
		return nil, err
	}
	h.dummyHash = hash

	return h, nil
}

// Gate returns the authentication gate used by protected routes.
func (h *Handler) Gate() *Gate { return h.gate }

// Register wires auth and user routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.Handle("GET /auth/session", h.gate.RequireFunc(h.handleSession))
	mux.Handle("DELETE /auth/sessions/{id}", h.gate.RequireFunc(h.handleRevokeSession))

	mux.Handle("GET /users/me", h.gate.RequireFunc(h.forceSelf(h.handleGetUser)))
	mux.Handle("GET /users/{id}", h.gate.RequireFunc(h.handleGetUserByID))
	mux.Handle("GET /users/{id}/sessions", h.gate.RequireFunc(h.handleListSessions))
	mux.Handle("PUT /users/{id}/ban", h.gate.RequireFunc(h.handleBan))
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if msg, ok := decodeValid(w, r, h.cfg.MaxBodyBytes, &req); !ok {
		h.metrics.loginAttempt("bad_request")
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	now := h.now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())
	email := identity.NormalizeEmail(req.Email)
	throttleKey := ip + "|" + email

	if blocked, retryAfter, err := h.limiter.Blocked(ctx, throttleKey); err != nil {
		h.log.Error("auth.login.throttle.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "please retry later")
		return
	} else if blocked {
		h.metrics.loginAttempt("throttled")
		h.audit.Record(ctx, AuditEvent{Action: "auth.login.rate_limited", IP: ip, UserAgent: ua, Meta: map[string]any{
			"email":         email,
			"retry_after_s": int64(retryAfter.Seconds()),
		}})
		writeRateLimited(w, retryAfter)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.internalError(w, "auth.login.lookup.fail", err)
			return
		}
		// Timing resistance: perform a dummy verify when user is missing.
		if _, err := h.verifier.Verify(ctx, req.Password, h.dummyHash); err != nil {
			h.internalError(w, "auth.login.verify.fail", err)
			return
		}
		h.loginFailed(ctx, w, throttleKey, AuditEvent{IP: ip, UserAgent: ua, Meta: map[string]any{"email": email, "reason": "not_found"}})
		return
	}

	ok, err := h.verifier.Verify(ctx, req.Password, user.PasswordHash)
	if err != nil {
		h.internalError(w, "auth.login.verify.fail", err)
		return
	}
	if !ok {
		h.loginFailed(ctx, w, throttleKey, AuditEvent{UserID: user.ID, IP: ip, UserAgent: ua, Meta: map[string]any{"email": email, "reason": "bad_password"}})
		return
	}

	if user.IsBanned {
		h.metrics.loginAttempt("banned")
		h.audit.Record(ctx, AuditEvent{Action: "auth.login.failed", UserID: user.ID, IP: ip, UserAgent: ua, Meta: map[string]any{"reason": "banned"}})
		writeError(w, http.StatusForbidden, msgAccountSuspended)
		return
	}

	issued, err := h.sessions.Create(ctx, now, user.ID, session.DeviceContext{IP: ip, UserAgent: ua})
	if err != nil {
		h.internalError(w, "auth.login.create_session.fail", err)
		return
	}

	if err := h.limiter.Reset(ctx, throttleKey); err != nil {
		h.log.Warn("auth.login.throttle_reset.fail", "err", err)
	}
	h.metrics.loginAttempt("success")
	h.audit.Record(ctx, AuditEvent{
		Action:    "auth.login.success",
		UserID:    user.ID,
		SessionID: issued.Session.ID,
		IP:        ip,
		UserAgent: ua,
		Meta:      map[string]any{"renewed": issued.Renewed},
	})
	h.log.Info("auth.login.ok", "user_id", user.ID, "session_id", issued.Session.ID, "renewed", issued.Renewed)

	h.cfg.setSessionCookies(w, issued.Session.ID, issued.Token, h.sessions.TTL())
	writeOK(w, "login successful", loginData{
		User:      toUserResponse(user),
		SessionID: issued.Session.ID,
	})
}

func (h *Handler) loginFailed(ctx context.Context, w http.ResponseWriter, throttleKey string, ev AuditEvent) {
	if err := h.limiter.Fail(ctx, throttleKey); err != nil {
		h.log.Warn("auth.login.throttle_record.fail", "err", err)
	}
	ev.Action = "auth.login.failed"
	h.metrics.loginAttempt("invalid_credentials")
	h.audit.Record(ctx, ev)
	writeError(w, http.StatusUnauthorized, "invalid credentials")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSONLenient(w, r, h.cfg.MaxBodyBytes, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	now := h.now().UTC()

	// An id that names no possible session revokes nothing.
	target, named := req.target()
	if !named {
		target, _ = h.cfg.credentials(r)
	}

	if h.cfg.LogoutRequireProof {
		id, err := h.gate.Authenticate(r)
		if err != nil {
			h.gate.reject(w, r, err)
			return
		}
		if !named {
			target = id.Session.ID
		}
		if target != "" && target != id.Session.ID {
			if ok := h.authorizeSessionOwner(w, r, id, target); !ok {
				return
			}
		}
	}

	if target != "" {
		var ownerID string
		if s, err := h.sessions.Get(ctx, target); err == nil {
			ownerID = s.UserID
		}
		if err := h.sessions.Revoke(ctx, now, target); err != nil {
			h.internalError(w, "auth.logout.fail", err)
			return
		}
		h.audit.Record(ctx, AuditEvent{
			Action:    "auth.logout",
			UserID:    ownerID,
			SessionID: target,
			IP:        clientIP(r, h.cfg.TrustProxy),
			UserAgent: strings.TrimSpace(r.UserAgent()),
		})
	}

	h.cfg.clearSessionCookies(w)
	writeOK(w, "logged out", nil)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())
	writeOK(w, "", sessionData{
		User:    toUserResponse(id.User),
		Session: toSessionResponse(id.Session),
	})
}

func (h *Handler) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())
	target := strings.TrimSpace(r.PathValue("id"))

	if ok := h.authorizeSessionOwner(w, r, id, target); !ok {
		return
	}
	if err := h.sessions.Revoke(r.Context(), h.now().UTC(), target); err != nil {
		h.internalError(w, "auth.session.revoke.fail", err)
		return
	}
	h.audit.Record(r.Context(), AuditEvent{
		Action:    "auth.session.revoked",
		UserID:    id.User.ID,
		SessionID: target,
		IP:        clientIP(r, h.cfg.TrustProxy),
		UserAgent: strings.TrimSpace(r.UserAgent()),
	})
	writeOK(w, "session revoked", nil)
}

// authorizeSessionOwner applies owner-or-admin to the session's stored owner.
// It writes the response and returns false when the caller may not proceed.
func (h *Handler) authorizeSessionOwner(w http.ResponseWriter, r *http.Request, id session.Identity, sessionID string) bool {
	s, err := h.sessions.Get(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return false
	}
	if err != nil {
		h.internalError(w, "auth.session.lookup.fail", err)
		return false
	}
	if err := scope.OwnerOrAdmin(id, s.UserID); err != nil {
		h.denied(w, r, err)
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func (h *Handler) denied(w http.ResponseWriter, r *http.Request, err error) {
	var d *scope.Denied
	if !errors.As(err, &d) {
		h.internalError(w, "auth.scope.fail", err)
		return
	}
	h.log.InfoContext(r.Context(), "auth.scope.denied", "scope", d.Scope, "path", r.URL.Path)
	writeError(w, http.StatusForbidden, d.Message)
}
