package api

import (
	"net/http"
	"strings"

	"scribe/cmd/identity"
	"scribe/cmd/internal/auth/scope"
	"scribe/cmd/internal/auth/session"
)

// forceSelf pins the target user to the caller; path input is ignored.
func (h *Handler) forceSelf(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, msgMissingCredential)
			return
		}
		next(w, r.WithContext(scope.WithTarget(r.Context(), scope.ForcedSelf(id))))
	}
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())
	target, _ := scope.TargetFrom(r.Context())
	if err := scope.SelfOnly(id, target); err != nil {
		h.denied(w, r, err)
		return
	}
	// The gate already loaded the caller; no second lookup for /users/me.
	writeOK(w, "", userData{User: toUserResponse(id.User)})
}

func (h *Handler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())
	target := strings.TrimSpace(r.PathValue("id"))
	if err := scope.SelfOrAdmin(id, target); err != nil {
		h.denied(w, r, err)
		return
	}

	u, err := h.users.GetUserByID(r.Context(), target)
	if identity.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internalError(w, "users.get.fail", err)
		return
	}
	writeOK(w, "", userData{User: toUserResponse(u)})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())
	target := strings.TrimSpace(r.PathValue("id"))
	if err := scope.SelfOrAdmin(id, target); err != nil {
		h.denied(w, r, err)
		return
	}

	list, err := h.sessions.ListActive(r.Context(), h.now().UTC(), target)
	if err != nil {
		h.internalError(w, "users.sessions.list.fail", err)
		return
	}
	writeOK(w, "", sessionsData{Sessions: toSessionResponses(list)})
}

func (h *Handler) handleBan(w http.ResponseWriter, r *http.Request) {
	id, _ := session.IdentityFrom(r.Context())
	if err := scope.AdminOnly(id); err != nil {
		h.denied(w, r, err)
		return
	}

	var req banRequest
	if msg, ok := decodeValid(w, r, h.cfg.MaxBodyBytes, &req); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	target := strings.TrimSpace(r.PathValue("id"))
	if target == id.User.ID {
		writeError(w, http.StatusBadRequest, "you cannot change your own ban status")
		return
	}

	ctx := r.Context()
	if err := h.users.SetBanned(ctx, target, *req.Banned, h.now().UTC()); err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.internalError(w, "users.ban.fail", err)
		return
	}

	u, err := h.users.GetUserByID(ctx, target)
	if err != nil {
		h.internalError(w, "users.get.fail", err)
		return
	}

	action := "users.unbanned"
	if u.IsBanned {
		action = "users.banned"
	}
	h.audit.Record(ctx, AuditEvent{
		Action:    action,
		UserID:    u.ID,
		IP:        clientIP(r, h.cfg.TrustProxy),
		UserAgent: strings.TrimSpace(r.UserAgent()),
		Meta:      map[string]any{"by": id.User.ID},
	})
	h.log.Info("users.ban.updated", "user_id", u.ID, "banned", u.IsBanned, "by", id.User.ID)

	msg := "user unbanned"
	if u.IsBanned {
		msg = "user banned"
	}
	writeOK(w, msg, userData{User: toUserResponse(u)})
}
