// Package scope holds the authorization predicates applied after the
// authentication gate. Each predicate is pure: it reads the resolved
// identity and a target owner id and returns nil or a *Denied.
package scope

import (
	"context"
	"strings"

	"scribe/cmd/internal/auth/session"
)

// Denied is an authorization failure. Message is safe to show to clients.
type Denied struct {
	Scope   string
	Message string
}

func (d *Denied) Error() string { return d.Message }

// Distinct rejection messages per predicate.
const (
	MsgSelfOnly     = "you can only access your own account"
	MsgAdminOnly    = "admin privileges required"
	MsgSelfOrAdmin  = "you can only access your own account unless you are an admin"
	MsgOwnerOrAdmin = "you do not own this resource"
)

// SelfOnly passes when target is the caller's own id.
// An empty target means an implicit "me" and always passes.
func SelfOnly(id session.Identity, target string) error {
	target = strings.TrimSpace(target)
	if target == "" || target == id.User.ID {
		return nil
	}
	return &Denied{Scope: "self", Message: MsgSelfOnly}
}

// AdminOnly passes for admins.
func AdminOnly(id session.Identity) error {
	if id.User.IsAdmin {
		return nil
	}
	return &Denied{Scope: "admin", Message: MsgAdminOnly}
}

// SelfOrAdmin passes when either SelfOnly or AdminOnly passes.
func SelfOrAdmin(id session.Identity, target string) error {
	if SelfOnly(id, target) == nil || AdminOnly(id) == nil {
		return nil
	}
	return &Denied{Scope: "self_or_admin", Message: MsgSelfOrAdmin}
}

// OwnerOrAdmin passes when the caller owns the resource or is an admin.
// ownerID comes from the caller's resource lookup; an empty owner never
// matches, so unowned resources are admin-only.
func OwnerOrAdmin(id session.Identity, ownerID string) error {
	ownerID = strings.TrimSpace(ownerID)
	if (ownerID != "" && ownerID == id.User.ID) || id.User.IsAdmin {
		return nil
	}
	return &Denied{Scope: "owner_or_admin", Message: MsgOwnerOrAdmin}
}

// ForcedSelf returns the caller's own id, ignoring any client-supplied target.
func ForcedSelf(id session.Identity) string {
	return id.User.ID
}

type targetKey struct{}

// WithTarget records the target user id for downstream handlers.
// Callers set it from ForcedSelf; it is never populated from request input.
func WithTarget(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, targetKey{}, userID)
}

// TargetFrom returns the target recorded by WithTarget.
func TargetFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(targetKey{}).(string)
	return v, ok && v != ""
}
