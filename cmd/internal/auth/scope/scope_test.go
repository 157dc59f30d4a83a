package scope

import (
	"context"
	"errors"
	"testing"

	"scribe/cmd/identity"
	"scribe/cmd/internal/auth/session"
)

func ident(id string, admin bool) session.Identity {
	return session.Identity{User: identity.User{ID: id, IsAdmin: admin}}
}

func TestPredicates(t *testing.T) {
	alice := ident("alice", false)
	root := ident("root", true)

	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "self: own id", err: SelfOnly(alice, "alice")},
		{name: "self: implicit me", err: SelfOnly(alice, "")},
		{name: "self: other", err: SelfOnly(alice, "bob"), wantMsg: MsgSelfOnly},
		{name: "self: admin gets no bypass", err: SelfOnly(root, "bob"), wantMsg: MsgSelfOnly},
		{name: "admin: admin", err: AdminOnly(root)},
		{name: "admin: non-admin", err: AdminOnly(alice), wantMsg: MsgAdminOnly},
		{name: "self-or-admin: self", err: SelfOrAdmin(alice, "alice")},
		{name: "self-or-admin: admin", err: SelfOrAdmin(root, "bob")},
		{name: "self-or-admin: other", err: SelfOrAdmin(alice, "bob"), wantMsg: MsgSelfOrAdmin},
		{name: "owner: owner", err: OwnerOrAdmin(alice, "alice")},
		{name: "owner: admin", err: OwnerOrAdmin(root, "alice")},
		{name: "owner: other", err: OwnerOrAdmin(alice, "bob"), wantMsg: MsgOwnerOrAdmin},
		{name: "owner: unowned", err: OwnerOrAdmin(alice, ""), wantMsg: MsgOwnerOrAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.wantMsg == "" {
				if tc.err != nil {
					t.Fatalf("expected pass, got %v", tc.err)
				}
				return
			}
			var d *Denied
			if !errors.As(tc.err, &d) {
				t.Fatalf("expected *Denied, got %v", tc.err)
			}
			if d.Message != tc.wantMsg {
				t.Fatalf("message mismatch: got %q want %q", d.Message, tc.wantMsg)
			}
		})
	}
}

func TestMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range []string{MsgSelfOnly, MsgAdminOnly, MsgSelfOrAdmin, MsgOwnerOrAdmin} {
		if seen[m] {
			t.Fatalf("duplicate message %q", m)
		}
		seen[m] = true
	}
}

func TestForcedSelfAndTarget(t *testing.T) {
	alice := ident("alice", false)
	if got := ForcedSelf(alice); got != "alice" {
		t.Fatalf("ForcedSelf: got %q", got)
	}

	if _, ok := TargetFrom(context.Background()); ok {
		t.Fatalf("expected no target on empty context")
	}
	ctx := WithTarget(context.Background(), ForcedSelf(alice))
	got, ok := TargetFrom(ctx)
	if !ok || got != "alice" {
		t.Fatalf("TargetFrom: got %q ok=%v", got, ok)
	}
}
