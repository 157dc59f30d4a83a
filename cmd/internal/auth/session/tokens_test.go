package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func testTokenConfigs(t *testing.T) map[string]Config {
	t.Helper()

	jwtCfg := DefaultConfig()
	jwtCfg.TokenSecret = strings.Repeat("s", MinTokenSecretBytes)
	jwtCfg.ClockSkew = 0

	pasetoCfg := DefaultConfig()
	pasetoCfg.TokenFormat = FormatPaseto
	pasetoCfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	pasetoCfg.ClockSkew = 0

	return map[string]Config{FormatJWT: jwtCfg, FormatPaseto: pasetoCfg}
}

func TestTokenManagers_IssueAndVerify(t *testing.T) {
	for name, cfg := range testTokenConfigs(t) {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			mgr, err := NewTokenManager(cfg)
			if err != nil {
				t.Fatalf("NewTokenManager: %v", err)
			}

			now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
			exp := now.Add(time.Hour)

			tok, err := mgr.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", "01HYYYYYYYYYYYYYYYYYYYYYYY", now, exp)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			claims, err := mgr.Verify(tok, now.Add(time.Second))
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" || claims.SessionID != "01HYYYYYYYYYYYYYYYYYYYYYYY" {
				t.Fatalf("claims mismatch: %+v", claims)
			}
			if !claims.ExpiresAt.Equal(exp) {
				t.Fatalf("exp mismatch: got %v want %v", claims.ExpiresAt, exp)
			}
			if claims.Issuer != "scribe" {
				t.Fatalf("issuer mismatch: %q", claims.Issuer)
			}
		})
	}
}

func TestTokenManagers_RejectExpired(t *testing.T) {
	for name, cfg := range testTokenConfigs(t) {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			mgr, err := NewTokenManager(cfg)
			if err != nil {
				t.Fatalf("NewTokenManager: %v", err)
			}

			now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
			tok, err := mgr.Issue("u", "s", now, now.Add(time.Minute))
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if _, err := mgr.Verify(tok, now.Add(2*time.Minute)); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestTokenManagers_RejectForeignKeyAndGarbage(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for name, cfg := range testTokenConfigs(t) {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			mgr, err := NewTokenManager(cfg)
			if err != nil {
				t.Fatalf("NewTokenManager: %v", err)
			}

			other, err := cfg.WithEphemeralKey()
			if err != nil {
				t.Fatalf("WithEphemeralKey: %v", err)
			}
			otherMgr, err := NewTokenManager(other)
			if err != nil {
				t.Fatalf("NewTokenManager(other): %v", err)
			}
			foreign, err := otherMgr.Issue("u", "s", now, now.Add(time.Hour))
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			for _, tok := range []string{"", "garbage", foreign, strings.Repeat("a", maxTokenLen+1)} {
				if _, err := mgr.Verify(tok, now); !errors.Is(err, ErrTokenInvalid) {
					t.Fatalf("expected ErrTokenInvalid for %.20q, got %v", tok, err)
				}
			}
		})
	}
}

func TestJWTManager_RejectsWrongIssuer(t *testing.T) {
	cfgs := testTokenConfigs(t)
	a := cfgs[FormatJWT]
	b := a
	b.Issuer = "someone-else"

	ma, _ := NewJWTManager(a)
	mb, _ := NewJWTManager(b)

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tok, err := mb.Issue("u", "s", now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := ma.Verify(tok, now); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewTokenManager_UnknownFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenFormat = "saml"
	if _, err := NewTokenManager(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
