package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	SessionCookieName string
	TokenCookieName   string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool

	TrustProxy   bool
	MaxBodyBytes int64

	// Failed-login throttle per (client ip, email). Zero LoginMax disables it.
	LoginMax    int
	LoginWindow time.Duration

	// LogoutRequireProof makes /auth/logout demand the same two credentials
	// as protected routes. Off by default.
	LogoutRequireProof bool
}

// DefaultConfig returns development defaults.
func DefaultConfig() Config {
	return Config{
		SessionCookieName: "sid",
		TokenCookieName:   "token",
		CookiePath:        "/",
		MaxBodyBytes:      64 << 10,
		LoginMax:          10,
		LoginWindow:       15 * time.Minute,
	}
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
// Cookies are Secure when SCRIBE_ENV=production unless SCRIBE_AUTH_COOKIE_SECURE says otherwise.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	production := strings.EqualFold(strings.TrimSpace(os.Getenv("SCRIBE_ENV")), "production")

	cfg := Config{
		SessionCookieName:  envString("SCRIBE_AUTH_SESSION_COOKIE", def.SessionCookieName),
		TokenCookieName:    envString("SCRIBE_AUTH_TOKEN_COOKIE", def.TokenCookieName),
		CookiePath:         envString("SCRIBE_AUTH_COOKIE_PATH", def.CookiePath),
		CookieDomain:       strings.TrimSpace(os.Getenv("SCRIBE_AUTH_COOKIE_DOMAIN")),
		CookieSecure:       envBool("SCRIBE_AUTH_COOKIE_SECURE", production),
		TrustProxy:         envBool("SCRIBE_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:       envInt64("SCRIBE_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
		LoginMax:           envInt("SCRIBE_AUTH_LOGIN_MAX", def.LoginMax),
		LoginWindow:        envDuration("SCRIBE_AUTH_LOGIN_WINDOW", def.LoginWindow),
		LogoutRequireProof: envBool("SCRIBE_AUTH_LOGOUT_REQUIRE_PROOF", false),
	}

	// The two carriers must be distinct cookies.
	if cfg.SessionCookieName == cfg.TokenCookieName {
		cfg.SessionCookieName = def.SessionCookieName
		cfg.TokenCookieName = def.TokenCookieName
	}
	if !strings.HasPrefix(cfg.CookiePath, "/") {
		cfg.CookiePath = def.CookiePath
	}
	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
