package app

import (
	"strings"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	// Env is the deployment environment; "production" tightens defaults.
	Env string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// RedisURL enables the Redis-backed login throttle.
	RedisURL string

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, SCRIBE_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and bearer-token digests are HMAC-based.
	RequireTokenHMAC bool

	// Dev seed user, created at startup in memory mode only.
	DevSeedEmail    string
	DevSeedPassword string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SCRIBE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("SCRIBE_LOG_LEVEL", "info"),
		LogFormat: EnvString("SCRIBE_LOG_FORMAT", "json"),
		Env:       EnvString("SCRIBE_ENV", "development"),

		ReadHeaderTimeout: EnvDuration("SCRIBE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SCRIBE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SCRIBE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SCRIBE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SCRIBE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("SCRIBE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("SCRIBE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SCRIBE_DB_MIN_CONNS", 0),

		RedisURL: EnvString("SCRIBE_REDIS_URL", ""),

		ReadinessRequireDB: EnvBool("SCRIBE_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("SCRIBE_REQUIRE_TOKEN_HMAC", false),

		DevSeedEmail:    EnvString("SCRIBE_DEV_SEED_EMAIL", ""),
		DevSeedPassword: EnvString("SCRIBE_DEV_SEED_PASSWORD", ""),
	}
}

// Production reports whether the server runs with production defaults.
func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}
