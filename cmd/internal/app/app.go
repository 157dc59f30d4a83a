// Package app wires the scribe server runtime: config, logging, persistence,
// the session manager, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scribe/cmd/identity"
	"scribe/cmd/internal/auth/api"
	"scribe/cmd/internal/auth/session"
	"scribe/cmd/security/password"
	"scribe/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// App is the scribe server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool
	rdb       *redis.Client

	registry *prometheus.Registry
	auth     *api.Handler
}

// stores is the persistence selected at startup.
type stores struct {
	users    identity.Store
	sessions session.Store
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	ctx := context.Background()

	a := &App{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	auth, err := a.newAuthHandler(ctx, st)
	if err != nil {
		a.close()
		return nil, err
	}
	a.auth = auth

	if !a.dbEnabled {
		if err := seedDevUser(ctx, cfg, st.users, log); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

// openStores decides between Postgres-backed persistence and in-memory dev stores.
func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.cfg.DatabaseURL == "" {
		if a.cfg.Production() {
			a.log.Warn("db.disabled.inmemory_store", "env", a.cfg.Env)
		} else {
			a.log.Info("db.disabled.inmemory_store")
		}
		return stores{users: identity.NewMemoryStore(), sessions: session.NewMemoryStore()}, nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return stores{}, err
	}

	// The app owns the pool; stores never close it.
	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, err
	}
	sessions, err := session.NewPostgresStore(pool, identity.DefaultSchema)
	if err != nil {
		pool.Close()
		return stores{}, err
	}

	a.dbPool = pool
	a.dbEnabled = true
	a.log.Info("db.enabled.postgres_store", "schema", identity.DefaultSchema)
	return stores{users: users, sessions: sessions}, nil
}

func (a *App) newAuthHandler(ctx context.Context, st stores) (*api.Handler, error) {
	pcfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	hasher := password.New(pcfg)

	scfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tokens, err := a.newTokenManager(scfg)
	if err != nil {
		return nil, err
	}

	svc, err := session.NewService(scfg, session.Deps{
		Store:    st.sessions,
		Tokens:   tokens,
		Verifier: hasher,
		Users:    st.users,
		Digest:   token.DigesterFromEnv(),
	})
	if err != nil {
		return nil, err
	}

	authCfg := api.LoadConfigFromEnv()
	opts := []api.HandlerOption{api.WithMetrics(api.NewMetrics(a.registry))}

	if a.cfg.RedisURL != "" {
		limiter, err := a.newLoginLimiter(ctx, authCfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithLoginLimiter(limiter))
	} else {
		a.log.Info("auth.login_throttle.memory", "max", authCfg.LoginMax, "window", authCfg.LoginWindow.String())
		opts = append(opts, api.WithLoginLimiter(api.NewMemoryLoginLimiter(authCfg.LoginMax, authCfg.LoginWindow)))
	}

	if a.dbEnabled {
		opts = append(opts, api.WithAuditor(api.NewPostgresAuditor(a.dbPool, identity.DefaultSchema, a.log)))
	}

	a.log.Info("auth.config",
		"token_format", scfg.TokenFormat,
		"session_ttl", scfg.SessionTTL.String(),
		"bcrypt_cost", hasher.Cost(),
		"cookie_secure", authCfg.CookieSecure,
		"logout_require_proof", authCfg.LogoutRequireProof,
	)
	return api.NewHandler(a.log, authCfg, api.Deps{Users: st.users, Sessions: svc, Verifier: hasher}, opts...)
}

// newTokenManager builds the bearer signer. Outside production a missing key
// is replaced by a per-process random key, so tokens die with the process.
func (a *App) newTokenManager(scfg session.Config) (session.TokenManager, error) {
	tm, err := session.NewTokenManager(scfg)
	if err == nil || !errors.Is(err, session.ErrSigningKeyMissing) || a.cfg.Production() {
		return tm, err
	}

	scfg, err = scfg.WithEphemeralKey()
	if err != nil {
		return nil, err
	}
	a.log.Warn("auth.signing_key.ephemeral", "token_format", scfg.TokenFormat)
	return session.NewTokenManager(scfg)
}

func (a *App) newLoginLimiter(ctx context.Context, authCfg api.Config) (api.LoginLimiter, error) {
	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("SCRIBE_REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	a.rdb = rdb
	a.log.Info("auth.login_throttle.redis", "max", authCfg.LoginMax, "window", authCfg.LoginWindow.String())
	return api.NewRedisLoginLimiter(rdb, authCfg.LoginMax, authCfg.LoginWindow), nil
}

// seedDevUser creates the configured dev admin in memory mode.
func seedDevUser(ctx context.Context, cfg Config, users identity.Store, log Logger) error {
	if cfg.DevSeedEmail == "" || cfg.DevSeedPassword == "" {
		return nil
	}
	pcfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	hash, err := password.New(pcfg).Hash(ctx, cfg.DevSeedPassword)
	if err != nil {
		return err
	}
	u, err := users.CreateUser(ctx, identity.CreateUserInput{
		Email:        cfg.DevSeedEmail,
		Name:         "Dev Admin",
		PasswordHash: hash,
		IsAdmin:      true,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("dev seed: %w", err)
	}
	log.Info("dev.seed.created", "user_id", u.ID, "email", u.Email)
	return nil
}

// Handler returns the full middleware-wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.registry, a.auth)

	return WithRequestID(WithRequestLogging(WithSecurityHeaders(mux), a.log))
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled, "env", a.cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.close()
		return err
	}

	a.close()
	a.log.Info("server.stopped")
	return nil
}

func (a *App) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.rdb = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
