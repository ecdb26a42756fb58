// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/crm-backend/internal/admin"
	"github.com/carterperez-dev/templates/crm-backend/internal/auth"
	"github.com/carterperez-dev/templates/crm-backend/internal/config"
	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/customer"
	"github.com/carterperez-dev/templates/crm-backend/internal/health"
	"github.com/carterperez-dev/templates/crm-backend/internal/lead"
	"github.com/carterperez-dev/templates/crm-backend/internal/metrics"
	"github.com/carterperez-dev/templates/crm-backend/internal/middleware"
	"github.com/carterperez-dev/templates/crm-backend/internal/role"
	"github.com/carterperez-dev/templates/crm-backend/internal/server"
	"github.com/carterperez-dev/templates/crm-backend/internal/user"
)

const (
	drainDelay          = 5 * time.Second
	tokenPruneInterval  = time.Hour
	loginAttemptsPerMin = 10
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool(
		"generate-keys",
		false,
		"write a new ES256 key pair to the configured paths and exit",
	)
	flag.Parse()

	if err := run(*configPath, *generateKeys); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, generateKeys bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if generateKeys {
		if err := auth.GenerateKeyPair(
			cfg.JWT.PrivateKeyPath,
			cfg.JWT.PublicKeyPath,
		); err != nil {
			return err
		}
		logger.Info("key pair written",
			"private_key", cfg.JWT.PrivateKeyPath,
			"public_key", cfg.JWT.PublicKeyPath,
		)
		return nil
	}

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	roleCache := role.NewCache(
		rdb.RoleCacheClient(cfg.RoleCache.Enabled),
		cfg.RoleCache.TTL,
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(
		userRepo,
		roleCache,
		cfg.Auth.BootstrapAdminEmail,
	)
	userHandler := user.NewHandler(userSvc)

	resolver := role.NewCachedResolver(userSvc, roleCache)
	roleHandler := role.NewHandler(resolver)

	customerSvc := customer.NewService(customer.NewRepository(db.DB))
	customerHandler := customer.NewHandler(customerSvc)

	leadSvc := lead.NewService(lead.NewRepository(db.DB), userSvc)
	leadHandler := lead.NewHandler(leadSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc)

	var oidcFlow auth.OIDCFlow
	if cfg.OIDC.Enabled {
		provider, oidcErr := auth.NewOIDCProvider(
			ctx,
			cfg.OIDC,
			auth.NewStateStore(rdb.Client, cfg.OIDC.StateTTL),
		)
		if oidcErr != nil {
			return oidcErr
		}
		oidcFlow = provider
		logger.Info("OIDC provider configured",
			"issuer", cfg.OIDC.IssuerURL,
		)
	}
	authHandler := auth.NewHandler(authSvc, oidcFlow, cfg.Auth.LocalLogin)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: rdb},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Repo:       admin.NewRepository(db.DB),
		DBStats:    db.Stats,
		RedisStats: rdb.Stats,
		DBPing:     db.Ping,
		RedisPing:  rdb.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		ServiceName:   cfg.Otel.ServiceName,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(
		middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
			Limit: middleware.Per(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Window,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: isOpsPath(cfg.Metrics.Path),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	loginLimit := middleware.NewRateLimiter(
		rdb.Client,
		middleware.RateLimitConfig{
			Limit:    middleware.PerMinute(loginAttemptsPerMin, loginAttemptsPerMin),
			KeyFunc:  middleware.KeyByUserAndEndpoint,
			FailOpen: true,
		},
	).Handler

	authenticator := middleware.Authenticator(jwtManager)
	authenticated := chi.Chain(
		authenticator,
		middleware.ResolveActor(resolver),
	).Handler
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, loginLimit)
		roleHandler.RegisterRoutes(r, authenticated)

		userHandler.RegisterRoutes(r, authenticated)
		userHandler.RegisterAdminRoutes(r, authenticated, adminOnly)
		adminHandler.RegisterRoutes(r, authenticated, adminOnly)

		customerHandler.RegisterRoutes(r, authenticated)
		leadHandler.RegisterRoutes(r, authenticated)
	})

	go pruneTokens(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func isOpsPath(metricsPath string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		switch r.URL.Path {
		case "/healthz", "/livez", "/readyz", metricsPath:
			return true
		}
		return strings.HasPrefix(r.URL.Path, "/.well-known/")
	}
}

// pruneTokens deletes expired refresh tokens until ctx is cancelled.
func pruneTokens(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PruneExpired(ctx)
			if err != nil {
				logger.Warn("prune expired refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("pruned expired refresh tokens", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
