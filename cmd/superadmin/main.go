package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/backoffice/superadmin/internal/analytics"
	analytichttp "github.com/backoffice/superadmin/internal/analytics/http"
	"github.com/backoffice/superadmin/internal/app"
	"github.com/backoffice/superadmin/internal/audit"
	audithttp "github.com/backoffice/superadmin/internal/audit/http"
	"github.com/backoffice/superadmin/internal/auth"
	"github.com/backoffice/superadmin/internal/observability"
	"github.com/backoffice/superadmin/internal/platform/cache"
	"github.com/backoffice/superadmin/internal/platform/db"
	"github.com/backoffice/superadmin/internal/ratelimit"
	"github.com/backoffice/superadmin/internal/rbac"
	"github.com/backoffice/superadmin/internal/roles"
	"github.com/backoffice/superadmin/internal/shared"
	"github.com/backoffice/superadmin/internal/users"
	"github.com/backoffice/superadmin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGStmtTimeout)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.PGMigrateOnStart {
		if err := db.Migrate(dbpool); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		if cfg.LoginLimitStore == app.LimitStoreRedis {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		// The memory limiter needs no Redis; analytics runs uncached.
		logger.Warn("redis unavailable, continuing without cache", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	limiter, err := newLoginLimiter(ctx, cfg, redisClient)
	if err != nil {
		logger.Error("login limiter", slog.Any("error", err))
		os.Exit(1)
	}

	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens, limiter, auditLogger, auth.Config{
		SuperadminRole: cfg.SuperadminRole,
		Logger:         logger,
		Observer:       metrics,
	})
	authHandler := auth.NewHandler(logger, authService)
	gate := auth.NewGate(tokens, logger)
	if cfg.AuthRevalidateRoles {
		gate = gate.WithRoleRevalidation(authRepo)
	}

	var analyticsCache *analytics.Cache
	if redisClient != nil {
		analyticsCache = analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	}
	analyticsService := analytics.NewService(analytics.NewRepository(dbpool), analyticsCache, logger)
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService)

	usersService := users.NewService(users.NewRepository(dbpool), users.Options{
		Logger:     logger,
		BcryptCost: cfg.BcryptCost,
		Notifier:   analyticsService,
	})
	usersHandler := users.NewHandler(logger, usersService)

	rolesService := roles.NewService(roles.NewRepository(dbpool), analyticsService, logger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService)

	healthChecks := map[string]app.HealthCheck{
		"postgres": dbpool.Ping,
	}
	jobHandler := jobs.NewHandler(nil, logger)
	if redisClient != nil {
		asynqOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		inspector := asynq.NewInspector(asynqOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }

		jobClient := jobs.NewClient(asynqOpts)
		if _, err := jobClient.EnqueueAnalyticsWarmup(ctx, "startup"); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Warn("enqueue analytics warmup", slog.Any("error", err))
		}
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		Gate:             gate,
		RBACMiddleware:   rbac.Middleware{Logger: logger},
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		RolesHandler:     rolesHandler,
		AuditHandler:     auditHandler,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobHandler,
		HealthChecks:     healthChecks,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func newLoginLimiter(ctx context.Context, cfg *app.Config, client *redis.Client) (*ratelimit.Limiter, error) {
	switch cfg.LoginLimitStore {
	case app.LimitStoreRedis:
		if client == nil {
			return nil, errors.New("redis limiter store requires REDIS_ADDR")
		}
		return ratelimit.NewLimiter(ratelimit.NewRedisStore(client), cfg.LoginMaxAttempts, cfg.LoginWindow), nil
	default:
		store := ratelimit.NewMemoryStore()
		go store.Run(ctx, cfg.LoginWindow, time.Minute)
		return ratelimit.NewLimiter(store, cfg.LoginMaxAttempts, cfg.LoginWindow), nil
	}
}
