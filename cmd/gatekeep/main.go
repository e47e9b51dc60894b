package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gatekeep-io/gatekeep/internal/app"
	"github.com/gatekeep-io/gatekeep/internal/audit"
	"github.com/gatekeep-io/gatekeep/internal/authz"
	"github.com/gatekeep-io/gatekeep/internal/catalog"
	"github.com/gatekeep-io/gatekeep/internal/identity"
	"github.com/gatekeep-io/gatekeep/internal/observability"
	"github.com/gatekeep-io/gatekeep/internal/platform/cache"
	"github.com/gatekeep-io/gatekeep/internal/platform/db"
	"github.com/gatekeep-io/gatekeep/internal/roles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	catalogService := catalog.NewService(
		catalog.NewRepository(pool),
		catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	)
	recorder := audit.NewRecorder(asynqClient, logger)
	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, catalogService, recorder, logger)
	directory := identity.NewDirectory(pool)
	engine := authz.NewEngine(directory, rolesRepo, logger)
	auditService := audit.NewService(audit.NewRepository(pool))
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		RolesHandler:   roles.NewHandler(logger, rolesService),
		CatalogHandler: catalog.NewHandler(logger, catalogService),
		AuthzHandler:   authz.NewHandler(logger, engine, metrics),
		AuditHandler:   audit.NewHandler(logger, auditService),
		Authz:          authz.Middleware{Engine: engine, Logger: logger, Metrics: metrics},
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
