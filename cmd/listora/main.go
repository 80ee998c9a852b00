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
	"github.com/redis/go-redis/v9"

	"github.com/listora/listora/internal/app"
	"github.com/listora/listora/internal/audit"
	audithttp "github.com/listora/listora/internal/audit/http"
	"github.com/listora/listora/internal/authn"
	"github.com/listora/listora/internal/listings"
	"github.com/listora/listora/internal/platform/db"
	"github.com/listora/listora/internal/platform/kv"
	"github.com/listora/listora/internal/role"
	"github.com/listora/listora/internal/sites"
	"github.com/listora/listora/internal/tenants"
	"github.com/listora/listora/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	store := kv.NewRedisFromClient(redisClient)
	recorder := audit.NewQueueRecorder(queueClient, logger)
	roleService := role.NewService(store, recorder, logger)
	guard := role.Middleware{Service: roleService, Logger: logger}

	listingService := listings.NewService(listings.NewRepository(dbpool), roleService)
	siteService := sites.NewService(sites.NewRepository(dbpool))
	tenantService := tenants.NewService(tenants.NewRepository(dbpool), roleService, logger)

	authMiddleware := authn.Middleware{
		TokenHash: []byte(cfg.ServiceTokenHash),
		Logger:    logger,
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Auth:            authMiddleware,
		RoleHandler:     role.NewHandler(logger, roleService, guard),
		AuditHandler:    audithttp.NewHandler(logger, audit.NewService(redisClient, logger), guard),
		ListingsHandler: listings.NewHandler(logger, listingService, guard),
		SitesHandler:    sites.NewHandler(logger, siteService, guard),
		TenantsHandler:  tenants.NewHandler(logger, tenantService, guard),
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
