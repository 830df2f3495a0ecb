package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stocktally/stocktally/internal/analytics"
	analytichttp "github.com/stocktally/stocktally/internal/analytics/http"
	"github.com/stocktally/stocktally/internal/app"
	"github.com/stocktally/stocktally/internal/auth"
	"github.com/stocktally/stocktally/internal/entries"
	"github.com/stocktally/stocktally/internal/items"
	"github.com/stocktally/stocktally/internal/platform/cache"
	"github.com/stocktally/stocktally/internal/platform/db"
	"github.com/stocktally/stocktally/internal/stream"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

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

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL, cfg.TokenIssuer)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService)

	itemsService := items.NewService(items.NewRepository(pool))
	itemsHandler := items.NewHandler(logger, itemsService)

	seriesCache := analytics.NewCache(redisClient, cfg.SeriesCacheTTL)
	publisher := &analytics.InvalidatingPublisher{
		Next:   stream.NewRedisPublisher(redisClient),
		Cache:  seriesCache,
		Logger: logger,
	}

	entriesService := entries.NewService(entries.NewRepository(pool), publisher, logger)
	entriesHandler := entries.NewHandler(logger, entriesService)

	hub := stream.NewHub(entriesService, logger)
	go hub.Run(ctx, redisClient)
	streamHandler := stream.NewHandler(logger, hub)

	analyticsService := analytics.NewService(entriesService, seriesCache, logger)
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         authService,
		AuthHandler:      authHandler,
		ItemsHandler:     itemsHandler,
		EntriesHandler:   entriesHandler,
		StreamHandler:    streamHandler,
		AnalyticsHandler: analyticsHandler,
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
