package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/stocktally/stocktally/internal/analytics"
	"github.com/stocktally/stocktally/internal/app"
	"github.com/stocktally/stocktally/internal/entries"
	"github.com/stocktally/stocktally/internal/platform/cache"
	"github.com/stocktally/stocktally/internal/platform/db"
	"github.com/stocktally/stocktally/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	entriesRepo := entries.NewRepository(pool)
	entriesService := entries.NewService(entriesRepo, nil, logger)

	seriesCache := analytics.NewCache(redisClient, cfg.SeriesCacheTTL)
	analyticsService := analytics.NewService(entriesService, seriesCache, logger)

	pruneJob := jobs.NewEntryPruneJob(entriesRepo, logger)
	warmupJob := jobs.NewSeriesWarmupJob(&jobs.PGActiveSource{Pool: pool}, analyticsService, logger)

	retentionHours := int(cfg.TombstoneRetention.Hours())
	pruneTask, err := jobs.NewEntriesPruneTask(retentionHours)
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewSeriesWarmupTask(24)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskEntriesPrune, Handler: pruneJob.Handle},
			{Type: jobs.TaskSeriesWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 3 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
