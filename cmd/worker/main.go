package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/altiplano-fin/altiplano/internal/app"
	"github.com/altiplano-fin/altiplano/internal/balance"
	"github.com/altiplano-fin/altiplano/internal/calendar"
	"github.com/altiplano-fin/altiplano/internal/classification"
	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/observability"
	"github.com/altiplano-fin/altiplano/internal/platform/db"
	"github.com/altiplano-fin/altiplano/jobs"
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

	pool, err := db.New(ctx, db.Config{
		DSN:          cfg.PGDSN,
		MaxConns:     cfg.PGMaxConns,
		ConnLifetime: cfg.PGConnLifetime,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	rates := fxrates.NewCachedSource(fxrates.NewRepository(pool), redisClient, cfg.RateCacheTTL, logger)
	balanceService := balance.NewService(
		balance.NewRepository(pool),
		rates,
		calendar.NewService(pool),
		classification.NewRepository(pool),
		logger,
	)
	balanceService.WithParallelism(cfg.ReportParallelism)
	balanceService.WithObserver(metrics)

	warmupJob := jobs.NewDailyWarmupJob(balanceService, redisClient, logger, nil)
	warmupJob.Pool = pool
	warmupJob.AppMetrics = metrics
	warmupJob.TTL = cfg.SnapshotTTL

	warmupTask, err := jobs.NewDailyWarmupTask(jobs.DailyWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.JobConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDailyWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
