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

	"github.com/altiplano-fin/altiplano/internal/app"
	"github.com/altiplano-fin/altiplano/internal/balance"
	balancehttp "github.com/altiplano-fin/altiplano/internal/balance/http"
	"github.com/altiplano-fin/altiplano/internal/calendar"
	"github.com/altiplano-fin/altiplano/internal/classification"
	"github.com/altiplano-fin/altiplano/internal/fxrates"
	fxhttp "github.com/altiplano-fin/altiplano/internal/fxrates/http"
	"github.com/altiplano-fin/altiplano/internal/observability"
	"github.com/altiplano-fin/altiplano/internal/platform/cache"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, 0)
	if err != nil {
		// Reports degrade to cold builds and uncached rate lookups.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	rateRepo := fxrates.NewRepository(pool)
	rates := fxrates.NewCachedSource(rateRepo, redisClient, cfg.RateCacheTTL, logger)

	balanceService := balance.NewService(
		balance.NewRepository(pool),
		rates,
		calendar.NewService(pool),
		classification.NewRepository(pool),
		logger,
	)
	balanceService.WithParallelism(cfg.ReportParallelism)
	balanceService.WithObserver(metrics)

	balanceHandler := balancehttp.NewHandler(logger, balanceService, redisClient)
	fxHandler := fxhttp.NewHandler(logger, rateRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		BalanceHandler: balanceHandler,
		FXHandler:      fxHandler,
		JobHandler:     jobHandler,
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
