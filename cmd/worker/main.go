package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kampfth/partner-center/internal/app"
	"github.com/kampfth/partner-center/internal/balance"
	jobmetrics "github.com/kampfth/partner-center/internal/jobs"
	"github.com/kampfth/partner-center/internal/platform/cache"
	"github.com/kampfth/partner-center/internal/platform/db"
	"github.com/kampfth/partner-center/jobs"
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

	ledgerCache := balance.NewCache(redisClient, cfg.BalanceCacheTTL)
	balanceRepo := balance.NewRepository(pool)
	balanceService := balance.NewService(balanceRepo, ledgerCache)
	metrics := jobmetrics.NewMetrics(nil)

	var cron []jobs.CronRegistration
	if cfg.WarmCron != "" {
		warmTask, err := jobs.NewBalanceWarmTask(time.Now().UTC())
		if err != nil {
			logger.Error("build warm task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec: cfg.WarmCron, Task: warmTask, Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}
	if cfg.PruneCron != "" {
		pruneTask, err := jobs.NewImportPruneTask(cfg.ImportKeepDays)
		if err != nil {
			logger.Error("build prune task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec: cfg.PruneCron, Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBalanceWarm, Handler: jobs.NewBalanceWarmHandler(balanceService, logger, metrics)},
			{Type: jobs.TaskImportPrune, Handler: jobs.NewImportPruneHandler(pool, logger, metrics)},
		},
		Cron: cron,
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
