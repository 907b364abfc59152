package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lazatu/realty-api/internal/appointment"
	"github.com/lazatu/realty-api/internal/config"
	"github.com/lazatu/realty-api/internal/db"
	"github.com/lazatu/realty-api/internal/logging"
	"github.com/lazatu/realty-api/internal/notify"
	"github.com/lazatu/realty-api/internal/property"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Env)
	logger.Info("sweep-worker starting",
		slog.String("env", cfg.Env),
		slog.String("cleanup_cron", cfg.CleanupSpec),
		slog.String("reminder_cron", cfg.ReminderSpec))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection", slog.Any("error", err))
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		logger.Error("redis connection", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", slog.Any("error", err))
		}
	}()
	logger.Info("connected to Redis")

	var dispatcher notify.Dispatcher = notify.LogDispatcher{Logger: logger}
	if cfg.AMQPURL != "" {
		amqpDispatcher, err := notify.NewAMQPDispatcher(cfg.AMQPURL, cfg.NotifyExchange)
		if err != nil {
			logger.Error("amqp connection", slog.Any("error", err))
			os.Exit(1)
		}
		defer amqpDispatcher.Close()
		dispatcher = amqpDispatcher
		logger.Info("connected to AMQP", slog.String("exchange", cfg.NotifyExchange))
	}

	repo := appointment.NewRecording(appointment.NewPgRepository(pgPool), logger)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	svc := appointment.NewService(repo, property.NewPgRepository(pgPool),
		user.NewPgRepository(pgPool), locker, dispatcher, logger,
		cfg.ReminderLead, cfg.ReminderWindow)

	c := cron.New()

	if _, err := c.AddFunc(cfg.CleanupSpec, singleFlight(logger, "cleanup", func() {
		runSweep(rootCtx, logger, "cleanup", svc.SweepOverdue)
	})); err != nil {
		logger.Error("schedule cleanup sweep", slog.Any("error", err))
		os.Exit(1)
	}

	if _, err := c.AddFunc(cfg.ReminderSpec, singleFlight(logger, "reminder", func() {
		runSweep(rootCtx, logger, "reminder", svc.SendReminders)
	})); err != nil {
		logger.Error("schedule reminder sweep", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()

	// Catch up anything that came due while the worker was down.
	runSweep(rootCtx, logger, "cleanup", svc.SweepOverdue)

	<-rootCtx.Done()
	logger.Info("shutdown signal received, stopping sweeps")

	<-c.Stop().Done()
	logger.Info("sweep-worker stopped")
}

// singleFlight skips a tick while the previous run of the same sweep is
// still going, so a long run never overlaps itself.
func singleFlight(logger *slog.Logger, name string, fn func()) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			logger.Warn("sweep still running, skipping tick", slog.String("sweep", name))
			return
		}
		defer running.Store(false)
		fn()
	}
}

func runSweep(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	if err := fn(runCtx); err != nil {
		logger.Error("sweep run failed",
			slog.String("sweep", name), slog.Any("error", err))
		return
	}
	logger.Info("sweep run complete",
		slog.String("sweep", name),
		slog.Duration("took", time.Since(start)))
}
