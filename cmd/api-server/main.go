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

	"github.com/lazatu/realty-api/internal/api"
	"github.com/lazatu/realty-api/internal/appointment"
	"github.com/lazatu/realty-api/internal/config"
	"github.com/lazatu/realty-api/internal/db"
	"github.com/lazatu/realty-api/internal/logging"
	"github.com/lazatu/realty-api/internal/notify"
	"github.com/lazatu/realty-api/internal/property"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/schedule"
	"github.com/lazatu/realty-api/internal/user"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Env)
	logger.Info("api-server starting",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.HTTPPort))

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

	propertyRepo := property.NewPgRepository(pgPool)
	userRepo := user.NewPgRepository(pgPool)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	appointmentRepo := appointment.NewRecording(appointment.NewPgRepository(pgPool), logger)

	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	propertySvc := property.NewService(propertyRepo, userRepo, dispatcher, logger)
	appointmentSvc := appointment.NewService(appointmentRepo, propertyRepo, userRepo,
		locker, dispatcher, logger, cfg.ReminderLead, cfg.ReminderWindow)

	router := api.NewRouter(api.RouterConfig{
		Properties:   propertySvc,
		Appointments: appointmentSvc,
		Schedules:    scheduleRepo,
		Users:        userRepo,
		Hits:         redisclient.NewHitCounter(rdb),
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}

	logger.Info("api-server stopped")
}
