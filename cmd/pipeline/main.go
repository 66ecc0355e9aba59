package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/hiring/internal/pipeline/config"
	"github.com/gartstein/hiring/internal/pipeline/controller"
	"github.com/gartstein/hiring/internal/pipeline/db"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/handlers"
	"github.com/gartstein/hiring/internal/pipeline/worker"
	"go.uber.org/zap"
)

const connectTimeout = time.Minute

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := db.Connect(ctx, cfg.Database(), connectTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
	}()

	producer, closeProducer := initProducer(ctx, cfg, logger)
	defer closeProducer()

	service := controller.NewPipelineService(repo, producer, logger, controller.Options{
		DefaultEmployeePassword: cfg.DefaultEmployeePassword,
	})
	if cfg.AdminEmail != "" {
		if err := service.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("Failed to create admin account", zap.Error(err))
		}
	}

	handler, err := handlers.NewPipelineHandler(service, logger)
	if err != nil {
		logger.Fatal("Failed to register routes", zap.Error(err))
	}

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	server.RegisterHTTPHandler(handler, cfg.JWTSecret, repo)
	go server.WatchHealth(ctx, repo, cfg.HealthInterval)

	expiry := worker.NewOfferExpiry(service, 0, cfg.OfferExpiryInterval, cfg.OfferExpiryBatch, logger)
	go expiry.Start(ctx)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, cancel, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initProducer connects to Kafka, or falls back to logging events when no
// brokers are configured.
func initProducer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (controller.EventProducer, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("No Kafka brokers configured, pipeline events are only logged")
		return events.NewLogProducer(logger), func() {}
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = connectTimeout

	var producer *events.Producer
	err := backoff.Retry(func() error {
		var err error
		producer, err = events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
	}
	return producer, producer.Close
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then
// stops background work and the servers.
func waitForShutdown(server *handlers.Server, cancel context.CancelFunc, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	server.Stop()
	logger.Info("Servers stopped properly")
}
