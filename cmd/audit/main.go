// The audit service consumes pipeline events from Kafka and stores them as
// the per-application audit trail.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/config"
	"github.com/gartstein/hiring/internal/pipeline/db"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required for the audit consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := db.Connect(ctx, cfg.Database(), time.Minute, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		_ = repo.Close()
	}()

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroupID, cfg.Topic, logger)
	consumer.RegisterHandler(events.RecordTo(repo))
	consumer.Start(ctx)
	logger.Info("Audit consumer started",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.AuditGroupID),
	)

	<-ctx.Done()
	<-consumer.Done()
	consumer.Close()
	logger.Info("Audit consumer stopped")
}
