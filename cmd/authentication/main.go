// The authentication service exchanges staff credentials for the bearer
// tokens the pipeline service accepts.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/auth"
	"github.com/gartstein/hiring/internal/pipeline/config"
	"github.com/gartstein/hiring/internal/pipeline/controller"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := db.Connect(ctx, cfg.Database(), time.Minute, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		_ = repo.Close()
	}()

	// Login never emits pipeline events.
	service := controller.NewPipelineService(repo, events.NewLogProducer(logger), logger, controller.Options{})

	mux, err := auth.NewTokenMux(service, cfg.JWTSecret, cfg.TokenTTL, logger)
	if err != nil {
		logger.Fatal("Failed to register routes", zap.Error(err))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AuthPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Authentication service running", zap.String("endpoint", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP serve error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	logger.Info("Authentication service stopped")
}
