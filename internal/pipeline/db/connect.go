package db

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Connect opens the postgres repository, retrying with exponential backoff
// until maxWait elapses or ctx is cancelled.
func Connect(ctx context.Context, cfg *Config, maxWait time.Duration, logger *zap.Logger) (*Repository, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = maxWait

	var repo *Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = NewRepository(cfg)
		return err
	}, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.String("host", cfg.Host),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}
