package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OfferExpirer moves overdue offers to EXPIRED.
type OfferExpirer interface {
	ExpireOverdueOffers(ctx context.Context, limit int) (int, error)
}

// OfferExpiry sweeps overdue offers in batches.
type OfferExpiry struct {
	*Periodic
	expirer   OfferExpirer
	batchSize int
}

const defaultBatchSize = 100

func NewOfferExpiry(expirer OfferExpirer, firstRunDelay, interval time.Duration, batchSize int, logger *zap.Logger) *OfferExpiry {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &OfferExpiry{
		Periodic:  NewPeriodic("offer_expiry", firstRunDelay, interval, logger),
		expirer:   expirer,
		batchSize: batchSize,
	}
}

// Start runs the sweep until ctx is cancelled.
func (w *OfferExpiry) Start(ctx context.Context) {
	w.Run(ctx, w.sweep)
}

// sweep expires full batches until one comes back short.
func (w *OfferExpiry) sweep(ctx context.Context) {
	total := 0
	for ctx.Err() == nil {
		n, err := w.expirer.ExpireOverdueOffers(ctx, w.batchSize)
		total += n
		if err != nil {
			w.logger.Error("Failed to expire offers", zap.Error(err))
			break
		}
		if n < w.batchSize {
			break
		}
	}
	if total > 0 {
		w.logger.Info("Expired overdue offers", zap.Int("count", total))
	}
}
