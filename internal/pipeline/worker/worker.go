// Package worker runs periodic background jobs of the pipeline service.
package worker

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// Periodic runs a job after an initial delay and then on a fixed interval
// until its context is cancelled.
type Periodic struct {
	name          string
	firstRunDelay time.Duration
	runInterval   time.Duration
	logger        *zap.Logger
}

func NewPeriodic(name string, firstRunDelay, runInterval time.Duration, logger *zap.Logger) *Periodic {
	return &Periodic{
		name:          name,
		firstRunDelay: firstRunDelay,
		runInterval:   runInterval,
		logger:        logger.Named(name),
	}
}

// Run blocks until ctx is done. A panicking job is logged and the loop
// continues with the next tick.
func (p *Periodic) Run(ctx context.Context, job func(ctx context.Context)) {
	timer := time.NewTimer(p.firstRunDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Worker stopped")
			return
		case <-timer.C:
			p.runOnce(ctx, job)
			timer.Reset(p.runInterval)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context, job func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker job panicked",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()
	start := time.Now()
	job(ctx)
	p.logger.Debug("Worker job finished", zap.Duration("took", time.Since(start)))
}
