package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meetlite/meetlite/internal/repository"
	"github.com/meetlite/meetlite/pkg/logger"
)

// Reconciler periodically re-derives confirmed_count from active
// attendance rows. It closes the inconsistency window left when a join is
// interrupted between the ledger and registry steps, or when every
// compensation attempt fails. It runs out of band, never on the request
// path.
type Reconciler struct {
	counters repository.CounterReconciler
	log      *logger.Logger
	interval time.Duration
}

// NewReconciler creates a new Reconciler
func NewReconciler(counters repository.CounterReconciler, log *logger.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{
		counters: counters,
		log:      log,
		interval: interval,
	}
}

// RunOnce performs a single reconciliation pass.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	corrected, err := r.counters.ReconcileCounts(ctx)
	if err != nil {
		return err
	}
	if corrected > 0 {
		r.log.Warn("reconciled diverged confirmed counts",
			zap.Int64("events_corrected", corrected))
	}
	return nil
}

// Run reconciles on a ticker until the context is cancelled. A zero or
// negative interval disables the loop.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.log.Error("reconciliation pass failed", zap.Error(err))
			}
		}
	}
}
