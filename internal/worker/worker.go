// Package worker runs periodic background maintenance.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repairer links orders whose history append never happened.
type Repairer interface {
	RepairOrderHistory(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// Interval is how often to sweep for pending orders
	Interval time.Duration

	// Grace is how old a pending order must be before the sweep touches it,
	// leaving the event consumer time to link it first
	Grace time.Duration

	// BatchSize bounds the orders linked per sweep
	BatchSize int

	// SweepTimeout bounds a single sweep
	SweepTimeout time.Duration
}

// Worker periodically repairs order history links.
type Worker struct {
	config   Config
	repairer Repairer
	logger   *slog.Logger

	// sem allows one sweep at a time; a tick that finds it held is skipped.
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewWorker creates a new history repair worker
func NewWorker(repairer Repairer, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	if config.Grace == 0 {
		config.Grace = 2 * time.Minute
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SweepTimeout == 0 {
		config.SweepTimeout = time.Minute
	}

	return &Worker{
		config:   config,
		repairer: repairer,
		logger:   logger,
		sem:      make(chan struct{}, 1),
	}
}

// Start sweeps on every tick until the context is cancelled, then waits for
// an in-flight sweep to finish.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"interval", w.config.Interval,
		"grace", w.config.Grace,
		"batch_size", w.config.BatchSize,
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			w.wg.Wait()
			return ctx.Err()

		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()
					w.RunOnce(ctx)
				}()
			default:
				w.logger.Debug("previous sweep still running, skipping tick")
			}
		}
	}
}

// RunOnce performs a single sweep and reports how many orders it linked.
func (w *Worker) RunOnce(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, w.config.SweepTimeout)
	defer cancel()

	linked, err := w.repairer.RepairOrderHistory(sweepCtx, w.config.Grace, w.config.BatchSize)
	if err != nil {
		w.logger.Error("history repair sweep failed",
			"worker_id", w.config.WorkerID,
			"linked", linked,
			"error", err,
		)
		return linked
	}
	if linked > 0 {
		w.logger.Info("history repair sweep completed",
			"worker_id", w.config.WorkerID,
			"linked", linked,
		)
	}
	return linked
}
