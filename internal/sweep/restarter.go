package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dugout/internal/config"
	"dugout/internal/importqueue"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
)

// Restarter periodically re-pushes every unfinished task id onto the queue.
// It does not try to decide which tasks are stuck; the worker's terminal and
// idempotency checks make blind re-pushes safe.
type Restarter struct {
	store    *mediastore.Store
	queue    *importqueue.Queue
	interval time.Duration
	logger   *slog.Logger
}

// NewRestarter builds the restart loop from configuration.
func NewRestarter(store *mediastore.Store, queue *importqueue.Queue, cfg *config.Config, logger *slog.Logger) *Restarter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Restarter{
		store:    store,
		queue:    queue,
		interval: cfg.Sweep.RestartEvery(),
		logger:   logging.NewComponentLogger(logger, "restarter"),
	}
}

// Run ticks until the context is canceled.
func (r *Restarter) Run(ctx context.Context) error {
	return runEvery(ctx, r.interval, "restarter", r.logger, r.RunOnce)
}

// RunOnce pushes every queued or in-progress task id onto the queue.
func (r *Restarter) RunOnce(ctx context.Context) error {
	ids, err := r.store.PendingTaskIDs(ctx)
	if err != nil {
		return fmt.Errorf("list pending tasks: %w", err)
	}
	for _, id := range ids {
		r.queue.Push(id)
	}
	if len(ids) > 0 {
		r.logger.Info("requeued unfinished tasks", "count", len(ids))
	}
	return nil
}
