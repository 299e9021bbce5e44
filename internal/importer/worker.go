package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dugout/internal/config"
	"dugout/internal/importqueue"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
)

// UnitProcessor handles a single media unit. Implemented by Processor;
// tests substitute fakes.
type UnitProcessor interface {
	ProcessUnit(ctx context.Context, task *mediastore.ImportTask, unit *mediastore.MediaUnit) error
}

// Worker pops task ids off the queue and processes them one at a time.
type Worker struct {
	store       *mediastore.Store
	queue       *importqueue.Queue
	processor   UnitProcessor
	logger      *slog.Logger
	maxAttempts int
}

// NewWorker wires a worker to its collaborators.
func NewWorker(store *mediastore.Store, queue *importqueue.Queue, processor UnitProcessor, cfg *config.Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		store:       store,
		queue:       queue,
		processor:   processor,
		logger:      logging.NewComponentLogger(logger, "importer"),
		maxAttempts: cfg.Import.MaxAttempts,
	}
}

// Run drains the queue until the context is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("import worker started", "max_attempts", w.maxAttempts)
	for {
		id, ok := w.queue.Pop(ctx)
		if !ok {
			w.logger.Info("import worker stopping")
			return nil
		}
		w.ProcessTask(ctx, id)
	}
}

// ProcessTask runs one attempt of the task with the given id. Errors are
// recorded on the task and logged; they never stop the worker loop.
func (w *Worker) ProcessTask(ctx context.Context, id string) {
	task, err := w.store.GetTask(ctx, id)
	if err != nil {
		w.logger.Error("load task", logging.FieldTaskID, id, "error", err)
		return
	}
	if task == nil {
		w.logger.Warn("queued task no longer exists", logging.FieldTaskID, id)
		return
	}
	if task.Status.IsTerminal() {
		w.logger.Debug("skipping finished task", logging.FieldTaskID, id, "status", task.Status)
		return
	}
	if task.Attempts >= w.maxAttempts {
		w.failTask(ctx, task, fmt.Sprintf("gave up after %d attempts", task.Attempts))
		return
	}

	w.queue.SetBusy(true)
	defer w.queue.SetBusy(false)

	now := time.Now().UTC()
	task.Status = mediastore.StatusInProgress
	if task.StartedAt == nil {
		task.StartedAt = &now
	}
	task.Attempts++
	task.ErrorMessage = ""
	if err := w.store.UpdateTask(ctx, task); err != nil {
		w.logger.Error("mark task in progress", logging.FieldTaskID, id, "error", err)
		return
	}

	w.logger.Info("processing import task",
		logging.FieldTaskID, id,
		"attempt", task.Attempts,
		"units", len(task.Units))

	for _, unit := range task.Units {
		if unit.Processed {
			continue
		}
		exists, err := w.store.AssetExists(ctx, unit.OriginalFileName(), task.GameID)
		if err != nil {
			w.logger.Error("asset existence check", logging.FieldTaskID, id, "unit", unit.BaseName, "error", err)
			return
		}
		if exists {
			unit.Processed = true
			if err := w.store.UpdateUnit(ctx, unit); err != nil {
				w.logger.Error("mark unit processed", logging.FieldTaskID, id, "unit", unit.BaseName, "error", err)
				return
			}
			w.logger.Debug("unit already imported", logging.FieldTaskID, id, "unit", unit.BaseName)
			continue
		}

		if err := w.processor.ProcessUnit(ctx, task, unit); err != nil {
			unit.ErrorMessage = err.Error()
			if updateErr := w.store.UpdateUnit(ctx, unit); updateErr != nil {
				w.logger.Error("record unit error", logging.FieldTaskID, id, "unit", unit.BaseName, "error", updateErr)
			}
			if errors.Is(err, ErrInvalidUnit) {
				w.failTask(ctx, task, fmt.Sprintf("unit %s: %v", unit.BaseName, err))
				return
			}
			w.logger.Error("unit processing failed, task will be retried",
				logging.FieldTaskID, id,
				"unit", unit.BaseName,
				"error", err)
			return
		}

		unit.Processed = true
		unit.ErrorMessage = ""
		if err := w.store.UpdateUnit(ctx, unit); err != nil {
			w.logger.Error("mark unit processed", logging.FieldTaskID, id, "unit", unit.BaseName, "error", err)
			return
		}
	}

	done := time.Now().UTC()
	task.Status = mediastore.StatusCompleted
	task.CompletedAt = &done
	if err := w.store.UpdateTask(ctx, task); err != nil {
		w.logger.Error("mark task completed", logging.FieldTaskID, id, "error", err)
		return
	}
	w.logger.Info("import task completed", logging.FieldTaskID, id, "units", len(task.Units))
}

func (w *Worker) failTask(ctx context.Context, task *mediastore.ImportTask, message string) {
	now := time.Now().UTC()
	task.Status = mediastore.StatusFailed
	task.ErrorMessage = message
	task.CompletedAt = &now
	if err := w.store.UpdateTask(ctx, task); err != nil {
		w.logger.Error("mark task failed", logging.FieldTaskID, task.ID, "error", err)
		return
	}
	w.logger.Warn("import task failed", logging.FieldTaskID, task.ID, "reason", message)
}
