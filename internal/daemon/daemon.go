package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"dugout/internal/config"
	"dugout/internal/convert"
	"dugout/internal/importer"
	"dugout/internal/importqueue"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
	"dugout/internal/remotestore"
	"dugout/internal/sweep"
)

// Daemon owns the import pipeline's lifecycle.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *mediastore.Store
	queue  *importqueue.Queue

	worker       *importer.Worker
	restarter    *sweep.Restarter
	contentTypes *sweep.ContentTypeSweep
	alternates   *sweep.AlternateSweep
	collector    *sweep.TempFileCollector
	api          *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New constructs a daemon around an open store. Remote connections are
// established in Start so construction never blocks on the network.
func New(cfg *config.Config, store *mediastore.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "dugoutd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		queue:    importqueue.New(),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, connects to the remote store, and
// launches the worker, the maintenance loops, and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dugout daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	remote, err := remotestore.New(runCtx, d.cfg, d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("connect remote store: %w", err)
	}

	conv := convert.New(d.cfg, d.logger)
	processor := importer.NewProcessor(d.store, remote, conv, d.cfg, d.logger)
	d.worker = importer.NewWorker(d.store, d.queue, processor, d.cfg, d.logger)
	d.restarter = sweep.NewRestarter(d.store, d.queue, d.cfg, d.logger)
	d.contentTypes = sweep.NewContentTypeSweep(d.store, remote, d.cfg, d.logger)
	d.alternates = sweep.NewAlternateSweep(d.store, remote, conv, d.queue, d.cfg, d.logger)
	d.collector = sweep.NewTempFileCollector(d.store, d.cfg, d.logger)

	d.api, err = newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error { return d.worker.Run(groupCtx) })
	group.Go(func() error { return d.restarter.Run(groupCtx) })
	group.Go(func() error { return d.contentTypes.Run(groupCtx) })
	group.Go(func() error { return d.alternates.Run(groupCtx) })
	group.Go(func() error { return d.collector.RunCleanup(groupCtx) })
	group.Go(func() error { return d.collector.RunOrphans(groupCtx) })

	if d.api != nil {
		if err := d.api.start(groupCtx); err != nil {
			cancel()
			_ = group.Wait()
			_ = d.lock.Unlock()
			return err
		}
	}

	// Recover tasks that were queued or in flight when the last process died.
	if err := d.restarter.RunOnce(groupCtx); err != nil {
		d.logger.Error("startup task recovery failed", "error", err)
	}

	d.cancel = cancel
	d.group = group
	d.running.Store(true)
	d.logger.Info("dugout daemon started", "lock", d.lockPath)
	return nil
}

// Wait blocks until every loop has exited.
func (d *Daemon) Wait() error {
	if d.group == nil {
		return nil
	}
	return d.group.Wait()
}

// Stop cancels the loops, shuts down the API server, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.queue.Close()
	if d.group != nil {
		_ = d.group.Wait()
		d.group = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", "error", err)
	}
	d.running.Store(false)
	d.logger.Info("dugout daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Enqueue creates an import task from grouped units and pushes it to the
// worker immediately.
func (d *Daemon) Enqueue(ctx context.Context, gameID *int64, units []*mediastore.MediaUnit) (*mediastore.ImportTask, error) {
	task, err := d.store.NewTask(ctx, gameID, units)
	if err != nil {
		return nil, err
	}
	d.queue.Push(task.ID)
	d.logger.Info("import task enqueued", logging.FieldTaskID, task.ID, "units", len(task.Units))
	return task, nil
}

// ErrTaskFinished indicates a restart was requested for a terminal task.
var ErrTaskFinished = errors.New("task already finished")

// RestartTask re-pushes an unfinished task onto the queue.
func (d *Daemon) RestartTask(ctx context.Context, id string) (*mediastore.ImportTask, error) {
	task, err := d.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}
	if task.Status.IsTerminal() {
		return task, ErrTaskFinished
	}
	d.queue.Push(task.ID)
	return task, nil
}

// RunSweep executes one named sweep immediately.
func (d *Daemon) RunSweep(ctx context.Context, name string) error {
	switch name {
	case "restarter":
		return d.restarter.RunOnce(ctx)
	case "content-types":
		return d.contentTypes.RunOnce(ctx)
	case "alternates":
		return d.alternates.RunOnce(ctx)
	case "temp-files":
		return d.collector.CleanupOnce(ctx)
	case "orphans":
		return d.collector.OrphansOnce(ctx)
	default:
		return fmt.Errorf("unknown sweep %q", name)
	}
}

// Health returns aggregate task counts plus the live queue depth.
func (d *Daemon) Health(ctx context.Context) (mediastore.HealthSummary, int, error) {
	health, err := d.store.Health(ctx)
	if err != nil {
		return mediastore.HealthSummary{}, 0, err
	}
	return health, d.queue.Len(), nil
}
