package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dugout/internal/config"
	"dugout/internal/convert"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
)

// TempFileCollector removes local files the pipeline no longer needs: the
// uploaded sources of finished units, and aged conversion artifacts left in
// the scratch directory by interrupted runs.
type TempFileCollector struct {
	store           *mediastore.Store
	scratch         string
	cleanupInterval time.Duration
	orphanInterval  time.Duration
	orphanAge       time.Duration
	logger          *slog.Logger
}

// NewTempFileCollector builds the collector from configuration.
func NewTempFileCollector(store *mediastore.Store, cfg *config.Config, logger *slog.Logger) *TempFileCollector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TempFileCollector{
		store:           store,
		scratch:         cfg.Paths.ScratchDir,
		cleanupInterval: cfg.Sweep.TempFileEvery(),
		orphanInterval:  cfg.Sweep.OrphanEvery(),
		orphanAge:       cfg.Sweep.OrphanAge(),
		logger:          logging.NewComponentLogger(logger, "tempfile-collector"),
	}
}

// RunCleanup ticks the known-unit cleanup until the context is canceled.
func (c *TempFileCollector) RunCleanup(ctx context.Context) error {
	return runEvery(ctx, c.cleanupInterval, "temp-files", c.logger, c.CleanupOnce)
}

// RunOrphans ticks the orphan scratch sweep until the context is canceled.
func (c *TempFileCollector) RunOrphans(ctx context.Context) error {
	return runEvery(ctx, c.orphanInterval, "orphans", c.logger, c.OrphansOnce)
}

// CleanupOnce removes the source files of every unit whose work is done.
// files_purged is only set when every present file was actually removed, so
// a failed delete is retried on the next pass.
func (c *TempFileCollector) CleanupOnce(ctx context.Context) error {
	units, err := c.store.UnitsForCleanup(ctx)
	if err != nil {
		return fmt.Errorf("find units for cleanup: %w", err)
	}

	purged := 0
	for _, unit := range units {
		allRemoved := true
		for _, path := range []string{unit.PhotoPath, unit.VideoPath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				c.logger.Warn("could not remove source file", "path", path, "error", err)
				allRemoved = false
			}
		}
		if !allRemoved {
			continue
		}
		unit.FilesPurged = true
		if err := c.store.UpdateUnit(ctx, unit); err != nil {
			c.logger.Error("mark unit purged", "unit", unit.BaseName, "error", err)
			continue
		}
		purged++
	}
	if purged > 0 {
		c.logger.Info("purged source files", "units", purged)
	}
	return nil
}

// OrphansOnce deletes aged media files from the scratch directory that no
// unprocessed unit still references.
func (c *TempFileCollector) OrphansOnce(ctx context.Context) error {
	entries, err := os.ReadDir(c.scratch)
	if err != nil {
		return fmt.Errorf("read scratch dir: %w", err)
	}

	cutoff := time.Now().Add(-c.orphanAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if convert.ContentTypeForExtension(ext) == convert.FallbackContentType {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(c.scratch, entry.Name())
		referenced, err := c.store.SourcePathReferenced(ctx, path)
		if err != nil {
			c.logger.Error("reference check", "path", path, "error", err)
			continue
		}
		if referenced {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("could not remove orphan", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		c.logger.Info("removed orphaned scratch files", "count", removed)
	}
	return nil
}
