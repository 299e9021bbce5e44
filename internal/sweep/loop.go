package sweep

import (
	"context"
	"log/slog"
	"time"
)

// runEvery invokes fn on a fixed interval until the context is canceled.
// Errors are logged and the next tick proceeds normally.
func runEvery(ctx context.Context, interval time.Duration, name string, logger *slog.Logger, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("sweep loop started", "sweep", name, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep loop stopping", "sweep", name)
			return nil
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				logger.Error("sweep tick failed", "sweep", name, "error", err)
			}
		}
	}
}
