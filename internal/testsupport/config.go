package testsupport

import (
	"path/filepath"
	"testing"

	"dugout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Remote.Endpoint = "127.0.0.1:9000"
	cfg.Remote.Bucket = "dugout-test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxAttempts overrides the worker attempt ceiling.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Import.MaxAttempts = attempts
	}
}

// WithAlternateBatch overrides the backfill batch size.
func WithAlternateBatch(batch int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sweep.AlternateBatch = batch
	}
}
