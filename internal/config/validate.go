package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	return c.validateSweep()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if strings.TrimSpace(c.Remote.Endpoint) == "" {
		return errors.New("remote.endpoint must be set")
	}
	if strings.TrimSpace(c.Remote.Bucket) == "" {
		return errors.New("remote.bucket must be set")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.MaxAttempts < 1 {
		return fmt.Errorf("import.max_attempts must be at least 1, got %d", c.Import.MaxAttempts)
	}
	return nil
}

func (c *Config) validateSweep() error {
	intervals := map[string]int{
		"sweep.restart_interval":      c.Sweep.RestartInterval,
		"sweep.content_type_interval": c.Sweep.ContentTypeInterval,
		"sweep.alternate_interval":    c.Sweep.AlternateInterval,
		"sweep.temp_file_interval":    c.Sweep.TempFileInterval,
		"sweep.orphan_interval":       c.Sweep.OrphanInterval,
	}
	for name, value := range intervals {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	if c.Sweep.AlternateBatch <= 0 {
		return fmt.Errorf("sweep.alternate_batch must be positive, got %d", c.Sweep.AlternateBatch)
	}
	if c.Sweep.OrphanAgeHours <= 0 {
		return fmt.Errorf("sweep.orphan_age_hours must be positive, got %d", c.Sweep.OrphanAgeHours)
	}
	return nil
}
