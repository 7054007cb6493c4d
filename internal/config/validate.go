package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Keywatch.ProcessName == "" {
		return errors.New("keywatch.process_name must be set")
	}
	if c.Keywatch.KeyringService == "" {
		return errors.New("keywatch.keyring_service must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"watch.poll_interval":      c.Watch.PollInterval,
		"watch.subscribe_attempts": c.Watch.SubscribeAttempts,
		"watch.subscribe_delay":    c.Watch.SubscribeDelay,
		"watch.unlock_timeout":     c.Watch.UnlockTimeout,
	}); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	seen := make(map[string]struct{}, len(c.Databases))
	for _, entry := range c.Databases {
		if entry.Path == "" {
			return errors.New("databases entries must have a non-empty path")
		}
		if _, ok := seen[entry.Path]; ok {
			return fmt.Errorf("duplicate database entry %q", entry.Path)
		}
		seen[entry.Path] = struct{}{}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
