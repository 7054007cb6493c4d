package main

import (
	"strings"
	"sync"

	"keywatch/internal/config"
	"keywatch/internal/secrets"
	"keywatch/internal/unlock"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	// Replaceable in tests.
	store     secrets.Store
	newOpener func() (unlock.Opener, error)
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		store:      secrets.NewKeyringStore(),
		newOpener: func() (unlock.Opener, error) {
			return unlock.NewDBusOpener()
		},
	}
}

// ensureConfig loads the configuration once per invocation and remembers the
// resolved path so mutating commands write back to the same file.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// saveConfig persists the loaded configuration back to its origin.
func (c *commandContext) saveConfig() error {
	if c.config == nil {
		return nil
	}
	return c.config.Save(c.configPath)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
