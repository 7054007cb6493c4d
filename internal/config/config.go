package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	sectionKeywatch  = "keywatch"
	sectionWatch     = "watch"
	sectionLogging   = "logging"
	sectionDatabases = "databases"

	enabledMarker  = "enabled"
	disabledMarker = "disabled"
)

// Keywatch contains the target application and keyring settings.
type Keywatch struct {
	ProcessName    string `ini:"process_name"`
	KeyringService string `ini:"keyring_service"`
}

// Watch contains daemon timing settings, all in seconds.
type Watch struct {
	PollInterval      int `ini:"poll_interval"`
	SubscribeAttempts int `ini:"subscribe_attempts"`
	SubscribeDelay    int `ini:"subscribe_delay"`
	UnlockTimeout     int `ini:"unlock_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `ini:"format"`
	Level  string `ini:"level"`
	Dir    string `ini:"dir"`
}

// DatabaseEntry is one configured database eligible for automatic unlock.
type DatabaseEntry struct {
	Path    string
	Enabled bool
}

// Config encapsulates all configuration values for keywatch.
//
// Sections:
//   - [keywatch]: target process name and keyring service identity
//   - [watch]: polling, subscription retry, and unlock call timing
//   - [logging]: log format, level, and directory
//   - [databases]: ordered database path -> enabled/disabled mapping
type Config struct {
	Keywatch  Keywatch
	Watch     Watch
	Logging   Logging
	Databases []DatabaseEntry
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/keywatch/config.ini")
}

// Load locates, parses, and validates a configuration file. Missing sections
// and keys keep their defaults; the returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := ini.Load(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.fromFile(file); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) fromFile(file *ini.File) error {
	if sec, err := file.GetSection(sectionKeywatch); err == nil {
		if err := sec.MapTo(&c.Keywatch); err != nil {
			return fmt.Errorf("parse [%s]: %w", sectionKeywatch, err)
		}
	}
	if sec, err := file.GetSection(sectionWatch); err == nil {
		if err := sec.MapTo(&c.Watch); err != nil {
			return fmt.Errorf("parse [%s]: %w", sectionWatch, err)
		}
	}
	if sec, err := file.GetSection(sectionLogging); err == nil {
		if err := sec.MapTo(&c.Logging); err != nil {
			return fmt.Errorf("parse [%s]: %w", sectionLogging, err)
		}
	}
	if sec, err := file.GetSection(sectionDatabases); err == nil {
		c.Databases = c.Databases[:0]
		for _, key := range sec.Keys() {
			c.Databases = append(c.Databases, DatabaseEntry{
				Path:    key.Name(),
				Enabled: strings.EqualFold(strings.TrimSpace(key.Value()), enabledMarker),
			})
		}
	}
	return nil
}

// Save writes the configuration to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	file := ini.Empty()

	kw, err := file.NewSection(sectionKeywatch)
	if err != nil {
		return fmt.Errorf("write [%s]: %w", sectionKeywatch, err)
	}
	if err := kw.ReflectFrom(&c.Keywatch); err != nil {
		return fmt.Errorf("write [%s]: %w", sectionKeywatch, err)
	}

	watch, err := file.NewSection(sectionWatch)
	if err != nil {
		return fmt.Errorf("write [%s]: %w", sectionWatch, err)
	}
	if err := watch.ReflectFrom(&c.Watch); err != nil {
		return fmt.Errorf("write [%s]: %w", sectionWatch, err)
	}

	logging, err := file.NewSection(sectionLogging)
	if err != nil {
		return fmt.Errorf("write [%s]: %w", sectionLogging, err)
	}
	if err := logging.ReflectFrom(&c.Logging); err != nil {
		return fmt.Errorf("write [%s]: %w", sectionLogging, err)
	}

	databases, err := file.NewSection(sectionDatabases)
	if err != nil {
		return fmt.Errorf("write [%s]: %w", sectionDatabases, err)
	}
	for _, entry := range c.Databases {
		marker := disabledMarker
		if entry.Enabled {
			marker = enabledMarker
		}
		if _, err := databases.NewKey(entry.Path, marker); err != nil {
			return fmt.Errorf("write database entry %q: %w", entry.Path, err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// SetDatabase adds or updates a database entry, preserving entry order.
func (c *Config) SetDatabase(path string, enabled bool) {
	for i := range c.Databases {
		if c.Databases[i].Path == path {
			c.Databases[i].Enabled = enabled
			return
		}
	}
	c.Databases = append(c.Databases, DatabaseEntry{Path: path, Enabled: enabled})
}

// RemoveDatabase drops a database entry. It reports whether the entry existed.
func (c *Config) RemoveDatabase(path string) bool {
	for i := range c.Databases {
		if c.Databases[i].Path == path {
			c.Databases = append(c.Databases[:i], c.Databases[i+1:]...)
			return true
		}
	}
	return false
}

// EnabledDatabases returns the enabled entries in configured order.
func (c *Config) EnabledDatabases() []DatabaseEntry {
	var enabled []DatabaseEntry
	for _, entry := range c.Databases {
		if entry.Enabled {
			enabled = append(enabled, entry)
		}
	}
	return enabled
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Logging.Dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %q: %w", c.Logging.Dir, err)
	}
	return nil
}

// LogPath returns the path to the watcher log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Logging.Dir, "keywatch.log")
}

// JournalPath returns the path to the unlock journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Logging.Dir, "journal.db")
}

// LockPath returns the path to the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Logging.Dir, "keywatch.lock")
}

func (c *Config) normalize() error {
	c.Keywatch.ProcessName = strings.TrimSpace(c.Keywatch.ProcessName)
	c.Keywatch.KeyringService = strings.TrimSpace(c.Keywatch.KeyringService)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	dir, err := expandPath(c.Logging.Dir)
	if err != nil {
		return err
	}
	c.Logging.Dir = dir

	for i := range c.Databases {
		expanded, err := expandPath(c.Databases[i].Path)
		if err != nil {
			return err
		}
		c.Databases[i].Path = expanded
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
