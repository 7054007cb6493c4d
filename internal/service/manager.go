package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"keywatch/internal/logging"
)

// UnitName is the systemd user unit managed by keywatch.
const UnitName = "keywatch.service"

const unitTemplate = `[Unit]
Description=keywatch session-lock watcher
After=graphical-session.target

[Service]
Type=simple
ExecStart=%s watch
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// runCommandFunc executes systemctl and returns its combined output. A
// struct field so tests can replace it with a stub.
type runCommandFunc func(ctx context.Context, args ...string) (string, error)

func runSystemctl(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Status describes the installed state of the watcher unit.
type Status struct {
	Installed bool
	Active    string
	UnitPath  string
}

// Manager writes the unit file and drives systemctl --user.
type Manager struct {
	logger   *slog.Logger
	unitDir  string
	execPath string
	run      runCommandFunc
}

// NewManager resolves the current executable as the unit's ExecStart target.
func NewManager(logger *slog.Logger) (*Manager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Manager{
		logger:   logging.NewComponentLogger(logger, "service"),
		unitDir:  filepath.Join(home, ".config", "systemd", "user"),
		execPath: execPath,
		run:      runSystemctl,
	}, nil
}

// UnitPath returns the location of the managed unit file.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, UnitName)
}

// Install writes the unit file and enables it immediately.
func (m *Manager) Install(ctx context.Context) error {
	if err := os.MkdirAll(m.unitDir, 0o755); err != nil {
		return fmt.Errorf("create unit directory: %w", err)
	}
	unit := fmt.Sprintf(unitTemplate, m.execPath)
	if err := os.WriteFile(m.UnitPath(), []byte(unit), 0o644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}
	if out, err := m.run(ctx, "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w (%s)", err, out)
	}
	if out, err := m.run(ctx, "--user", "enable", "--now", UnitName); err != nil {
		return fmt.Errorf("systemctl enable: %w (%s)", err, out)
	}
	m.logger.Info("watcher service installed",
		logging.String("unit", m.UnitPath()),
		logging.String("exec", m.execPath),
	)
	return nil
}

// Uninstall disables the unit and removes the file. A unit that was never
// installed is not an error.
func (m *Manager) Uninstall(ctx context.Context) error {
	if _, err := os.Stat(m.UnitPath()); os.IsNotExist(err) {
		m.logger.Info("watcher service not installed", logging.String("unit", m.UnitPath()))
		return nil
	}
	if out, err := m.run(ctx, "--user", "disable", "--now", UnitName); err != nil {
		// The unit file still exists; removing it below would leave systemd
		// tracking a running service.
		return fmt.Errorf("systemctl disable: %w (%s)", err, out)
	}
	if err := os.Remove(m.UnitPath()); err != nil {
		return fmt.Errorf("remove unit file: %w", err)
	}
	if out, err := m.run(ctx, "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w (%s)", err, out)
	}
	m.logger.Info("watcher service removed", logging.String("unit", m.UnitPath()))
	return nil
}

// Query reports whether the unit file exists and what systemd thinks of it.
func (m *Manager) Query(ctx context.Context) (Status, error) {
	status := Status{UnitPath: m.UnitPath()}
	if _, err := os.Stat(m.UnitPath()); err == nil {
		status.Installed = true
	} else if !os.IsNotExist(err) {
		return status, fmt.Errorf("stat unit file: %w", err)
	}

	// is-active exits non-zero for inactive units; the output is still the
	// answer we want.
	out, _ := m.run(ctx, "--user", "is-active", UnitName)
	if out == "" {
		out = "unknown"
	}
	status.Active = out
	return status, nil
}
