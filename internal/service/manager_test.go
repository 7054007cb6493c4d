package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keywatch/internal/logging"
)

type systemctlCall struct {
	args []string
}

func newTestManager(t *testing.T) (*Manager, *[]systemctlCall) {
	t.Helper()
	calls := &[]systemctlCall{}
	mgr := &Manager{
		logger:   logging.NewNop(),
		unitDir:  t.TempDir(),
		execPath: "/usr/local/bin/keywatch",
		run: func(_ context.Context, args ...string) (string, error) {
			*calls = append(*calls, systemctlCall{args: args})
			return "", nil
		},
	}
	return mgr, calls
}

func TestInstallWritesUnitAndEnables(t *testing.T) {
	mgr, calls := newTestManager(t)

	if err := mgr.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	data, err := os.ReadFile(mgr.UnitPath())
	if err != nil {
		t.Fatalf("read unit file: %v", err)
	}
	unit := string(data)
	if !strings.Contains(unit, "ExecStart=/usr/local/bin/keywatch watch") {
		t.Fatalf("unit file missing ExecStart, got:\n%s", unit)
	}
	if !strings.Contains(unit, "WantedBy=default.target") {
		t.Fatalf("unit file missing install target, got:\n%s", unit)
	}

	if len(*calls) != 2 {
		t.Fatalf("expected 2 systemctl calls, got %+v", *calls)
	}
	if got := strings.Join((*calls)[0].args, " "); got != "--user daemon-reload" {
		t.Fatalf("unexpected first call %q", got)
	}
	if got := strings.Join((*calls)[1].args, " "); got != "--user enable --now "+UnitName {
		t.Fatalf("unexpected second call %q", got)
	}
}

func TestInstallReportsSystemctlFailure(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.run = func(context.Context, ...string) (string, error) {
		return "Failed to connect to bus", errors.New("exit status 1")
	}

	err := mgr.Install(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Failed to connect to bus") {
		t.Fatalf("error should carry systemctl output, got %v", err)
	}
}

func TestUninstallRemovesUnit(t *testing.T) {
	mgr, calls := newTestManager(t)
	if err := mgr.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	*calls = nil

	if err := mgr.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(mgr.UnitPath()); !os.IsNotExist(err) {
		t.Fatal("unit file should be removed")
	}
	if len(*calls) != 2 {
		t.Fatalf("expected disable + daemon-reload, got %+v", *calls)
	}
	if got := strings.Join((*calls)[0].args, " "); got != "--user disable --now "+UnitName {
		t.Fatalf("unexpected first call %q", got)
	}
}

func TestUninstallWithoutUnitIsNoop(t *testing.T) {
	mgr, calls := newTestManager(t)
	if err := mgr.Uninstall(context.Background()); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("no systemctl calls expected, got %+v", *calls)
	}
}

func TestQueryReportsState(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.run = func(_ context.Context, args ...string) (string, error) {
		if len(args) == 3 && args[1] == "is-active" {
			return "inactive", errors.New("exit status 3")
		}
		return "", nil
	}

	status, err := mgr.Query(context.Background())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if status.Installed {
		t.Fatal("unit should not be installed yet")
	}
	if status.Active != "inactive" {
		t.Fatalf("unexpected active state %q", status.Active)
	}

	if err := os.WriteFile(filepath.Join(mgr.unitDir, UnitName), []byte("[Unit]\n"), 0o644); err != nil {
		t.Fatalf("write unit: %v", err)
	}
	status, err = mgr.Query(context.Background())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !status.Installed {
		t.Fatal("unit should report installed")
	}
}
