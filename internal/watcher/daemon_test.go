package watcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"keywatch/internal/config"
	"keywatch/internal/logging"
	"keywatch/internal/procwatch"
	"keywatch/internal/sessionbus"
)

type fakeLockSource struct {
	events   chan sessionbus.Event
	startErr error
	started  bool
	stopped  bool
}

func newFakeLockSource() *fakeLockSource {
	// Unbuffered so tests know each event was consumed once the send returns.
	return &fakeLockSource{events: make(chan sessionbus.Event)}
}

func (f *fakeLockSource) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeLockSource) Events() <-chan sessionbus.Event { return f.events }

func (f *fakeLockSource) Stop() {
	f.stopped = true
	close(f.events)
}

type fakePresenceSource struct {
	events   chan procwatch.Presence
	startErr error
	started  bool
	stopped  bool
}

func newFakePresenceSource() *fakePresenceSource {
	return &fakePresenceSource{events: make(chan procwatch.Presence)}
}

func (f *fakePresenceSource) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakePresenceSource) Events() <-chan procwatch.Presence { return f.events }

func (f *fakePresenceSource) Stop() {
	f.stopped = true
	close(f.events)
}

func testDaemonConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Dir = t.TempDir()
	return &cfg
}

func TestDaemonRunStopsOnCancel(t *testing.T) {
	cfg := testDaemonConfig(t)
	locks := newFakeLockSource()
	presence := newFakePresenceSource()
	unlocker := &fakeUnlocker{}
	engine := newTestEngine(unlocker, nil)

	daemon, err := New(cfg, logging.NewNop(), locks, presence, engine)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx) }()

	waitFor(t, daemon.Running)

	locks.events <- sessionbus.Event{Locked: true}
	presence.events <- procwatch.Presence{Running: true, PID: 42}
	locks.events <- sessionbus.Event{Locked: false}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}

	if !locks.started || !presence.started {
		t.Fatal("both producers must be started")
	}
	if !locks.stopped || !presence.stopped {
		t.Fatal("both producers must be stopped")
	}
	if unlocker.calls != 2 {
		t.Fatalf("expected 2 unlock cycles, got %d", unlocker.calls)
	}
	if daemon.Running() {
		t.Fatal("daemon still reports running")
	}
}

func TestDaemonRunPropagatesSubscriptionFailure(t *testing.T) {
	cfg := testDaemonConfig(t)
	locks := newFakeLockSource()
	locks.startErr = fmt.Errorf("%w: no endpoint answered", sessionbus.ErrNoEndpoint)
	presence := newFakePresenceSource()

	daemon, err := New(cfg, logging.NewNop(), locks, presence, newTestEngine(&fakeUnlocker{}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = daemon.Run(context.Background())
	if !errors.Is(err, sessionbus.ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
	if presence.started {
		t.Fatal("process watcher must not start when subscription fails")
	}
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	cfg := testDaemonConfig(t)

	holder := flock.New(cfg.LockPath())
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = holder.Unlock() }()

	daemon, err := New(cfg, logging.NewNop(), newFakeLockSource(), newFakePresenceSource(), newTestEngine(&fakeUnlocker{}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := daemon.Run(context.Background()); err == nil {
		t.Fatal("expected an error while the lock is held elsewhere")
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	cfg := testDaemonConfig(t)
	if _, err := New(cfg, logging.NewNop(), nil, newFakePresenceSource(), newTestEngine(&fakeUnlocker{}, nil)); err == nil {
		t.Fatal("expected an error for a nil subscriber")
	}
	if _, err := New(nil, logging.NewNop(), newFakeLockSource(), newFakePresenceSource(), newTestEngine(&fakeUnlocker{}, nil)); err == nil {
		t.Fatal("expected an error for nil config")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
