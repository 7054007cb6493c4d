package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"keywatch/internal/config"
	"keywatch/internal/logging"
	"keywatch/internal/procwatch"
	"keywatch/internal/sessionbus"
)

// lockSource produces session lock-state events.
type lockSource interface {
	Start(ctx context.Context) error
	Events() <-chan sessionbus.Event
	Stop()
}

// presenceSource produces process presence events.
type presenceSource interface {
	Start(ctx context.Context) error
	Events() <-chan procwatch.Presence
	Stop()
}

// Daemon wires the producers to the engine and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	subscriber lockSource
	processes  presenceSource
	engine     *Engine

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, subscriber lockSource, processes presenceSource, engine *Engine) (*Daemon, error) {
	if cfg == nil || subscriber == nil || processes == nil || engine == nil {
		return nil, errors.New("daemon requires config, subscriber, process watcher, and engine")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		subscriber: subscriber,
		processes:  processes,
		engine:     engine,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Run blocks until the context is canceled or the subscription fatally
// fails. A sessionbus.ErrNoEndpoint return means the watcher has no
// lock-state visibility and the process should exit with the fatal
// subscription code.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("watcher already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another keywatch watcher is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release watcher lock", logging.Error(err))
		}
	}()

	d.running.Store(true)
	defer d.running.Store(false)

	if err := d.subscriber.Start(ctx); err != nil {
		return err
	}
	defer d.subscriber.Stop()

	if err := d.processes.Start(ctx); err != nil {
		return fmt.Errorf("start process watcher: %w", err)
	}
	defer d.processes.Stop()

	d.logger.Info("keywatch watcher started",
		logging.String("process", d.cfg.Keywatch.ProcessName),
		logging.String("lock", d.lockPath),
	)

	d.engine.Run(ctx, d.subscriber.Events(), d.processes.Events())

	d.logger.Info("keywatch watcher stopped")
	return nil
}

// Running reports whether the daemon loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
