package procwatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"keywatch/internal/logging"
)

// Presence describes whether the target process is running and under which
// PID. PID is zero when the process is not running.
type Presence struct {
	Running bool
	PID     int32
}

// scanFunc returns the PID of the first process whose name exactly equals
// name, or found=false when no such process exists. Individual process
// inspection errors are swallowed inside the scan.
type scanFunc func(ctx context.Context, name string) (pid int32, found bool, err error)

// Watcher polls the process table and emits Presence values on transitions
// only: not-found to found, found to not-found, and PID changes while
// running, which count as a fresh start.
type Watcher struct {
	logger   *slog.Logger
	name     string
	interval time.Duration
	scan     scanFunc

	mu      sync.Mutex
	events  chan Presence
	quit    chan struct{}
	running bool
	wg      sync.WaitGroup

	lastRunning bool
	lastPID     int32
}

// NewWatcher creates a watcher for the exact process name polling at the
// given interval.
func NewWatcher(logger *slog.Logger, name string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "procwatch"),
		name:     name,
		interval: interval,
		scan:     scanProcessTable,
	}
}

func scanProcessTable(ctx context.Context, name string) (int32, bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, proc := range procs {
		procName, err := proc.NameWithContext(ctx)
		if err != nil {
			// Vanished mid-scan or not inspectable; skip it.
			continue
		}
		if procName == name {
			return proc.Pid, true, nil
		}
	}
	return 0, false, nil
}

// Start launches the polling loop. The first scan runs immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("procwatch: watcher already started")
	}
	if w.name == "" {
		return errors.New("procwatch: process name is required")
	}

	w.events = make(chan Presence, 4)
	w.quit = make(chan struct{})
	w.running = true

	w.wg.Add(1)
	go w.loop(ctx, w.quit)
	return nil
}

// Events returns the presence transition stream. Only valid after Start.
func (w *Watcher) Events() <-chan Presence {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events
}

// Stop halts polling and closes the event stream.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	quit := w.quit
	w.running = false
	w.quit = nil
	w.mu.Unlock()

	close(quit)
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, quit <-chan struct{}) {
	defer w.wg.Done()
	defer close(w.events)

	w.poll(ctx, quit)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			w.poll(ctx, quit)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, quit <-chan struct{}) {
	pid, found, err := w.scan(ctx, w.name)
	if err != nil {
		// A failed table scan self-heals on the next tick.
		w.logger.Warn("process table scan failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "process_scan_failed"),
			logging.String(logging.FieldImpact, "presence changes may be detected late"),
		)
		return
	}

	var event *Presence
	switch {
	case found && (!w.lastRunning || w.lastPID != pid):
		// Newly seen or restarted under a different PID; both count as a
		// fresh process start.
		event = &Presence{Running: true, PID: pid}
	case !found && w.lastRunning:
		event = &Presence{Running: false}
	}

	w.lastRunning = found
	if found {
		w.lastPID = pid
	} else {
		w.lastPID = 0
	}

	if event == nil {
		return
	}

	w.logger.Info("process presence changed",
		logging.String("process", w.name),
		logging.Bool("running", event.Running),
		logging.Int("pid", int(event.PID)),
		logging.String(logging.FieldEventType, "process_presence_changed"),
	)

	select {
	case w.events <- *event:
	case <-ctx.Done():
	case <-quit:
	}
}
