package watcher

import (
	"context"
	"log/slog"

	"keywatch/internal/journal"
	"keywatch/internal/logging"
	"keywatch/internal/procwatch"
	"keywatch/internal/sessionbus"
	"keywatch/internal/unlock"
)

// LockState is the last known session lock state. The initial Unknown state
// never triggers an unlock by itself.
type LockState int

const (
	LockStateUnknown LockState = iota
	LockStateLocked
	LockStateUnlocked
)

func (s LockState) String() string {
	switch s {
	case LockStateLocked:
		return "locked"
	case LockStateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// asBool collapses the state to the boolean carried by lock events, with
// Unknown treated as unlocked for duplicate comparison.
func (s LockState) asBool() bool {
	return s == LockStateLocked
}

// Unlocker runs one unlock cycle. Implementations never return an error.
type Unlocker interface {
	UnlockAll(ctx context.Context) unlock.Result
}

// Recorder persists unlock cycle outcomes. Optional.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) (int64, error)
}

// Engine owns the reconciliation state. All fields are mutated exclusively
// from Run's goroutine; producers communicate via their event channels only.
type Engine struct {
	logger   *slog.Logger
	unlocker Unlocker
	recorder Recorder

	lockState LockState
	running   bool
	pid       int32
}

// NewEngine creates an engine driving unlocker. recorder may be nil.
func NewEngine(logger *slog.Logger, unlocker Unlocker, recorder Recorder) *Engine {
	return &Engine{
		logger:   logging.NewComponentLogger(logger, "watcher"),
		unlocker: unlocker,
		recorder: recorder,
	}
}

// Run consumes both event streams until the context is canceled or both
// streams are closed. Selecting both channels from this single goroutine is
// what serializes the two producers: a lock-state update can never interleave
// with a presence update.
func (e *Engine) Run(ctx context.Context, lockEvents <-chan sessionbus.Event, presenceEvents <-chan procwatch.Presence) {
	for lockEvents != nil || presenceEvents != nil {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-lockEvents:
			if !ok {
				lockEvents = nil
				continue
			}
			e.handleLockEvent(ctx, event)
		case presence, ok := <-presenceEvents:
			if !ok {
				presenceEvents = nil
				continue
			}
			e.handlePresence(ctx, presence)
		}
	}
}

func (e *Engine) handleLockEvent(ctx context.Context, event sessionbus.Event) {
	if event.Locked == e.lockState.asBool() {
		e.logger.Debug("duplicate lock-state notification suppressed",
			logging.Bool("locked", event.Locked))
		return
	}

	if event.Locked {
		e.lockState = LockStateLocked
		e.logger.Info("session locked",
			logging.String(logging.FieldEventType, "session_locked"))
		return
	}

	e.lockState = LockStateUnlocked
	if !e.running {
		// Transition recorded; process absence overrides the action.
		e.logger.Info("session unlocked but target process not running",
			logging.String(logging.FieldEventType, "session_unlocked_no_process"))
		return
	}

	e.logger.Info("session unlocked",
		logging.String(logging.FieldEventType, "session_unlocked"))
	e.fire(ctx, journal.TriggerSessionUnlocked)
}

func (e *Engine) handlePresence(ctx context.Context, presence procwatch.Presence) {
	if !presence.Running {
		e.running = false
		e.pid = 0
		return
	}

	started := !e.running || e.pid != presence.PID
	e.running = true
	e.pid = presence.PID
	if !started {
		return
	}

	// Fire unconditionally on a fresh start: if the session was already
	// unlocked before the process came up, no further lock event will
	// arrive to trigger the unlock.
	e.logger.Info("target process started",
		logging.Int("pid", int(presence.PID)),
		logging.String(logging.FieldEventType, "process_started"))
	e.fire(ctx, journal.TriggerProcessStarted)
}

func (e *Engine) fire(ctx context.Context, trigger journal.Trigger) {
	result := e.unlocker.UnlockAll(ctx)
	e.logger.Info("unlock cycle finished",
		logging.String(logging.FieldCycleID, result.CycleID),
		logging.String("trigger", string(trigger)),
		logging.Int("total", result.Total),
		logging.Int("unlocked", result.Unlocked),
		logging.Int("failed", result.Failed),
	)

	if e.recorder == nil {
		return
	}
	entry := journal.Entry{
		CycleID:  result.CycleID,
		Trigger:  trigger,
		Total:    result.Total,
		Unlocked: result.Unlocked,
		Failed:   result.Failed,
		Message:  result.Message,
	}
	if _, err := e.recorder.Record(ctx, entry); err != nil {
		e.logger.Warn("record unlock cycle",
			logging.Error(err),
			logging.String(logging.FieldEventType, "journal_write_failed"),
			logging.String(logging.FieldImpact, "history will not show this cycle"),
		)
	}
}
