package unlock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"keywatch/internal/config"
	"keywatch/internal/logging"
	"keywatch/internal/secrets"
)

// Result summarizes one unlock cycle for journaling and display.
type Result struct {
	CycleID  string
	Total    int
	Unlocked int
	Failed   int
	Message  string
}

// LoadFunc returns fresh settings for an unlock cycle. Settings are re-read
// every cycle so entries added while the watcher runs are picked up.
type LoadFunc func() (*config.Config, error)

// Action unlocks all enabled databases. It never returns an error: every
// failure is logged and reflected in the Result.
type Action struct {
	logger  *slog.Logger
	load    LoadFunc
	store   secrets.Store
	opener  Opener
	timeout time.Duration
}

// NewAction wires an unlock action from its collaborators. timeout bounds
// each openDatabase call.
func NewAction(logger *slog.Logger, load LoadFunc, store secrets.Store, opener Opener, timeout time.Duration) *Action {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Action{
		logger:  logging.NewComponentLogger(logger, "unlock"),
		load:    load,
		store:   store,
		opener:  opener,
		timeout: timeout,
	}
}

// UnlockAll runs one unlock cycle over the currently enabled entries.
//
// Per-entry failures (lookup errors, RPC errors) are logged and do not stop
// the batch. A credential missing from the keyring entirely abandons the
// remainder of the cycle: with nothing stored under the service there is no
// point attempting further lookups. A credential whose identity does not
// match the entry path only skips that entry.
func (a *Action) UnlockAll(ctx context.Context) Result {
	result := Result{CycleID: uuid.NewString()}
	logger := a.logger.With(logging.String(logging.FieldCycleID, result.CycleID))

	cfg, err := a.load()
	if err != nil {
		result.Message = "settings unavailable"
		logger.Error("load settings for unlock cycle",
			logging.Error(err),
			logging.String(logging.FieldEventType, "unlock_settings_failed"),
		)
		return result
	}

	entries := cfg.EnabledDatabases()
	result.Total = len(entries)
	if len(entries) == 0 {
		result.Message = "no enabled databases"
		logger.Info("no enabled databases to unlock")
		return result
	}

	service := cfg.Keywatch.KeyringService
	for _, entry := range entries {
		entryLogger := logger.With(logging.String(logging.FieldDatabase, entry.Path))

		cred, err := a.store.Lookup(service, entry.Path)
		if errors.Is(err, secrets.ErrNotFound) {
			result.Message = "credential not found; remaining entries skipped"
			entryLogger.Warn("no credential stored for service; abandoning unlock cycle",
				logging.String("service", service),
				logging.String(logging.FieldEventType, "unlock_credential_missing"),
				logging.String(logging.FieldErrorHint, "store the password with `keywatch add`"),
			)
			return result
		}
		if err != nil {
			result.Failed++
			entryLogger.Error("credential lookup failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "unlock_lookup_failed"),
			)
			continue
		}
		if cred.Identity != entry.Path {
			entryLogger.Warn("credential identity does not match database path; entry skipped",
				logging.String("identity", cred.Identity),
				logging.String(logging.FieldEventType, "unlock_identity_mismatch"),
			)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		err = a.opener.OpenDatabase(callCtx, entry.Path, cred.Secret)
		cancel()
		if err != nil {
			result.Failed++
			entryLogger.Error("unlock request failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "unlock_call_failed"),
				logging.String(logging.FieldErrorHint, "verify KeePassXC is running with browser/D-Bus integration enabled"),
			)
			continue
		}

		result.Unlocked++
		entryLogger.Info("unlock request sent",
			logging.String(logging.FieldEventType, "unlock_sent"),
		)
	}

	return result
}
