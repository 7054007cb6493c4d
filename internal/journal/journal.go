package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Trigger identifies what caused an unlock cycle.
type Trigger string

const (
	// TriggerSessionUnlocked marks cycles fired by a lock-state transition.
	TriggerSessionUnlocked Trigger = "session-unlocked"
	// TriggerProcessStarted marks cycles fired by a process presence transition.
	TriggerProcessStarted Trigger = "process-started"
	// TriggerManual marks cycles started by the unlock CLI command.
	TriggerManual Trigger = "manual"
)

// Entry is one recorded unlock cycle.
type Entry struct {
	ID        int64
	CycleID   string
	Trigger   Trigger
	StartedAt time.Time
	Total     int
	Unlocked  int
	Failed    int
	Message   string
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS unlock_cycles (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id    TEXT NOT NULL,
    fired_by    TEXT NOT NULL,
    started_at  TEXT NOT NULL,
    total       INTEGER NOT NULL DEFAULT 0,
    unlocked    INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    message     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_unlock_cycles_started_at ON unlock_cycles (started_at);
`

// Open initializes or connects to the journal database and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one unlock cycle row.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	startedAt := entry.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO unlock_cycles (cycle_id, fired_by, started_at, total, unlocked, failed, message)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.CycleID,
		string(entry.Trigger),
		startedAt.UTC().Format(time.RFC3339Nano),
		entry.Total,
		entry.Unlocked,
		entry.Failed,
		entry.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("insert unlock cycle: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns the most recent cycles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, cycle_id, fired_by, started_at, total, unlocked, failed, message
         FROM unlock_cycles ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unlock cycles: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var trigger, startedAt string
		if err := rows.Scan(&entry.ID, &entry.CycleID, &trigger, &startedAt,
			&entry.Total, &entry.Unlocked, &entry.Failed, &entry.Message); err != nil {
			return nil, fmt.Errorf("scan unlock cycle: %w", err)
		}
		entry.Trigger = Trigger(trigger)
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		entry.StartedAt = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlock cycles: %w", err)
	}
	return entries, nil
}
