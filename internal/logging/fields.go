package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"

	// FieldEventType tags a log line with a machine-readable event identifier.
	FieldEventType = "event_type"

	// FieldErrorHint carries the suggested next step for a warning or error.
	FieldErrorHint = "error_hint"

	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"

	// FieldCycleID correlates all log lines belonging to one unlock cycle.
	FieldCycleID = "cycle_id"

	// FieldDatabase is the database path an unlock attempt targets.
	FieldDatabase = "database"
)
