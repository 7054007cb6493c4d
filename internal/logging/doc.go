// Package logging provides slog-based structured logging for keywatch.
// It exposes typed attribute helpers, standardized field names, and logger
// construction from configuration with console and JSON output formats.
package logging
