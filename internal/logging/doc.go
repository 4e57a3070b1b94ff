// Package logging builds the slog loggers used by the chorus daemon and
// CLI: a key=value console handler for terminals and a JSON handler for
// log files, with shared field-key conventions.
package logging
