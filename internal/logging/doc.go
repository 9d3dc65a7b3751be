// Package logging builds the slog loggers used across the service: a
// human-oriented console handler for interactive use and a JSON handler for
// machine consumption, plus the standardized field names and context helpers
// that keep request identifiers attached to every line.
package logging
