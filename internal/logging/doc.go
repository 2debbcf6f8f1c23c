// Package logging assembles structured slog loggers and formatting helpers used
// across menuscope commands.
//
// It owns the console/JSON handlers, centralizes level and output plumbing
// (including the rotated log file), and exposes context-aware helpers so
// pipeline code can tag log lines with the run correlation id, stage, and the
// restaurant or dish being processed. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
