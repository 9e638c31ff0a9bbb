// Package logging assembles structured slog loggers and formatting helpers used
// across PlexShelf.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so matching code can tag log
// lines with run IDs, item IDs, and stages. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
