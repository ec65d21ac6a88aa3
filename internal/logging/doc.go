// Package logging assembles the structured slog loggers used across iris
// components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with job IDs, stages, and correlation IDs automatically. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
