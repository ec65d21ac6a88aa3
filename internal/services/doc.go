// Package services provides shared error classification and context
// annotation helpers used by every analysis component.
//
// Errors are tagged with sentinel markers so callers can classify a
// failure (provider outage, bad input, configuration gap) with errors.Is
// instead of string matching. Context helpers carry job and stage
// identity so loggers can attribute output without threading extra
// parameters through every call.
package services
