// Package tracker maintains the per-job processing state machine.
//
// Each job owns a fixed, ordered stage list declared at creation. Stage
// transitions are the only mutations; a stage never leaves a terminal
// state and a job terminates exactly once. Every transition emits a typed
// lifecycle event to registered subscribers, keeping observers (logs,
// archives, notifiers) decoupled from the code doing the work.
package tracker
