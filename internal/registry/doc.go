// Package registry owns the catalogue of provider plugins grouped by
// capability category.
//
// Plugins are registered during wiring, probed exactly once during an
// explicit initialization phase, and read lock-free afterwards except for
// explicit admin toggles. Execution always goes through the ordered
// fallback chain: candidates are tried in priority order and a single
// working provider is enough to keep a capability available.
package registry
