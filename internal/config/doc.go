// Package config loads, validates, and defaults the TOML configuration for
// iris. It is the configuration provider consumed by the orchestrator:
// per-media-type feature toggles, provider credentials, cache and resource
// tunables, and daemon paths all live here.
package config
