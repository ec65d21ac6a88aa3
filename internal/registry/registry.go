package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"iris/internal/logging"
)

// PluginStatus describes one catalogue entry for introspection.
type PluginStatus struct {
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	Provider       string   `json:"provider"`
	Priority       int      `json:"priority"`
	Enabled        bool     `json:"enabled"`
	DisabledReason string   `json:"disabledReason,omitempty"`
}

type entry struct {
	plugin         Plugin
	enabled        bool
	disabledReason string
	initialized    bool
}

// Registry is the plugin catalogue. The catalogue and enabled flags are
// mutated only during initialization and explicit toggles; execution-path
// reads take the read lock.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	plugins map[string]*entry
	order   []string
	chains  map[Category][]string
	probed  bool
}

// New constructs an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logging.NewComponentLogger(logger, "registry"),
		plugins: make(map[string]*entry),
		chains:  make(map[Category][]string),
	}
}

// Register adds a plugin to the catalogue. Registration after
// InitializeAndProbe is rejected.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("plugin must not be nil")
	}
	name := strings.TrimSpace(plugin.Name())
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.probed {
		return fmt.Errorf("register %s: catalogue is sealed after probing", name)
	}
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	r.plugins[name] = &entry{plugin: plugin}
	r.order = append(r.order, name)
	return nil
}

// InitializeAndProbe initializes and smoke-tests every registered plugin.
// Plugins with missing dependencies or failing probes are disabled with a
// recorded reason; provider outages never block startup, so this method
// does not return an error for them.
func (r *Registry) InitializeAndProbe(ctx context.Context) {
	r.mu.Lock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	r.mu.Unlock()

	for _, name := range names {
		r.probeOne(ctx, name)
	}

	r.mu.Lock()
	r.probed = true
	r.rebuildChainsLocked()
	r.mu.Unlock()
}

func (r *Registry) probeOne(ctx context.Context, name string) {
	r.mu.RLock()
	ent, ok := r.plugins[name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	plugin := ent.plugin

	disable := func(reason string) {
		r.mu.Lock()
		ent.enabled = false
		ent.disabledReason = reason
		r.mu.Unlock()
		r.logger.Warn("plugin disabled",
			logging.String(logging.FieldPlugin, name),
			logging.String(logging.FieldCategory, string(plugin.Category())),
			logging.String("reason", reason),
			logging.String(logging.FieldErrorHint, "check provider credentials and connectivity"),
		)
	}

	if missing := plugin.MissingDependencies(); len(missing) > 0 {
		disable("missing dependencies: " + strings.Join(missing, ", "))
		return
	}
	if err := plugin.Initialize(ctx); err != nil {
		disable("initialize failed: " + err.Error())
		return
	}
	if err := plugin.Probe(ctx); err != nil {
		disable("probe failed: " + err.Error())
		return
	}

	r.mu.Lock()
	ent.enabled = true
	ent.initialized = true
	ent.disabledReason = ""
	r.mu.Unlock()
	r.logger.Info("plugin available",
		logging.String(logging.FieldPlugin, name),
		logging.String(logging.FieldCategory, string(plugin.Category())),
		logging.String(logging.FieldProvider, plugin.Provider()),
	)
}

// SetEnabled toggles a plugin at runtime and rebuilds the fallback chains.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.plugins[name]
	if !ok {
		return fmt.Errorf("plugin %s not registered", name)
	}
	if enabled && !ent.initialized {
		return fmt.Errorf("plugin %s cannot be enabled: %s", name, ent.disabledReason)
	}
	ent.enabled = enabled
	if !enabled && ent.disabledReason == "" {
		ent.disabledReason = "disabled by operator"
	}
	if enabled {
		ent.disabledReason = ""
	}
	r.rebuildChainsLocked()
	return nil
}

// IsFeatureAvailable reports whether at least one enabled plugin serves the
// category.
func (r *Registry) IsFeatureAvailable(category Category) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains[category]) > 0
}

// Chain returns the ordered fallback chain for a category.
func (r *Registry) Chain(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.chains[category]
	out := make([]string, len(chain))
	copy(out, chain)
	return out
}

// Report returns the status of every catalogue entry, ordered by category
// then priority.
func (r *Registry) Report() []PluginStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PluginStatus, 0, len(r.plugins))
	for _, name := range r.order {
		ent := r.plugins[name]
		out = append(out, PluginStatus{
			Name:           name,
			Category:       ent.plugin.Category(),
			Provider:       ent.plugin.Provider(),
			Priority:       ent.plugin.Priority(),
			Enabled:        ent.enabled,
			DisabledReason: ent.disabledReason,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Close runs cleanup on every initialized plugin.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		ent := r.plugins[name]
		if !ent.initialized {
			continue
		}
		if err := ent.plugin.Cleanup(); err != nil {
			r.logger.Warn("plugin cleanup failed",
				logging.String(logging.FieldPlugin, name),
				logging.Error(err),
			)
		}
	}
}

// rebuildChainsLocked derives the per-category fallback chains from enabled
// plugins ordered by priority, then registration order.
func (r *Registry) rebuildChainsLocked() {
	chains := make(map[Category][]string)
	type candidate struct {
		name     string
		priority int
		index    int
	}
	byCategory := make(map[Category][]candidate)
	for idx, name := range r.order {
		ent := r.plugins[name]
		if !ent.enabled {
			continue
		}
		cat := ent.plugin.Category()
		byCategory[cat] = append(byCategory[cat], candidate{name: name, priority: ent.plugin.Priority(), index: idx})
	}
	for cat, candidates := range byCategory {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].priority != candidates[j].priority {
				return candidates[i].priority < candidates[j].priority
			}
			return candidates[i].index < candidates[j].index
		})
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.name
		}
		chains[cat] = names
	}
	r.chains = chains
}
