package registry

import (
	"context"
	"fmt"

	"iris/internal/logging"
	"iris/internal/services"
)

// Outcome is the structured result of a fallback execution.
type Outcome struct {
	Result       Result
	PluginUsed   string
	ProviderUsed string
	FallbackUsed bool
	// Attempts records one human-readable line per failed candidate.
	Attempts []string
}

// ExecuteWithFallback tries the category's candidates strictly in chain
// order. A candidate failure is logged and the next candidate attempted;
// only exhaustion of the whole chain produces an error, tagged
// services.ErrUnavailable and embedding the last underlying failure.
func (r *Registry) ExecuteWithFallback(ctx context.Context, category Category, input Input) (Outcome, error) {
	candidates := r.candidates(category)
	if len(candidates) == 0 {
		return Outcome{}, services.Wrap(services.ErrUnavailable, string(category), "execute", "no enabled plugins", nil)
	}

	outcome := Outcome{}
	var lastErr error
	for i, name := range candidates {
		plugin := r.lookup(name)
		if plugin == nil {
			continue
		}
		result, err := plugin.Execute(ctx, input)
		if err != nil {
			lastErr = err
			outcome.Attempts = append(outcome.Attempts, fmt.Sprintf("%s: %v", name, err))
			r.logger.Warn("plugin execution failed, trying next candidate",
				logging.String(logging.FieldPlugin, name),
				logging.String(logging.FieldCategory, string(category)),
				logging.Int("remaining", len(candidates)-i-1),
				logging.Error(err),
			)
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			continue
		}
		outcome.Result = result
		outcome.PluginUsed = name
		outcome.ProviderUsed = plugin.Provider()
		outcome.FallbackUsed = i > 0
		return outcome, nil
	}

	return Outcome{}, services.Wrap(
		services.ErrUnavailable,
		string(category),
		"execute",
		fmt.Sprintf("all %d candidates failed", len(candidates)),
		lastErr,
	)
}

// candidates builds the ordered list: the derived fallback chain first,
// then any other enabled same-category plugin not already listed.
func (r *Registry) candidates(category Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[category]
	out := make([]string, 0, len(chain)+2)
	seen := make(map[string]struct{}, len(chain))
	for _, name := range chain {
		out = append(out, name)
		seen[name] = struct{}{}
	}
	for _, name := range r.order {
		if _, ok := seen[name]; ok {
			continue
		}
		ent := r.plugins[name]
		if ent.enabled && ent.plugin.Category() == category {
			out = append(out, name)
		}
	}
	return out
}

func (r *Registry) lookup(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ent, ok := r.plugins[name]; ok && ent.enabled {
		return ent.plugin
	}
	return nil
}
