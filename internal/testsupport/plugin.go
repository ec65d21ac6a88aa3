package testsupport

import (
	"context"
	"sync/atomic"

	"iris/internal/registry"
)

// FakePlugin is a scriptable capability plugin for registry and pipeline
// tests.
type FakePlugin struct {
	PluginName     string
	PluginCategory registry.Category
	PluginProvider string
	PluginPriority int

	Missing    []string
	InitErr    error
	ProbeErr   error
	ExecErr    error
	ExecResult registry.Result

	ExecCalls    atomic.Int64
	CleanupCalls atomic.Int64
}

var _ registry.Plugin = (*FakePlugin)(nil)

func (f *FakePlugin) Name() string                { return f.PluginName }
func (f *FakePlugin) Category() registry.Category { return f.PluginCategory }
func (f *FakePlugin) Priority() int               { return f.PluginPriority }

func (f *FakePlugin) Provider() string {
	if f.PluginProvider == "" {
		return "fake"
	}
	return f.PluginProvider
}

func (f *FakePlugin) MissingDependencies() []string { return f.Missing }

func (f *FakePlugin) Initialize(ctx context.Context) error { return f.InitErr }

func (f *FakePlugin) Probe(ctx context.Context) error { return f.ProbeErr }

func (f *FakePlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	f.ExecCalls.Add(1)
	if f.ExecErr != nil {
		return registry.Result{}, f.ExecErr
	}
	return f.ExecResult, nil
}

func (f *FakePlugin) Cleanup() error {
	f.CleanupCalls.Add(1)
	return nil
}
