package registry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iris/internal/logging"
	"iris/internal/registry"
	"iris/internal/services"
	"iris/internal/testsupport"
)

func newProbedRegistry(t *testing.T, plugins ...registry.Plugin) *registry.Registry {
	t.Helper()
	reg := registry.New(logging.NewNop())
	for _, plugin := range plugins {
		if err := reg.Register(plugin); err != nil {
			t.Fatalf("Register %s failed: %v", plugin.Name(), err)
		}
	}
	reg.InitializeAndProbe(context.Background())
	return reg
}

func TestProbeDisablesBrokenPlugins(t *testing.T) {
	missing := &testsupport.FakePlugin{
		PluginName:     "no-creds",
		PluginCategory: registry.CategoryTranscription,
		Missing:        []string{"providers.openai.api_key"},
	}
	badInit := &testsupport.FakePlugin{
		PluginName:     "bad-init",
		PluginCategory: registry.CategoryOCR,
		InitErr:        errors.New("socket refused"),
	}
	badProbe := &testsupport.FakePlugin{
		PluginName:     "bad-probe",
		PluginCategory: registry.CategorySentiment,
		ProbeErr:       errors.New("401 unauthorized"),
	}
	healthy := &testsupport.FakePlugin{
		PluginName:     "healthy",
		PluginCategory: registry.CategoryObjectDetection,
	}
	reg := newProbedRegistry(t, missing, badInit, badProbe, healthy)

	want := map[string]string{
		"no-creds":  "missing dependencies: providers.openai.api_key",
		"bad-init":  "initialize failed: socket refused",
		"bad-probe": "probe failed: 401 unauthorized",
		"healthy":   "",
	}
	for _, status := range reg.Report() {
		reason, ok := want[status.Name]
		if !ok {
			t.Fatalf("unexpected plugin %s in report", status.Name)
		}
		if status.Enabled != (reason == "") {
			t.Errorf("%s: enabled = %v, want %v", status.Name, status.Enabled, reason == "")
		}
		if status.DisabledReason != reason {
			t.Errorf("%s: reason = %q, want %q", status.Name, status.DisabledReason, reason)
		}
	}

	if reg.IsFeatureAvailable(registry.CategoryTranscription) {
		t.Error("transcription should be unavailable")
	}
	if !reg.IsFeatureAvailable(registry.CategoryObjectDetection) {
		t.Error("object detection should be available")
	}
}

func TestRegisterAfterProbeIsRejected(t *testing.T) {
	reg := newProbedRegistry(t, &testsupport.FakePlugin{
		PluginName:     "first",
		PluginCategory: registry.CategoryOCR,
	})
	err := reg.Register(&testsupport.FakePlugin{
		PluginName:     "late",
		PluginCategory: registry.CategoryOCR,
	})
	if err == nil {
		t.Fatal("registration after probe should fail")
	}
}

func TestChainOrdersByPriorityThenRegistration(t *testing.T) {
	reg := newProbedRegistry(t,
		&testsupport.FakePlugin{PluginName: "third", PluginCategory: registry.CategoryImageDescription, PluginPriority: 20},
		&testsupport.FakePlugin{PluginName: "first", PluginCategory: registry.CategoryImageDescription, PluginPriority: 10},
		&testsupport.FakePlugin{PluginName: "second", PluginCategory: registry.CategoryImageDescription, PluginPriority: 10},
	)

	chain := reg.Chain(registry.CategoryImageDescription)
	want := []string{"first", "second", "third"}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("chain = %v, want %v", chain, want)
		}
	}
}

func TestExecuteWithFallbackPrefersPrimary(t *testing.T) {
	primary := &testsupport.FakePlugin{
		PluginName:     "primary",
		PluginCategory: registry.CategoryOCR,
		PluginPriority: 10,
		ExecResult:     registry.Result{Text: "from primary"},
	}
	secondary := &testsupport.FakePlugin{
		PluginName:     "secondary",
		PluginCategory: registry.CategoryOCR,
		PluginPriority: 20,
		ExecResult:     registry.Result{Text: "from secondary"},
	}
	reg := newProbedRegistry(t, primary, secondary)

	outcome, err := reg.ExecuteWithFallback(context.Background(), registry.CategoryOCR, registry.Input{})
	if err != nil {
		t.Fatalf("ExecuteWithFallback failed: %v", err)
	}
	if outcome.PluginUsed != "primary" || outcome.FallbackUsed {
		t.Fatalf("outcome = %+v, want primary without fallback", outcome)
	}
	if secondary.ExecCalls.Load() != 0 {
		t.Fatal("secondary plugin executed despite primary success")
	}
}

func TestExecuteWithFallbackAdvancesPastFailures(t *testing.T) {
	primary := &testsupport.FakePlugin{
		PluginName:     "primary",
		PluginCategory: registry.CategoryOCR,
		PluginPriority: 10,
		ExecErr:        errors.New("rate limited"),
	}
	secondary := &testsupport.FakePlugin{
		PluginName:     "secondary",
		PluginCategory: registry.CategoryOCR,
		PluginPriority: 20,
		ExecResult:     registry.Result{Text: "recovered"},
	}
	reg := newProbedRegistry(t, primary, secondary)

	outcome, err := reg.ExecuteWithFallback(context.Background(), registry.CategoryOCR, registry.Input{})
	if err != nil {
		t.Fatalf("ExecuteWithFallback failed: %v", err)
	}
	if outcome.PluginUsed != "secondary" {
		t.Fatalf("PluginUsed = %s, want secondary", outcome.PluginUsed)
	}
	if !outcome.FallbackUsed {
		t.Fatal("FallbackUsed not set")
	}
	if outcome.Result.Text != "recovered" {
		t.Fatalf("Result.Text = %q", outcome.Result.Text)
	}
	if len(outcome.Attempts) != 1 || !strings.Contains(outcome.Attempts[0], "rate limited") {
		t.Fatalf("Attempts = %v", outcome.Attempts)
	}
}

func TestExecuteWithFallbackExhaustion(t *testing.T) {
	first := &testsupport.FakePlugin{
		PluginName:     "first",
		PluginCategory: registry.CategorySentiment,
		PluginPriority: 10,
		ExecErr:        errors.New("timeout"),
	}
	second := &testsupport.FakePlugin{
		PluginName:     "second",
		PluginCategory: registry.CategorySentiment,
		PluginPriority: 20,
		ExecErr:        errors.New("model overloaded"),
	}
	reg := newProbedRegistry(t, first, second)

	_, err := reg.ExecuteWithFallback(context.Background(), registry.CategorySentiment, registry.Input{})
	if err == nil {
		t.Fatal("expected error after exhausting all candidates")
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error should embed the last failure, got %v", err)
	}
}

func TestExecuteWithFallbackNoCandidates(t *testing.T) {
	reg := newProbedRegistry(t)
	_, err := reg.ExecuteWithFallback(context.Background(), registry.CategoryOCR, registry.Input{})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestSetEnabledTogglesAvailability(t *testing.T) {
	plugin := &testsupport.FakePlugin{
		PluginName:     "only",
		PluginCategory: registry.CategoryTranscription,
	}
	reg := newProbedRegistry(t, plugin)

	if err := reg.SetEnabled("only", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if reg.IsFeatureAvailable(registry.CategoryTranscription) {
		t.Fatal("category still available after disabling its only plugin")
	}
	if err := reg.SetEnabled("only", true); err != nil {
		t.Fatalf("re-enable failed: %v", err)
	}
	if !reg.IsFeatureAvailable(registry.CategoryTranscription) {
		t.Fatal("category unavailable after re-enabling")
	}
}

func TestSetEnabledRejectsUninitializedPlugin(t *testing.T) {
	broken := &testsupport.FakePlugin{
		PluginName:     "broken",
		PluginCategory: registry.CategoryOCR,
		Missing:        []string{"providers.gemini.api_key"},
	}
	reg := newProbedRegistry(t, broken)
	if err := reg.SetEnabled("broken", true); err == nil {
		t.Fatal("enabling an uninitialized plugin should fail")
	}
}

func TestCloseRunsCleanupOnInitializedPluginsOnly(t *testing.T) {
	healthy := &testsupport.FakePlugin{
		PluginName:     "healthy",
		PluginCategory: registry.CategoryOCR,
	}
	broken := &testsupport.FakePlugin{
		PluginName:     "broken",
		PluginCategory: registry.CategoryOCR,
		Missing:        []string{"providers.gemini.api_key"},
	}
	reg := newProbedRegistry(t, healthy, broken)
	reg.Close()

	if healthy.CleanupCalls.Load() != 1 {
		t.Fatalf("healthy cleanup calls = %d, want 1", healthy.CleanupCalls.Load())
	}
	if broken.CleanupCalls.Load() != 0 {
		t.Fatalf("broken cleanup calls = %d, want 0", broken.CleanupCalls.Load())
	}
}
