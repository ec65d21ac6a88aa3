package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"iris/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved == "" {
		t.Fatal("resolved path empty")
	}
	if cfg.Workflow.MaxConcurrentJobs != 4 {
		t.Fatalf("MaxConcurrentJobs = %d, want default 4", cfg.Workflow.MaxConcurrentJobs)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("cache should be enabled by default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[workflow]
max_concurrent_jobs = 8

[cache]
enabled = false

[providers.openai]
api_key = "  sk-test  "

[features.image]
ocr = false
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("existing file reported missing")
	}
	if cfg.Workflow.MaxConcurrentJobs != 8 {
		t.Fatalf("MaxConcurrentJobs = %d, want 8", cfg.Workflow.MaxConcurrentJobs)
	}
	if cfg.Cache.Enabled {
		t.Fatal("cache override ignored")
	}
	if cfg.Providers.OpenAI.APIKey != "sk-test" {
		t.Fatalf("APIKey = %q, want trimmed value", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.IsFeatureEnabled("image.ocr") {
		t.Fatal("image.ocr override ignored")
	}
	// Unrelated defaults survive a partial file.
	if !cfg.IsFeatureEnabled("image.object-detection") {
		t.Fatal("untouched feature lost its default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			"zero concurrency",
			"[workflow]\nmax_concurrent_jobs = 0\n",
			"max_concurrent_jobs",
		},
		{
			"cache enabled without ttl",
			"[cache]\nenabled = true\nttl_seconds = 0\n",
			"ttl_seconds",
		},
		{
			"memory pct out of range",
			"[resources]\nmemory_high_water_pct = 250\n",
			"memory_high_water_pct",
		},
		{
			"unknown log format",
			"[logging]\nformat = \"xml\"\n",
			"logging.format",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error = %v, want mention of %s", err, tc.wantMsg)
			}
		})
	}
}

func TestFeatureToggles(t *testing.T) {
	cfg := config.Default()
	cfg.Features.Audio.Sentiment = false

	toggles := cfg.FeatureToggles("audio")
	if len(toggles) != 4 {
		t.Fatalf("toggles = %v, want 4 audio entries", toggles)
	}
	if toggles["sentiment"] {
		t.Fatal("sentiment toggle should be off")
	}
	if !toggles["transcription"] {
		t.Fatal("transcription toggle should be on")
	}
	if _, ok := toggles["ocr"]; ok {
		t.Fatal("image toggle leaked into audio map")
	}
}

func TestIsFeatureEnabledUnknownPath(t *testing.T) {
	cfg := config.Default()
	if cfg.IsFeatureEnabled("image.telepathy") {
		t.Fatal("unknown feature path reported enabled")
	}
	if !cfg.IsFeatureEnabled(" Image.OCR ") {
		t.Fatal("feature lookup should be case and space insensitive")
	}
}

func TestNormalizeExtensions(t *testing.T) {
	path := writeConfig(t, `
[detection]
image_extensions = ["JPG", ".png", " .png ", "", "gif"]
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{".jpg", ".png", ".gif"}
	got := cfg.Detection.ImageExtensions
	if len(got) != len(want) {
		t.Fatalf("ImageExtensions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ImageExtensions = %v, want %v", got, want)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config load = %v, exists = %v", err, exists)
	}
}
