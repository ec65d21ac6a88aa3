// Package testsupport provides per-test configurations and synthetic
// media buffers for the processing pipeline tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"iris/internal/config"
)

// ConfigOption allows callers to customize the generated test
// configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.SweepIntervalSecs = 1
	cfg.Resources.AdmissionMaxWaitSecs = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCache tunes the result cache on the test config.
func WithCache(enabled bool, ttlSeconds, maxEntries int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.Enabled = enabled
		cfg.Cache.TTLSeconds = ttlSeconds
		cfg.Cache.MaxEntries = maxEntries
	}
}

// WithFeature flips one dotted-path feature toggle.
func WithFeature(path string, enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		switch path {
		case "image.object-detection":
			cfg.Features.Image.ObjectDetection = enabled
		case "image.ocr":
			cfg.Features.Image.OCR = enabled
		case "image.description":
			cfg.Features.Image.Description = enabled
		case "image.thumbnails":
			cfg.Features.Image.Thumbnails = enabled
		case "image.quality":
			cfg.Features.Image.Quality = enabled
		case "image.tags":
			cfg.Features.Image.Tags = enabled
		case "audio.transcription":
			cfg.Features.Audio.Transcription = enabled
		case "audio.speakers":
			cfg.Features.Audio.Speakers = enabled
		case "audio.sentiment":
			cfg.Features.Audio.Sentiment = enabled
		case "audio.tags":
			cfg.Features.Audio.Tags = enabled
		case "video.transcription":
			cfg.Features.Video.Transcription = enabled
		case "video.scene-analysis":
			cfg.Features.Video.SceneAnalysis = enabled
		case "video.description":
			cfg.Features.Video.Description = enabled
		case "video.thumbnails":
			cfg.Features.Video.Thumbnails = enabled
		case "video.tags":
			cfg.Features.Video.Tags = enabled
		}
	}
}
