package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
	APIBind string `toml:"api_bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Workflow contains job scheduling and sweep tunables.
type Workflow struct {
	MaxConcurrentJobs  int `toml:"max_concurrent_jobs"`
	JobMaxAgeSeconds   int `toml:"job_max_age_seconds"`
	SweepIntervalSecs  int `toml:"sweep_interval_seconds"`
	StageTimeoutSecs   int `toml:"stage_timeout_seconds"`
	ProviderMaxRetries int `toml:"provider_max_retries"`
}

// Cache contains result cache tunables.
type Cache struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
	MaxEntries int  `toml:"max_entries"`
}

// Resources contains memory-pressure and admission tunables.
type Resources struct {
	MemoryHighWaterPct   int `toml:"memory_high_water_pct"`
	AdmissionRetrySecs   int `toml:"admission_retry_seconds"`
	AdmissionMaxWaitSecs int `toml:"admission_max_wait_seconds"`
}

// OpenAI contains credentials and model selection for the OpenAI provider.
type OpenAI struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	TranscriptionModel string `toml:"transcription_model"`
	VisionModel        string `toml:"vision_model"`
	SentimentModel     string `toml:"sentiment_model"`
}

// Gemini contains credentials and model selection for the Gemini provider.
type Gemini struct {
	APIKey      string `toml:"api_key"`
	VisionModel string `toml:"vision_model"`
}

// Providers groups external AI provider settings.
type Providers struct {
	OpenAI OpenAI `toml:"openai"`
	Gemini Gemini `toml:"gemini"`
}

// VideoFeatures toggles the optional video pipeline stages.
type VideoFeatures struct {
	Transcription bool `toml:"transcription"`
	SceneAnalysis bool `toml:"scene_analysis"`
	Description   bool `toml:"description"`
	Thumbnails    bool `toml:"thumbnails"`
	Tags          bool `toml:"tags"`
}

// AudioFeatures toggles the optional audio pipeline stages.
type AudioFeatures struct {
	Transcription bool `toml:"transcription"`
	Speakers      bool `toml:"speakers"`
	Sentiment     bool `toml:"sentiment"`
	Tags          bool `toml:"tags"`
}

// ImageFeatures toggles the optional image pipeline stages.
type ImageFeatures struct {
	ObjectDetection bool `toml:"object_detection"`
	OCR             bool `toml:"ocr"`
	Description     bool `toml:"description"`
	Thumbnails      bool `toml:"thumbnails"`
	Quality         bool `toml:"quality"`
	Tags            bool `toml:"tags"`
}

// Features groups per-media-type stage toggles.
type Features struct {
	Video VideoFeatures `toml:"video"`
	Audio AudioFeatures `toml:"audio"`
	Image ImageFeatures `toml:"image"`
}

// Detection configures filename-extension classification per medium.
type Detection struct {
	VideoExtensions []string `toml:"video_extensions"`
	AudioExtensions []string `toml:"audio_extensions"`
	ImageExtensions []string `toml:"image_extensions"`
}

// Thumbnails configures generated thumbnail dimensions.
type Thumbnails struct {
	Count int `toml:"count"`
	Width int `toml:"width"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for iris.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Logging: log format and level
//   - Workflow: concurrency ceiling, stuck-job ceiling, sweep cadence
//   - Cache: result cache TTL and capacity
//   - Resources: memory high-water mark and admission control
//   - Providers: OpenAI and Gemini credentials and models
//   - Features: per-media-type stage toggles
//   - Detection: extension lists for media type classification
//   - Thumbnails: generated thumbnail dimensions
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Workflow      Workflow      `toml:"workflow"`
	Cache         Cache         `toml:"cache"`
	Resources     Resources     `toml:"resources"`
	Providers     Providers     `toml:"providers"`
	Features      Features      `toml:"features"`
	Detection     Detection     `toml:"detection"`
	Thumbnails    Thumbnails    `toml:"thumbnails"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/iris/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("iris.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IsFeatureEnabled reports whether the feature at the dotted path
// ("<media type>.<feature>", e.g. "image.ocr") is toggled on. Unknown
// paths report false.
func (c *Config) IsFeatureEnabled(path string) bool {
	value, ok := c.featureToggles()[strings.ToLower(strings.TrimSpace(path))]
	return ok && value
}

// FeatureToggles returns the toggle map for one media type, keyed by
// feature name.
func (c *Config) FeatureToggles(mediaType string) map[string]bool {
	prefix := strings.ToLower(strings.TrimSpace(mediaType)) + "."
	out := make(map[string]bool)
	for path, value := range c.featureToggles() {
		if strings.HasPrefix(path, prefix) {
			out[strings.TrimPrefix(path, prefix)] = value
		}
	}
	return out
}

func (c *Config) featureToggles() map[string]bool {
	return map[string]bool{
		"video.transcription":    c.Features.Video.Transcription,
		"video.scene-analysis":   c.Features.Video.SceneAnalysis,
		"video.description":      c.Features.Video.Description,
		"video.thumbnails":       c.Features.Video.Thumbnails,
		"video.tags":             c.Features.Video.Tags,
		"audio.transcription":    c.Features.Audio.Transcription,
		"audio.speakers":         c.Features.Audio.Speakers,
		"audio.sentiment":        c.Features.Audio.Sentiment,
		"audio.tags":             c.Features.Audio.Tags,
		"image.object-detection": c.Features.Image.ObjectDetection,
		"image.ocr":              c.Features.Image.OCR,
		"image.description":      c.Features.Image.Description,
		"image.thumbnails":       c.Features.Image.Thumbnails,
		"image.quality":          c.Features.Image.Quality,
		"image.tags":             c.Features.Image.Tags,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
