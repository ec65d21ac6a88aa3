package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	c.Detection.VideoExtensions = normalizeExtensions(c.Detection.VideoExtensions)
	c.Detection.AudioExtensions = normalizeExtensions(c.Detection.AudioExtensions)
	c.Detection.ImageExtensions = normalizeExtensions(c.Detection.ImageExtensions)

	c.Providers.OpenAI.APIKey = strings.TrimSpace(c.Providers.OpenAI.APIKey)
	c.Providers.OpenAI.BaseURL = strings.TrimSpace(c.Providers.OpenAI.BaseURL)
	c.Providers.Gemini.APIKey = strings.TrimSpace(c.Providers.Gemini.APIKey)
	return nil
}

// Validate checks tunables for values that would break the pipeline.
func (c *Config) Validate() error {
	if c.Workflow.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("workflow.max_concurrent_jobs must be positive, got %d", c.Workflow.MaxConcurrentJobs)
	}
	if c.Workflow.JobMaxAgeSeconds <= 0 {
		return fmt.Errorf("workflow.job_max_age_seconds must be positive, got %d", c.Workflow.JobMaxAgeSeconds)
	}
	if c.Workflow.SweepIntervalSecs <= 0 {
		return fmt.Errorf("workflow.sweep_interval_seconds must be positive, got %d", c.Workflow.SweepIntervalSecs)
	}
	if c.Cache.Enabled {
		if c.Cache.TTLSeconds <= 0 {
			return fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds)
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	if pct := c.Resources.MemoryHighWaterPct; pct < 1 || pct > 100 {
		return fmt.Errorf("resources.memory_high_water_pct must be in [1,100], got %d", pct)
	}
	if c.Thumbnails.Count <= 0 || c.Thumbnails.Width <= 0 {
		return fmt.Errorf("thumbnails.count and thumbnails.width must be positive")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
