// Package openai implements the OpenAI-backed capability plugins:
// whisper transcription, vision-based image description, and sentiment
// scoring over transcribed text.
package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"iris/internal/services"
)

const providerName = "openai"

// Config captures the runtime settings shared by the OpenAI plugins.
type Config struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	VisionModel        string
	SentimentModel     string
}

// base carries the shared client lifecycle for every OpenAI plugin.
type base struct {
	cfg    Config
	client *openai.Client
}

func newBase(cfg Config) base {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	return base{cfg: cfg}
}

func (b *base) Provider() string { return providerName }

func (b *base) MissingDependencies() []string {
	if b.cfg.APIKey == "" {
		return []string{"providers.openai.api_key"}
	}
	return nil
}

func (b *base) Initialize(ctx context.Context) error {
	opts := []option.RequestOption{option.WithAPIKey(b.cfg.APIKey)}
	if b.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(b.cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	b.client = &client
	return nil
}

// probeModel verifies the configured model is reachable with a cheap
// metadata read.
func (b *base) probeModel(ctx context.Context, model string) error {
	if b.client == nil {
		return services.Wrap(services.ErrConfiguration, providerName, "probe", "client not initialized", nil)
	}
	if _, err := b.client.Models.Get(ctx, model); err != nil {
		return services.Wrap(services.ErrProvider, providerName, "probe model "+model, "", err)
	}
	return nil
}

func (b *base) Cleanup() error { return nil }
