// Package gemini implements the Gemini-backed capability plugins: object
// detection, OCR, and a fallback image description path.
package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"iris/internal/services"
)

const providerName = "gemini"

// Config captures the runtime settings shared by the Gemini plugins.
type Config struct {
	APIKey      string
	VisionModel string
}

// base carries the shared client lifecycle for every Gemini plugin.
type base struct {
	cfg    Config
	client *genai.Client
}

func newBase(cfg Config) base {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return base{cfg: cfg}
}

func (b *base) Provider() string { return providerName }

func (b *base) MissingDependencies() []string {
	if b.cfg.APIKey == "" {
		return []string{"providers.gemini.api_key"}
	}
	return nil
}

func (b *base) Initialize(ctx context.Context) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, providerName, "initialize", "", err)
	}
	b.client = client
	return nil
}

// probe issues a minimal text-only generation against the configured model.
func (b *base) probe(ctx context.Context) error {
	if b.client == nil {
		return services.Wrap(services.ErrConfiguration, providerName, "probe", "client not initialized", nil)
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: "ping"}},
	}}
	if _, err := b.client.Models.GenerateContent(ctx, b.cfg.VisionModel, contents, nil); err != nil {
		return services.Wrap(services.ErrProvider, providerName, "probe model "+b.cfg.VisionModel, "", err)
	}
	return nil
}

// generate sends the prompt plus inline media to the vision model and
// returns the concatenated text parts of the first candidate.
func (b *base) generate(ctx context.Context, operation, prompt, mimeType string, payload []byte) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if len(payload) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     payload,
		}})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0))}

	resp, err := b.client.Models.GenerateContent(ctx, b.cfg.VisionModel, contents, cfg)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, providerName, operation, "", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", services.Wrap(services.ErrProvider, providerName, operation, "empty candidates", nil)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", services.Wrap(services.ErrProvider, providerName, operation, "empty content", nil)
	}
	return text, nil
}

func (b *base) Cleanup() error { return nil }

// stripFences removes a markdown code fence wrapper if the model added one.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
