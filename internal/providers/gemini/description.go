package gemini

import (
	"context"
	"strings"

	"iris/internal/registry"
	"iris/internal/services"
)

const descriptionPrompt = "Describe this image in two or three sentences. " +
	"Mention the main subject, the setting, and anything notable."

// DescriptionPlugin is the fallback image description path behind the
// OpenAI vision plugin.
type DescriptionPlugin struct {
	base
}

// NewDescriptionPlugin constructs the Gemini image description plugin.
func NewDescriptionPlugin(cfg Config) *DescriptionPlugin {
	return &DescriptionPlugin{base: newBase(cfg)}
}

func (p *DescriptionPlugin) Name() string                { return "gemini-description" }
func (p *DescriptionPlugin) Category() registry.Category { return registry.CategoryImageDescription }
func (p *DescriptionPlugin) Priority() int               { return 20 }

func (p *DescriptionPlugin) Probe(ctx context.Context) error {
	return p.probe(ctx)
}

func (p *DescriptionPlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	if len(input.Payload) == 0 {
		return registry.Result{}, services.Wrap(services.ErrInput, p.Name(), "execute", "empty payload", nil)
	}
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		prompt = descriptionPrompt
	}
	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	text, err := p.generate(ctx, "describe", prompt, mimeType, input.Payload)
	if err != nil {
		return registry.Result{}, err
	}
	return registry.Result{Text: text}, nil
}
