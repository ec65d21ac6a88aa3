package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"iris/internal/registry"
	"iris/internal/services"
)

const defaultDescriptionPrompt = "Describe this image in two or three sentences. " +
	"Mention the main subject, the setting, and anything notable."

// VisionPlugin produces natural-language image descriptions through the
// chat completions API with inline image content.
type VisionPlugin struct {
	base
}

// NewVisionPlugin constructs the vision-backed description plugin.
func NewVisionPlugin(cfg Config) *VisionPlugin {
	return &VisionPlugin{base: newBase(cfg)}
}

func (p *VisionPlugin) Name() string                { return "openai-vision" }
func (p *VisionPlugin) Category() registry.Category { return registry.CategoryImageDescription }
func (p *VisionPlugin) Priority() int               { return 10 }

func (p *VisionPlugin) Probe(ctx context.Context) error {
	return p.probeModel(ctx, p.cfg.VisionModel)
}

func (p *VisionPlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	if len(input.Payload) == 0 {
		return registry.Result{}, services.Wrap(services.ErrInput, p.Name(), "execute", "empty payload", nil)
	}
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		prompt = defaultDescriptionPrompt
	}
	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(input.Payload))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.VisionModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "describe", "", err)
	}
	if len(resp.Choices) == 0 {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "describe", "empty choices", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "describe", "empty content", nil)
	}
	return registry.Result{Text: content}, nil
}
