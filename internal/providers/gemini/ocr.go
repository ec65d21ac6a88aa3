package gemini

import (
	"context"
	"strings"

	"iris/internal/registry"
	"iris/internal/services"
)

const ocrPrompt = "Extract every piece of readable text from this image, " +
	"preserving line breaks. Respond with the extracted text only. " +
	"If the image contains no readable text respond with exactly NONE."

// OCRPlugin extracts readable text from images via the vision model.
type OCRPlugin struct {
	base
}

// NewOCRPlugin constructs the Gemini OCR plugin.
func NewOCRPlugin(cfg Config) *OCRPlugin {
	return &OCRPlugin{base: newBase(cfg)}
}

func (p *OCRPlugin) Name() string                { return "gemini-ocr" }
func (p *OCRPlugin) Category() registry.Category { return registry.CategoryOCR }
func (p *OCRPlugin) Priority() int               { return 10 }

func (p *OCRPlugin) Probe(ctx context.Context) error {
	return p.probe(ctx)
}

func (p *OCRPlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	if len(input.Payload) == 0 {
		return registry.Result{}, services.Wrap(services.ErrInput, p.Name(), "execute", "empty payload", nil)
	}
	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	text, err := p.generate(ctx, "ocr", ocrPrompt, mimeType, input.Payload)
	if err != nil {
		return registry.Result{}, err
	}
	if strings.EqualFold(strings.TrimSpace(text), "NONE") {
		return registry.Result{}, nil
	}
	return registry.Result{Text: text}, nil
}
