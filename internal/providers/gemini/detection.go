package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"iris/internal/registry"
	"iris/internal/services"
)

const detectionPrompt = "List the distinct objects visible in this image. " +
	"Respond with a JSON array of the form [{\"label\": \"...\", \"confidence\": 0.0}] " +
	"where confidence is between 0 and 1. Respond with JSON only, no prose."

// DetectionPlugin finds objects in images via the vision model with a
// structured JSON prompt.
type DetectionPlugin struct {
	base
}

// NewDetectionPlugin constructs the Gemini object detection plugin.
func NewDetectionPlugin(cfg Config) *DetectionPlugin {
	return &DetectionPlugin{base: newBase(cfg)}
}

func (p *DetectionPlugin) Name() string                { return "gemini-detection" }
func (p *DetectionPlugin) Category() registry.Category { return registry.CategoryObjectDetection }
func (p *DetectionPlugin) Priority() int               { return 10 }

func (p *DetectionPlugin) Probe(ctx context.Context) error {
	return p.probe(ctx)
}

func (p *DetectionPlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	if len(input.Payload) == 0 {
		return registry.Result{}, services.Wrap(services.ErrInput, p.Name(), "execute", "empty payload", nil)
	}
	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	text, err := p.generate(ctx, "detect", detectionPrompt, mimeType, input.Payload)
	if err != nil {
		return registry.Result{}, err
	}
	objects, err := parseObjects(text)
	if err != nil {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "detect", "unparseable response", err)
	}
	return registry.Result{Objects: objects}, nil
}

func parseObjects(content string) ([]registry.DetectedObject, error) {
	var raw []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return nil, err
	}
	objects := make([]registry.DetectedObject, 0, len(raw))
	for _, obj := range raw {
		label := strings.TrimSpace(obj.Label)
		if label == "" {
			continue
		}
		confidence := obj.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		objects = append(objects, registry.DetectedObject{Label: label, Confidence: confidence})
	}
	return objects, nil
}
