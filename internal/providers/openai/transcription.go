package openai

import (
	"bytes"
	"context"
	"strings"

	"github.com/openai/openai-go/v3"

	"iris/internal/registry"
	"iris/internal/services"
)

// TranscriptionPlugin transcribes audio payloads through the whisper API.
type TranscriptionPlugin struct {
	base
}

// NewTranscriptionPlugin constructs the whisper-backed transcription plugin.
func NewTranscriptionPlugin(cfg Config) *TranscriptionPlugin {
	return &TranscriptionPlugin{base: newBase(cfg)}
}

func (p *TranscriptionPlugin) Name() string                { return "openai-whisper" }
func (p *TranscriptionPlugin) Category() registry.Category { return registry.CategoryTranscription }
func (p *TranscriptionPlugin) Priority() int               { return 10 }

func (p *TranscriptionPlugin) Probe(ctx context.Context) error {
	return p.probeModel(ctx, p.cfg.TranscriptionModel)
}

func (p *TranscriptionPlugin) Execute(ctx context.Context, input registry.Input) (registry.Result, error) {
	if len(input.Payload) == 0 {
		return registry.Result{}, services.Wrap(services.ErrInput, p.Name(), "execute", "empty payload", nil)
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		filename = "audio.bin"
	}
	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(input.Payload), filename, mimeType),
		Model: openai.AudioModel(p.cfg.TranscriptionModel),
	})
	if err != nil {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "transcribe", "", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return registry.Result{}, services.Wrap(services.ErrProvider, p.Name(), "transcribe", "empty transcription", nil)
	}
	return registry.Result{Text: text}, nil
}
