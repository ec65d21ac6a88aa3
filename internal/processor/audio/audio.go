// Package audio implements the audio analysis pipeline: validation,
// metadata extraction, transcription, speaker identification, sentiment
// scoring, and tag generation.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"iris/internal/logging"
	"iris/internal/mediatype"
	"iris/internal/processor"
	"iris/internal/registry"
	"iris/internal/services"
)

const (
	stageValidation    = "validation"
	stageMetadata      = "metadata"
	stageTranscription = "transcription"
	stageSpeakers      = "speakers"
	stageSentiment     = "sentiment"
	stageTags          = "tags"
)

// Processor runs the audio pipeline.
type Processor struct {
	registry *registry.Registry
	reporter processor.Reporter
	logger   *slog.Logger
}

// New constructs the audio processor.
func New(reg *registry.Registry, reporter processor.Reporter, logger *slog.Logger) *Processor {
	return &Processor{
		registry: reg,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "processor.audio"),
	}
}

func (p *Processor) MediaType() mediatype.Type { return mediatype.TypeAudio }

// Stages declares the fixed ordered stage list for audio jobs.
func (p *Processor) Stages() []string {
	return []string{
		stageValidation, stageMetadata, stageTranscription,
		stageSpeakers, stageSentiment, stageTags,
	}
}

// Process drives the pipeline sequentially. Only validation is essential.
// Speaker identification and sentiment both feed off the transcript and
// skip when it is absent.
func (p *Processor) Process(ctx context.Context, req processor.Request, opts processor.Options) (*processor.Result, error) {
	result := processor.NewResult()
	runner := &processor.StageRunner{
		Reporter: p.reporter,
		Logger:   p.logger,
		JobID:    req.JobID,
		Timeout:  opts.StageTimeout,
	}

	format := ""
	err := runner.Run(ctx, stageValidation, true, func(ctx context.Context) (string, error) {
		if len(req.Payload) == 0 {
			return "", services.Wrap(services.ErrInput, stageValidation, "validate", "empty payload", nil)
		}
		format = sniffFormat(req.Payload)
		if format == "" && !strings.HasPrefix(strings.ToLower(req.MIMEType), "audio/") {
			return "", services.Wrap(services.ErrInput, stageValidation, "validate", "unrecognized audio container", nil)
		}
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(req.MIMEType), "audio/")
		}
		return format, nil
	})
	if err != nil {
		return nil, err
	}

	_ = runner.Run(ctx, stageMetadata, false, func(ctx context.Context) (string, error) {
		result.Metadata["size_bytes"] = strconv.Itoa(len(req.Payload))
		result.Metadata["format"] = format
		if req.Filename != "" {
			result.Metadata["filename"] = req.Filename
		}
		return fmt.Sprintf("%d fields", len(result.Metadata)), nil
	})

	if !opts.StageEnabled(stageTranscription) {
		runner.Skip(stageTranscription, "disabled by configuration or no available provider")
	} else {
		_ = runner.Run(ctx, stageTranscription, false, func(ctx context.Context) (string, error) {
			runner.Progress(stageTranscription, 10, "contacting provider")
			outcome, execErr := p.registry.ExecuteWithFallback(ctx, registry.CategoryTranscription, registry.Input{
				Payload:  req.Payload,
				Filename: req.Filename,
				MIMEType: req.MIMEType,
			})
			if execErr != nil {
				return "", execErr
			}
			result.Transcription = processor.StringPtr(outcome.Result.Text)
			result.Segments = outcome.Result.Segments
			result.RecordOutcome(stageTranscription, outcome)
			return fmt.Sprintf("%d characters", len(outcome.Result.Text)), nil
		})
	}

	if !opts.StageEnabled(stageSpeakers) {
		runner.Skip(stageSpeakers, "disabled by configuration")
	} else if len(result.Segments) == 0 {
		runner.Skip(stageSpeakers, "no speaker segments available")
	} else {
		_ = runner.Run(ctx, stageSpeakers, false, func(ctx context.Context) (string, error) {
			result.Speakers = distinctSpeakers(result.Segments)
			return fmt.Sprintf("%d speakers", len(result.Speakers)), nil
		})
	}

	if !opts.StageEnabled(stageSentiment) {
		runner.Skip(stageSentiment, "disabled by configuration or no available provider")
	} else if result.Transcription == nil || strings.TrimSpace(*result.Transcription) == "" {
		runner.Skip(stageSentiment, "no transcript to classify")
	} else {
		_ = runner.Run(ctx, stageSentiment, false, func(ctx context.Context) (string, error) {
			outcome, execErr := p.registry.ExecuteWithFallback(ctx, registry.CategorySentiment, registry.Input{
				Prompt: *result.Transcription,
			})
			if execErr != nil {
				return "", execErr
			}
			result.Sentiment = &processor.Sentiment{
				Label: outcome.Result.Label,
				Score: outcome.Result.Score,
			}
			result.RecordOutcome(stageSentiment, outcome)
			return outcome.Result.Label, nil
		})
	}

	if !opts.StageEnabled(stageTags) {
		runner.Skip(stageTags, "disabled by configuration")
	} else {
		_ = runner.Run(ctx, stageTags, false, func(ctx context.Context) (string, error) {
			candidates := []string{string(mediatype.TypeAudio), format}
			if result.Sentiment != nil {
				candidates = append(candidates, result.Sentiment.Label)
			}
			if result.Transcription != nil {
				candidates = append(candidates, "transcribed")
			}
			result.Tags = processor.NormalizeTags(candidates)
			return fmt.Sprintf("%d tags", len(result.Tags)), nil
		})
	}

	return result, ctx.Err()
}

func sniffFormat(payload []byte) string {
	switch {
	case len(payload) >= 4 && string(payload[:4]) == "fLaC":
		return "flac"
	case len(payload) >= 4 && string(payload[:4]) == "OggS":
		return "ogg"
	case len(payload) >= 3 && string(payload[:3]) == "ID3":
		return "mp3"
	case len(payload) >= 12 && string(payload[:4]) == "RIFF" && string(payload[8:12]) == "WAVE":
		return "wav"
	case len(payload) >= 2 && payload[0] == 0xFF && payload[1]&0xE0 == 0xE0:
		return "mp3"
	default:
		return ""
	}
}

func distinctSpeakers(segments []registry.TranscriptSegment) []string {
	seen := make(map[string]struct{}, len(segments))
	var out []string
	for _, segment := range segments {
		speaker := strings.TrimSpace(segment.Speaker)
		if speaker == "" {
			continue
		}
		if _, dup := seen[speaker]; dup {
			continue
		}
		seen[speaker] = struct{}{}
		out = append(out, speaker)
	}
	return out
}
