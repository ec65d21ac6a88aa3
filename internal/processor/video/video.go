// Package video implements the video analysis pipeline: validation,
// metadata extraction, frame thumbnailing, transcription, scene analysis,
// AI description, and tag generation.
//
// Frame extraction has no external decoder dependency: it scans the
// container for embedded JPEG frames (MJPEG streams, cover art, preview
// stills). Containers without embedded JPEG data degrade the frame-based
// stages to skipped.
package video

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"iris/internal/logging"
	"iris/internal/mediatype"
	"iris/internal/processor"
	"iris/internal/registry"
	"iris/internal/services"
)

const (
	stageValidation    = "validation"
	stageMetadata      = "metadata"
	stageThumbnails    = "thumbnails"
	stageTranscription = "transcription"
	stageScene         = "scene-analysis"
	stageDescription   = "description"
	stageTags          = "tags"
)

const scenePrompt = "These are frames sampled from a video. Summarize what " +
	"is happening across them in two or three sentences."

// Processor runs the video pipeline.
type Processor struct {
	registry *registry.Registry
	reporter processor.Reporter
	logger   *slog.Logger
}

// New constructs the video processor.
func New(reg *registry.Registry, reporter processor.Reporter, logger *slog.Logger) *Processor {
	return &Processor{
		registry: reg,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "processor.video"),
	}
}

func (p *Processor) MediaType() mediatype.Type { return mediatype.TypeVideo }

// Stages declares the fixed ordered stage list for video jobs.
func (p *Processor) Stages() []string {
	return []string{
		stageValidation, stageMetadata, stageThumbnails,
		stageTranscription, stageScene, stageDescription, stageTags,
	}
}

// Process drives the pipeline sequentially. Only validation is essential.
// Scene analysis and description reuse the frames extracted by the
// thumbnail stage and skip when no frames were recoverable.
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
		format = sniffContainer(req.Payload)
		if format == "" && !strings.HasPrefix(strings.ToLower(req.MIMEType), "video/") {
			return "", services.Wrap(services.ErrInput, stageValidation, "validate", "unrecognized video container", nil)
		}
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(req.MIMEType), "video/")
		}
		return format, nil
	})
	if err != nil {
		return nil, err
	}

	_ = runner.Run(ctx, stageMetadata, false, func(ctx context.Context) (string, error) {
		result.Metadata["size_bytes"] = strconv.Itoa(len(req.Payload))
		result.Metadata["container"] = format
		if req.Filename != "" {
			result.Metadata["filename"] = req.Filename
		}
		return fmt.Sprintf("%d fields", len(result.Metadata)), nil
	})

	var frames [][]byte
	if !opts.StageEnabled(stageThumbnails) {
		runner.Skip(stageThumbnails, "disabled by configuration")
	} else {
		_ = runner.Run(ctx, stageThumbnails, false, func(ctx context.Context) (string, error) {
			count := opts.ThumbnailCount
			if count <= 0 {
				count = 3
			}
			frames = extractJPEGFrames(req.Payload, count)
			if len(frames) == 0 {
				return "", fmt.Errorf("no embedded frames in %s container", format)
			}
			thumbnails := make([]processor.Thumbnail, 0, len(frames))
			for i, frame := range frames {
				thumb, thumbErr := renderThumbnail(frame, opts.ThumbnailWidth)
				if thumbErr != nil {
					p.logger.Debug("frame discarded",
						logging.String(logging.FieldJobID, req.JobID),
						logging.Int("frame", i),
						logging.Error(thumbErr),
					)
					continue
				}
				thumbnails = append(thumbnails, thumb)
				runner.Progress(stageThumbnails, float64(i+1)/float64(len(frames))*100, "")
			}
			if len(thumbnails) == 0 {
				return "", fmt.Errorf("no decodable frames in %s container", format)
			}
			result.Thumbnails = thumbnails
			return fmt.Sprintf("%d thumbnails", len(thumbnails)), nil
		})
	}

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

	p.runFrameStage(ctx, runner, opts, stageScene, scenePrompt, frames, func(text string, outcome registry.Outcome) {
		result.SceneSummary = processor.StringPtr(text)
		result.RecordOutcome(stageScene, outcome)
	})

	p.runFrameStage(ctx, runner, opts, stageDescription, "", frames, func(text string, outcome registry.Outcome) {
		result.Description = processor.StringPtr(text)
		result.RecordOutcome(stageDescription, outcome)
	})

	if !opts.StageEnabled(stageTags) {
		runner.Skip(stageTags, "disabled by configuration")
	} else {
		_ = runner.Run(ctx, stageTags, false, func(ctx context.Context) (string, error) {
			candidates := []string{string(mediatype.TypeVideo), format}
			if result.Transcription != nil {
				candidates = append(candidates, "transcribed")
			}
			result.Tags = processor.NormalizeTags(candidates)
			return fmt.Sprintf("%d tags", len(result.Tags)), nil
		})
	}

	return result, ctx.Err()
}

// runFrameStage runs an image-description stage over the first extracted
// frame, skipping when frames are unavailable.
func (p *Processor) runFrameStage(
	ctx context.Context,
	runner *processor.StageRunner,
	opts processor.Options,
	stage, prompt string,
	frames [][]byte,
	record func(string, registry.Outcome),
) {
	if !opts.StageEnabled(stage) {
		runner.Skip(stage, "disabled by configuration or no available provider")
		return
	}
	if len(frames) == 0 {
		runner.Skip(stage, "no frames extracted")
		return
	}
	_ = runner.Run(ctx, stage, false, func(ctx context.Context) (string, error) {
		outcome, err := p.registry.ExecuteWithFallback(ctx, registry.CategoryImageDescription, registry.Input{
			Payload:  frames[0],
			MIMEType: "image/jpeg",
			Prompt:   prompt,
		})
		if err != nil {
			return "", err
		}
		record(outcome.Result.Text, outcome)
		return "generated", nil
	})
}

func sniffContainer(payload []byte) string {
	switch {
	case len(payload) >= 12 && string(payload[4:8]) == "ftyp":
		return "mp4"
	case bytes.HasPrefix(payload, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "webm"
	case len(payload) >= 12 && string(payload[:4]) == "RIFF" && string(payload[8:12]) == "AVI ":
		return "avi"
	default:
		return ""
	}
}

// extractJPEGFrames scans the container byte stream for complete JPEG
// entities (SOI through EOI) and returns up to limit of them, evenly spread
// across the hits.
func extractJPEGFrames(payload []byte, limit int) [][]byte {
	var hits [][]byte
	offset := 0
	for offset < len(payload) {
		start := bytes.Index(payload[offset:], []byte{0xFF, 0xD8, 0xFF})
		if start < 0 {
			break
		}
		start += offset
		end := bytes.Index(payload[start:], []byte{0xFF, 0xD9})
		if end < 0 {
			break
		}
		end += start + 2
		hits = append(hits, payload[start:end])
		offset = end
	}
	if len(hits) <= limit {
		return hits
	}
	out := make([][]byte, 0, limit)
	step := len(hits) / limit
	for i := 0; i < limit; i++ {
		out = append(out, hits[i*step])
	}
	return out
}

func renderThumbnail(frame []byte, width int) (processor.Thumbnail, error) {
	if width <= 0 {
		width = 320
	}
	src, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return processor.Thumbnail{}, fmt.Errorf("decode frame: %w", err)
	}
	resized := imaging.Resize(src, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return processor.Thumbnail{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	bounds := resized.Bounds()
	return processor.Thumbnail{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: "jpeg",
		Data:   buf.Bytes(),
	}, nil
}
