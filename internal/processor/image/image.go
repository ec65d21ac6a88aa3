// Package image implements the image analysis pipeline: validation,
// metadata extraction, object detection, OCR, AI description, thumbnail
// generation, quality scoring, and tag generation.
package image

import (
	"bytes"
	"context"
	"fmt"
	goimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strconv"

	"github.com/disintegration/imaging"

	"iris/internal/logging"
	"iris/internal/mediatype"
	"iris/internal/processor"
	"iris/internal/registry"
	"iris/internal/services"
)

const (
	stageValidation  = "validation"
	stageMetadata    = "metadata"
	stageDetection   = "object-detection"
	stageOCR         = "ocr"
	stageDescription = "description"
	stageThumbnails  = "thumbnails"
	stageQuality     = "quality"
	stageTags        = "tags"
)

// Processor runs the image pipeline.
type Processor struct {
	registry *registry.Registry
	reporter processor.Reporter
	logger   *slog.Logger
}

// New constructs the image processor.
func New(reg *registry.Registry, reporter processor.Reporter, logger *slog.Logger) *Processor {
	return &Processor{
		registry: reg,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "processor.image"),
	}
}

func (p *Processor) MediaType() mediatype.Type { return mediatype.TypeImage }

// Stages declares the fixed ordered stage list for image jobs.
func (p *Processor) Stages() []string {
	return []string{
		stageValidation, stageMetadata, stageDetection, stageOCR,
		stageDescription, stageThumbnails, stageQuality, stageTags,
	}
}

// Process drives the pipeline sequentially. Only validation is essential;
// every other stage degrades to skipped on failure.
func (p *Processor) Process(ctx context.Context, req processor.Request, opts processor.Options) (*processor.Result, error) {
	result := processor.NewResult()
	runner := &processor.StageRunner{
		Reporter: p.reporter,
		Logger:   p.logger,
		JobID:    req.JobID,
		Timeout:  opts.StageTimeout,
	}

	var cfg goimage.Config
	var format string
	decodable := false

	err := runner.Run(ctx, stageValidation, true, func(ctx context.Context) (string, error) {
		if len(req.Payload) == 0 {
			return "", services.Wrap(services.ErrInput, stageValidation, "validate", "empty payload", nil)
		}
		decoded, decodedFormat, decodeErr := goimage.DecodeConfig(bytes.NewReader(req.Payload))
		if decodeErr == nil {
			cfg = decoded
			format = decodedFormat
			decodable = true
			return fmt.Sprintf("%s %dx%d", format, cfg.Width, cfg.Height), nil
		}
		// WebP and other sniffable formats pass validation without a
		// registered decoder; the local raster stages skip later.
		if sniffed, ok := mediatype.SniffSignature(req.Payload); ok && sniffed == mediatype.TypeImage {
			format = "webp"
			return "recognized signature, no local decoder", nil
		}
		return "", services.Wrap(services.ErrInput, stageValidation, "validate", "not a decodable image", decodeErr)
	})
	if err != nil {
		return nil, err
	}

	_ = runner.Run(ctx, stageMetadata, false, func(ctx context.Context) (string, error) {
		result.Metadata["size_bytes"] = strconv.Itoa(len(req.Payload))
		if format != "" {
			result.Metadata["format"] = format
		}
		if decodable {
			result.Metadata["width"] = strconv.Itoa(cfg.Width)
			result.Metadata["height"] = strconv.Itoa(cfg.Height)
		}
		if req.Filename != "" {
			result.Metadata["filename"] = req.Filename
		}
		return fmt.Sprintf("%d fields", len(result.Metadata)), nil
	})

	p.runCapabilityStage(ctx, runner, opts, stageDetection, registry.CategoryObjectDetection, func(outcome registry.Outcome) string {
		result.Objects = outcome.Result.Objects
		result.RecordOutcome(stageDetection, outcome)
		return fmt.Sprintf("%d objects", len(result.Objects))
	}, req)

	p.runCapabilityStage(ctx, runner, opts, stageOCR, registry.CategoryOCR, func(outcome registry.Outcome) string {
		result.OCRText = processor.StringPtr(outcome.Result.Text)
		result.RecordOutcome(stageOCR, outcome)
		return fmt.Sprintf("%d characters", len(outcome.Result.Text))
	}, req)

	p.runCapabilityStage(ctx, runner, opts, stageDescription, registry.CategoryImageDescription, func(outcome registry.Outcome) string {
		result.Description = processor.StringPtr(outcome.Result.Text)
		result.RecordOutcome(stageDescription, outcome)
		return "description generated"
	}, req)

	if !opts.StageEnabled(stageThumbnails) {
		runner.Skip(stageThumbnails, "disabled by configuration")
	} else if !decodable {
		runner.Skip(stageThumbnails, "no local decoder for "+format)
	} else {
		_ = runner.Run(ctx, stageThumbnails, false, func(ctx context.Context) (string, error) {
			thumb, thumbErr := renderThumbnail(req.Payload, opts.ThumbnailWidth)
			if thumbErr != nil {
				return "", thumbErr
			}
			result.Thumbnails = []processor.Thumbnail{thumb}
			return fmt.Sprintf("1 thumbnail %dx%d", thumb.Width, thumb.Height), nil
		})
	}

	if !opts.StageEnabled(stageQuality) {
		runner.Skip(stageQuality, "disabled by configuration")
	} else if !decodable {
		runner.Skip(stageQuality, "no local decoder for "+format)
	} else {
		_ = runner.Run(ctx, stageQuality, false, func(ctx context.Context) (string, error) {
			quality := scoreQuality(cfg.Width, cfg.Height)
			result.Quality = &quality
			return fmt.Sprintf("score %.2f", quality.Score), nil
		})
	}

	if !opts.StageEnabled(stageTags) {
		runner.Skip(stageTags, "disabled by configuration")
	} else {
		_ = runner.Run(ctx, stageTags, false, func(ctx context.Context) (string, error) {
			candidates := []string{string(mediatype.TypeImage)}
			if format != "" {
				candidates = append(candidates, format)
			}
			for _, obj := range result.Objects {
				candidates = append(candidates, obj.Label)
			}
			result.Tags = processor.NormalizeTags(candidates)
			return fmt.Sprintf("%d tags", len(result.Tags)), nil
		})
	}

	return result, ctx.Err()
}

// runCapabilityStage executes one provider-backed stage through the
// registry's fallback chain, honoring the resolved feature toggle.
func (p *Processor) runCapabilityStage(
	ctx context.Context,
	runner *processor.StageRunner,
	opts processor.Options,
	stage string,
	category registry.Category,
	record func(registry.Outcome) string,
	req processor.Request,
) {
	if !opts.StageEnabled(stage) {
		runner.Skip(stage, "disabled by configuration or no available provider")
		return
	}
	_ = runner.Run(ctx, stage, false, func(ctx context.Context) (string, error) {
		runner.Progress(stage, 10, "contacting provider")
		outcome, err := p.registry.ExecuteWithFallback(ctx, category, registry.Input{
			Payload:  req.Payload,
			Filename: req.Filename,
			MIMEType: req.MIMEType,
		})
		if err != nil {
			return "", err
		}
		return record(outcome), nil
	})
}

// renderThumbnail resizes the payload to the configured width, preserving
// aspect ratio, and encodes it as JPEG.
func renderThumbnail(payload []byte, width int) (processor.Thumbnail, error) {
	if width <= 0 {
		width = 320
	}
	src, err := imaging.Decode(bytes.NewReader(payload))
	if err != nil {
		return processor.Thumbnail{}, fmt.Errorf("decode image: %w", err)
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

// scoreQuality derives a resolution-based quality score in [0,1]. Four
// megapixels and up scores 1.0.
func scoreQuality(width, height int) processor.Quality {
	megapixels := float64(width) * float64(height) / 1e6
	score := megapixels / 4
	if score > 1 {
		score = 1
	}
	return processor.Quality{
		Width:      width,
		Height:     height,
		Megapixels: megapixels,
		Score:      score,
	}
}
