// Package orchestrator coordinates media processing end to end: media
// type detection, feature resolution, resource-governed dispatch to the
// type-specific processors, result formatting, caching, metrics, and
// periodic cleanup.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"iris/internal/api"
	"iris/internal/config"
	"iris/internal/logging"
	"iris/internal/mediatype"
	"iris/internal/processor"
	"iris/internal/processor/audio"
	"iris/internal/processor/image"
	"iris/internal/processor/video"
	"iris/internal/registry"
	"iris/internal/resource"
	"iris/internal/resultcache"
	"iris/internal/services"
	"iris/internal/tracker"
)

// Orchestrator is an explicitly constructed service instance. Callers own
// its lifecycle; there is no process-wide singleton.
type Orchestrator struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	tracker  *tracker.Tracker

	detector   *mediatype.Detector
	governor   *resource.Governor
	cache      *resultcache.Cache
	processors map[mediatype.Type]processor.Processor
	metrics    *metrics

	initOnce    sync.Once
	initialized bool
}

// cachedJob is the cache payload kept after a job completes.
type cachedJob struct {
	response api.ProcessResponse
	snapshot tracker.Snapshot
	cachedAt time.Time
}

// New wires the orchestrator from its injected collaborators. The registry
// arrives populated but unprobed; Initialize runs the probe pass.
func New(cfg *config.Config, logger *slog.Logger, reg *registry.Registry, trk *tracker.Tracker) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		registry: reg,
		tracker:  trk,
		detector: mediatype.NewDetector(
			cfg.Detection.VideoExtensions,
			cfg.Detection.AudioExtensions,
			cfg.Detection.ImageExtensions,
		),
		governor: resource.New(logger, resource.Config{
			MaxConcurrent:      cfg.Workflow.MaxConcurrentJobs,
			MemoryHighWaterPct: cfg.Resources.MemoryHighWaterPct,
			RetryInterval:      time.Duration(cfg.Resources.AdmissionRetrySecs) * time.Second,
			MaxWait:            time.Duration(cfg.Resources.AdmissionMaxWaitSecs) * time.Second,
		}),
		cache:   resultcache.New(time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxEntries),
		metrics: &metrics{},
	}
	o.processors = map[mediatype.Type]processor.Processor{
		mediatype.TypeImage: image.New(reg, trk, logger),
		mediatype.TypeAudio: audio.New(reg, trk, logger),
		mediatype.TypeVideo: video.New(reg, trk, logger),
	}
	return o
}

// Initialize probes the plugin catalogue and arms the memory-pressure
// cleanup hook. It is idempotent and safe to rely on implicitly: the
// processing entry points call it on first use.
func (o *Orchestrator) Initialize(ctx context.Context) {
	o.initOnce.Do(func() {
		o.registry.InitializeAndProbe(ctx)
		o.governor.RegisterCleanup(func() {
			o.cache.Clear()
		})
		o.initialized = true
		o.logger.Info("orchestrator initialized",
			logging.Int("plugins", len(o.registry.Report())),
		)
	})
}

// StageLists returns the declared stage list per media type. The daemon
// exposes it for introspection.
func (o *Orchestrator) StageLists() map[string][]string {
	out := make(map[string][]string, len(o.processors))
	for mediaType, proc := range o.processors {
		out[string(mediaType)] = proc.Stages()
	}
	return out
}

// ProcessContent runs one payload through the full pipeline and returns
// the formatted response. Errors carry the job id and elapsed time; the
// job is never left untracked in a non-terminal state.
func (o *Orchestrator) ProcessContent(ctx context.Context, payload []byte, meta map[string]string) (*api.ProcessResponse, error) {
	o.Initialize(ctx)

	jobID := uuid.NewString()
	started := time.Now()
	ctx = services.WithJobID(ctx, jobID)
	logger := o.logger.With(logging.String(logging.FieldJobID, jobID))

	fail := func(err error) (*api.ProcessResponse, error) {
		o.metrics.record(false, time.Since(started))
		return nil, fmt.Errorf("job %s failed after %s: %w", jobID, time.Since(started).Round(time.Millisecond), err)
	}

	mediaType, err := o.detector.Detect(payload, mediatype.Hints{
		TypeHint: meta["type"],
		Filename: meta["filename"],
		MIMEType: meta["mimeType"],
	})
	if err != nil {
		return fail(err)
	}
	proc, ok := o.processors[mediaType]
	if !ok {
		return fail(services.Wrap(services.ErrInput, "dispatch", "select processor", "no processor for media type "+string(mediaType), nil))
	}

	if _, err := o.tracker.CreateJob(jobID, mediaType, proc.Stages(), tracker.Metadata(meta)); err != nil {
		return fail(err)
	}

	features := o.resolveFeatures(mediaType, logger)
	opts := processor.Options{
		Features:       features,
		ThumbnailCount: o.cfg.Thumbnails.Count,
		ThumbnailWidth: o.cfg.Thumbnails.Width,
		StageTimeout:   time.Duration(o.cfg.Workflow.StageTimeoutSecs) * time.Second,
	}

	release, err := o.governor.Acquire(ctx)
	if err != nil {
		o.tracker.FailJob(jobID, "admission aborted: "+err.Error())
		o.tracker.Remove(jobID)
		return fail(err)
	}
	defer release()

	logger.Info("processing started",
		logging.String(logging.FieldMediaType, string(mediaType)),
		logging.Int("payload_bytes", len(payload)),
	)

	raw, err := proc.Process(ctx, processor.Request{
		JobID:    jobID,
		Payload:  payload,
		Filename: meta["filename"],
		MIMEType: meta["mimeType"],
		Metadata: meta,
	}, opts)
	if err != nil {
		o.tracker.FailJob(jobID, err.Error())
		o.tracker.Remove(jobID)
		return fail(err)
	}

	snap, ok := o.tracker.Snapshot(jobID)
	if !ok {
		return fail(fmt.Errorf("job %s vanished from tracker", jobID))
	}
	if snap.Status == tracker.JobFailed {
		o.tracker.Remove(jobID)
		return fail(fmt.Errorf("%s", snap.ErrorMessage))
	}

	response := api.ProcessResponse{
		JobID:            jobID,
		MediaType:        string(mediaType),
		ProcessingTimeMS: time.Since(started).Milliseconds(),
		Results:          formatResult(raw),
		Warnings:         snap.Warnings,
	}

	o.metrics.record(true, time.Since(started))
	if o.cfg.Cache.Enabled {
		o.cache.Put(jobID, &cachedJob{response: response, snapshot: snap, cachedAt: time.Now()})
	}
	o.tracker.Remove(jobID)

	logger.Info("processing completed",
		logging.String(logging.FieldMediaType, string(mediaType)),
		logging.Duration("elapsed", time.Since(started)),
		logging.Int("warnings", len(response.Warnings)),
	)
	return &response, nil
}

// resolveFeatures intersects configuration toggles with registry
// availability. A feature toggled on without a working provider is
// silently disabled with a log line.
func (o *Orchestrator) resolveFeatures(mediaType mediatype.Type, logger *slog.Logger) map[string]bool {
	toggles := o.cfg.FeatureToggles(string(mediaType))
	resolved := make(map[string]bool, len(toggles))
	for stage, enabled := range toggles {
		if !enabled {
			resolved[stage] = false
			continue
		}
		category, backed := stageCategory(mediaType, stage)
		if backed && !o.registry.IsFeatureAvailable(category) {
			logger.Info("feature disabled, no available provider",
				logging.String(logging.FieldMediaType, string(mediaType)),
				logging.String(logging.FieldStage, stage),
				logging.String(logging.FieldCategory, string(category)),
			)
			resolved[stage] = false
			continue
		}
		resolved[stage] = true
	}
	return resolved
}

// stageCategory maps a provider-backed stage to its capability category.
// Local stages report false.
func stageCategory(mediaType mediatype.Type, stage string) (registry.Category, bool) {
	switch mediaType {
	case mediatype.TypeImage:
		switch stage {
		case "object-detection":
			return registry.CategoryObjectDetection, true
		case "ocr":
			return registry.CategoryOCR, true
		case "description":
			return registry.CategoryImageDescription, true
		}
	case mediatype.TypeAudio:
		switch stage {
		case "transcription":
			return registry.CategoryTranscription, true
		case "sentiment":
			return registry.CategorySentiment, true
		}
	case mediatype.TypeVideo:
		switch stage {
		case "transcription":
			return registry.CategoryTranscription, true
		case "scene-analysis", "description":
			return registry.CategoryImageDescription, true
		}
	}
	return "", false
}

// Close releases plugin resources.
func (o *Orchestrator) Close() {
	o.registry.Close()
}
