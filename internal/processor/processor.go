package processor

import (
	"context"
	"time"

	"iris/internal/mediatype"
)

// Request carries one media payload through a processor run.
type Request struct {
	JobID    string
	Payload  []byte
	Filename string
	MIMEType string
	// Metadata holds arbitrary caller-supplied fields.
	Metadata map[string]string
}

// Options is the resolved per-run configuration a processor receives. The
// orchestrator builds it by intersecting configuration toggles with
// registry availability, so processors never consult either directly.
type Options struct {
	// Features maps stage names to their resolved enabled state. Stages
	// absent from the map always run.
	Features map[string]bool

	ThumbnailCount int
	ThumbnailWidth int

	// StageTimeout bounds each provider-backed stage. Zero disables the
	// bound.
	StageTimeout time.Duration
}

// StageEnabled reports the resolved toggle for a stage. Stages without a
// toggle always run.
func (o Options) StageEnabled(name string) bool {
	enabled, ok := o.Features[name]
	return !ok || enabled
}

// Reporter is the stage bookkeeping surface processors drive. The job
// tracker satisfies it.
type Reporter interface {
	StartStage(id, name, detail string) error
	UpdateStageProgress(id, name string, percent float64, detail string) error
	CompleteStage(id, name, detail string) error
	FailStage(id, name, reason string) error
	SkipStage(id, name, reason string) error
	AddWarning(id, warning string)
}

// Processor is the uniform pipeline contract for one media type.
type Processor interface {
	MediaType() mediatype.Type
	// Stages declares the fixed ordered stage list the tracker seeds jobs
	// with.
	Stages() []string
	Process(ctx context.Context, req Request, opts Options) (*Result, error)
}
