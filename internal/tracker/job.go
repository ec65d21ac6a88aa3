package tracker

import (
	"strings"
	"time"
	"unicode"

	"iris/internal/mediatype"
)

// JobStatus represents the lifecycle of a processing job.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// StageStatus represents the lifecycle of a single pipeline stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// IsTerminal reports whether the stage status is final.
func (s StageStatus) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed || s == StageSkipped
}

// Metadata carries the caller-supplied job attributes. Keys beyond the
// well-known ones are preserved verbatim for the persistence collaborator.
type Metadata map[string]string

// Stage is one trackable step of a job's pipeline.
type Stage struct {
	Name       string
	Label      string
	Status     StageStatus
	Percent    float64
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the stage wall time, zero while not yet finished.
func (s *Stage) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Job is one end-to-end processing request tracked through its stage
// pipeline to a terminal state.
type Job struct {
	ID           string
	MediaType    mediatype.Type
	Status       JobStatus
	Stages       []*Stage
	Progress     float64
	Warnings     []string
	ErrorMessage string
	Metadata     Metadata
	CreatedAt    time.Time
	FinishedAt   time.Time
}

func (j *Job) stage(name string) *Stage {
	for _, stage := range j.Stages {
		if stage.Name == name {
			return stage
		}
	}
	return nil
}

// overallProgress recomputes job progress with equal weight per declared
// stage: terminal stages contribute their full share, the running stage
// contributes proportionally to its own percent.
func (j *Job) overallProgress() float64 {
	if len(j.Stages) == 0 {
		return 0
	}
	share := 100.0 / float64(len(j.Stages))
	total := 0.0
	for _, stage := range j.Stages {
		switch {
		case stage.Status.IsTerminal():
			total += share
		case stage.Status == StageRunning:
			total += share * clampPercent(stage.Percent) / 100
		}
	}
	if total > 100 {
		total = 100
	}
	return total
}

func (j *Job) allStagesTerminal() bool {
	for _, stage := range j.Stages {
		if !stage.Status.IsTerminal() {
			return false
		}
	}
	return true
}

func (j *Job) anyStageFailed() bool {
	for _, stage := range j.Stages {
		if stage.Status == StageFailed {
			return true
		}
	}
	return false
}

// StageSnapshot is an immutable copy of one stage for status queries.
type StageSnapshot struct {
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Status   StageStatus   `json:"status"`
	Percent  float64       `json:"percent"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Snapshot is an immutable copy of a job for status queries.
type Snapshot struct {
	ID           string          `json:"id"`
	MediaType    mediatype.Type  `json:"mediaType"`
	Status       JobStatus       `json:"status"`
	Progress     float64         `json:"progress"`
	Stages       []StageSnapshot `json:"stages"`
	Warnings     []string        `json:"warnings,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	Metadata     Metadata        `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	FinishedAt   time.Time       `json:"finishedAt,omitzero"`
}

// ProcessingTime returns elapsed wall time for the job: total duration for
// terminal jobs, time since creation otherwise.
func (s Snapshot) ProcessingTime() time.Duration {
	if !s.FinishedAt.IsZero() {
		return s.FinishedAt.Sub(s.CreatedAt)
	}
	return time.Since(s.CreatedAt)
}

func (j *Job) snapshot() Snapshot {
	stages := make([]StageSnapshot, len(j.Stages))
	for i, stage := range j.Stages {
		stages[i] = StageSnapshot{
			Name:     stage.Name,
			Label:    stage.Label,
			Status:   stage.Status,
			Percent:  stage.Percent,
			Detail:   stage.Detail,
			Duration: stage.Duration(),
		}
	}
	warnings := make([]string, len(j.Warnings))
	copy(warnings, j.Warnings)
	meta := make(Metadata, len(j.Metadata))
	for k, v := range j.Metadata {
		meta[k] = v
	}
	return Snapshot{
		ID:           j.ID,
		MediaType:    j.MediaType,
		Status:       j.Status,
		Progress:     j.Progress,
		Stages:       stages,
		Warnings:     warnings,
		ErrorMessage: j.ErrorMessage,
		Metadata:     meta,
		CreatedAt:    j.CreatedAt,
		FinishedAt:   j.FinishedAt,
	}
}

func clampPercent(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

// StageLabel derives a human label from a stage name ("object-detection"
// becomes "Object Detection").
func StageLabel(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
