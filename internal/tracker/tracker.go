package tracker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"iris/internal/logging"
	"iris/internal/mediatype"
)

// Tracker is the bookkeeping service for processing jobs. It knows nothing
// about how work is performed; it records transitions and dispatches
// lifecycle events.
type Tracker struct {
	logger *slog.Logger

	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers []Subscriber
}

// New constructs a tracker. A nil logger falls back to a no-op logger.
func New(logger *slog.Logger) *Tracker {
	return &Tracker{
		logger: logging.NewComponentLogger(logger, "tracker"),
		jobs:   make(map[string]*Job),
	}
}

// Subscribe registers a lifecycle event observer.
func (t *Tracker) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	t.mu.Lock()
	t.subscribers = append(t.subscribers, sub)
	t.mu.Unlock()
}

// CreateJob seeds a job with the fixed stage list for its medium and emits
// the created event.
func (t *Tracker) CreateJob(id string, mediaType mediatype.Type, stageNames []string, meta Metadata) (Snapshot, error) {
	if id == "" {
		return Snapshot{}, fmt.Errorf("job id is required")
	}
	if len(stageNames) == 0 {
		return Snapshot{}, fmt.Errorf("job %s: stage list must not be empty", id)
	}

	stages := make([]*Stage, len(stageNames))
	for i, name := range stageNames {
		stages[i] = &Stage{Name: name, Label: StageLabel(name), Status: StagePending}
	}
	job := &Job{
		ID:        id,
		MediaType: mediaType,
		Status:    JobProcessing,
		Stages:    stages,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	if _, exists := t.jobs[id]; exists {
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("job %s already tracked", id)
	}
	t.jobs[id] = job
	snap := job.snapshot()
	t.mu.Unlock()

	t.emit(Event{
		Kind:      EventJobCreated,
		JobID:     id,
		MediaType: mediaType,
		Timestamp: job.CreatedAt,
	})
	return snap, nil
}

// StartStage transitions a pending stage to running.
func (t *Tracker) StartStage(id, name, detail string) error {
	evt, err := t.transition(id, name, func(job *Job, stage *Stage) (Event, error) {
		if stage.Status != StagePending {
			return Event{}, fmt.Errorf("job %s: stage %s cannot start from %s", id, name, stage.Status)
		}
		stage.Status = StageRunning
		stage.Detail = detail
		stage.StartedAt = time.Now().UTC()
		return Event{Kind: EventStageStarted, Stage: name, Detail: detail}, nil
	})
	if err != nil {
		return err
	}
	t.emit(evt)
	return nil
}

// UpdateStageProgress records stage progress, clamped to [0,100], and
// recomputes overall job progress.
func (t *Tracker) UpdateStageProgress(id, name string, percent float64, detail string) error {
	evt, err := t.transition(id, name, func(job *Job, stage *Stage) (Event, error) {
		if stage.Status != StageRunning {
			return Event{}, fmt.Errorf("job %s: stage %s is not running", id, name)
		}
		clamped := clampPercent(percent)
		if clamped > stage.Percent {
			stage.Percent = clamped
		}
		if detail != "" {
			stage.Detail = detail
		}
		return Event{Kind: EventStageProgress, Stage: name, StagePercent: stage.Percent, Detail: stage.Detail}, nil
	})
	if err != nil {
		return err
	}
	t.emit(evt)
	return nil
}

// CompleteStage marks a running stage completed.
func (t *Tracker) CompleteStage(id, name, detail string) error {
	return t.finishStage(id, name, StageCompleted, detail, EventStageCompleted)
}

// FailStage marks a stage failed with the supplied reason.
func (t *Tracker) FailStage(id, name, reason string) error {
	return t.finishStage(id, name, StageFailed, reason, EventStageFailed)
}

// SkipStage marks a stage skipped with the supplied reason. Pending stages
// may be skipped without ever starting.
func (t *Tracker) SkipStage(id, name, reason string) error {
	return t.finishStage(id, name, StageSkipped, reason, EventStageSkipped)
}

func (t *Tracker) finishStage(id, name string, status StageStatus, detail string, kind EventKind) error {
	evt, err := t.transition(id, name, func(job *Job, stage *Stage) (Event, error) {
		if stage.Status.IsTerminal() {
			return Event{}, fmt.Errorf("job %s: stage %s already terminal (%s)", id, name, stage.Status)
		}
		now := time.Now().UTC()
		if stage.StartedAt.IsZero() {
			stage.StartedAt = now
		}
		stage.Status = status
		stage.FinishedAt = now
		if status == StageCompleted {
			stage.Percent = 100
		}
		if detail != "" {
			stage.Detail = detail
		}
		return Event{
			Kind:     kind,
			Stage:    name,
			Reason:   detail,
			Duration: stage.Duration(),
		}, nil
	})
	if err != nil {
		return err
	}
	t.emit(evt)
	t.maybeFinalize(id)
	return nil
}

// AddWarning appends a non-fatal warning to the job.
func (t *Tracker) AddWarning(id, warning string) {
	if warning == "" {
		return
	}
	t.mu.Lock()
	if job, ok := t.jobs[id]; ok && !job.Status.IsTerminal() {
		job.Warnings = append(job.Warnings, warning)
	}
	t.mu.Unlock()
}

// FailJob forces a job to the failed terminal state regardless of stage
// bookkeeping. Used for system errors outside the stage loop and for the
// stuck-job sweep. Failing an already terminal job is a no-op.
func (t *Tracker) FailJob(id, reason string) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok || job.Status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	for _, stage := range job.Stages {
		if !stage.Status.IsTerminal() {
			if stage.StartedAt.IsZero() {
				stage.StartedAt = now
			}
			stage.Status = StageFailed
			stage.FinishedAt = now
		}
	}
	job.Status = JobFailed
	job.ErrorMessage = reason
	job.FinishedAt = now
	job.Progress = job.overallProgress()
	evt := Event{
		Kind:      EventJobFailed,
		JobID:     job.ID,
		MediaType: job.MediaType,
		Reason:    reason,
		Overall:   job.Progress,
		Duration:  job.FinishedAt.Sub(job.CreatedAt),
		Timestamp: now,
	}
	t.mu.Unlock()

	t.emit(evt)
}

// Snapshot returns a copy of the job state, or false when unknown.
func (t *Tracker) Snapshot(id string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	return job.snapshot(), true
}

// Active returns snapshots of all non-terminal jobs.
func (t *Tracker) Active() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Snapshot, 0, len(t.jobs))
	for _, job := range t.jobs {
		if !job.Status.IsTerminal() {
			out = append(out, job.snapshot())
		}
	}
	return out
}

// ActiveCount returns the number of non-terminal jobs.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for _, job := range t.jobs {
		if !job.Status.IsTerminal() {
			count++
		}
	}
	return count
}

// Remove drops a job from the table. Terminal results live on in the
// caller's cache or archive.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	delete(t.jobs, id)
	t.mu.Unlock()
}

// StaleJobs returns ids of jobs that have been processing longer than
// maxAge. Used by the stuck-job sweep.
func (t *Tracker) StaleJobs(maxAge time.Duration) []string {
	cutoff := time.Now().UTC().Add(-maxAge)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var stale []string
	for id, job := range t.jobs {
		if !job.Status.IsTerminal() && job.CreatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}

// transition applies fn to the named stage under the lock, updates overall
// progress, and returns the enriched event for emission.
func (t *Tracker) transition(id, name string, fn func(*Job, *Stage) (Event, error)) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return Event{}, fmt.Errorf("job %s not tracked", id)
	}
	if job.Status.IsTerminal() {
		return Event{}, fmt.Errorf("job %s already terminal (%s)", id, job.Status)
	}
	stage := job.stage(name)
	if stage == nil {
		return Event{}, fmt.Errorf("job %s: unknown stage %s", id, name)
	}

	evt, err := fn(job, stage)
	if err != nil {
		return Event{}, err
	}

	// Overall progress never regresses.
	if overall := job.overallProgress(); overall > job.Progress {
		job.Progress = overall
	}

	evt.JobID = job.ID
	evt.MediaType = job.MediaType
	evt.Overall = job.Progress
	evt.Timestamp = time.Now().UTC()
	return evt, nil
}

// maybeFinalize terminates the job once its last stage is terminal.
func (t *Tracker) maybeFinalize(id string) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok || job.Status.IsTerminal() || !job.allStagesTerminal() {
		t.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = now
	if job.anyStageFailed() {
		job.Status = JobFailed
		if job.ErrorMessage == "" {
			job.ErrorMessage = "one or more required stages failed"
		}
	} else {
		job.Status = JobCompleted
		job.Progress = 100
	}
	kind := EventJobCompleted
	if job.Status == JobFailed {
		kind = EventJobFailed
	}
	evt := Event{
		Kind:      kind,
		JobID:     job.ID,
		MediaType: job.MediaType,
		Reason:    job.ErrorMessage,
		Overall:   job.Progress,
		Duration:  now.Sub(job.CreatedAt),
		Timestamp: now,
	}
	t.mu.Unlock()

	t.emit(evt)
}

func (t *Tracker) emit(evt Event) {
	t.mu.RLock()
	subs := make([]Subscriber, len(t.subscribers))
	copy(subs, t.subscribers)
	t.mu.RUnlock()

	for _, sub := range subs {
		sub.OnEvent(evt)
	}
	t.logger.Debug("lifecycle event",
		logging.String(logging.FieldEventType, string(evt.Kind)),
		logging.String(logging.FieldJobID, evt.JobID),
		logging.String(logging.FieldStage, evt.Stage),
		logging.Float64("overall", evt.Overall),
	)
}
