package tracker

import (
	"time"

	"iris/internal/mediatype"
)

// EventKind identifies one lifecycle event variant.
type EventKind string

const (
	EventJobCreated     EventKind = "job_created"
	EventStageStarted   EventKind = "stage_started"
	EventStageProgress  EventKind = "stage_progress"
	EventStageCompleted EventKind = "stage_completed"
	EventStageFailed    EventKind = "stage_failed"
	EventStageSkipped   EventKind = "stage_skipped"
	EventJobCompleted   EventKind = "job_completed"
	EventJobFailed      EventKind = "job_failed"
)

// Event is the payload delivered to subscribers for every job or stage
// transition.
type Event struct {
	Kind      EventKind
	JobID     string
	MediaType mediatype.Type
	Timestamp time.Time

	// Stage fields are populated for stage-scoped events.
	Stage        string
	StagePercent float64
	Detail       string

	// Overall is the recomputed job progress after the transition.
	Overall float64

	// Reason carries the failure or skip explanation.
	Reason string

	// Duration is the stage or job wall time for terminal events.
	Duration time.Duration
}

// Subscriber receives lifecycle events. Implementations must not block;
// delivery is synchronous on the transition path.
type Subscriber interface {
	OnEvent(Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

// OnEvent implements Subscriber.
func (f SubscriberFunc) OnEvent(evt Event) { f(evt) }
