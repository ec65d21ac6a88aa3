package notifications

import (
	"context"
	"log/slog"
	"time"

	"iris/internal/logging"
	"iris/internal/tracker"
)

const notifyTimeout = 10 * time.Second

// Subscriber forwards terminal job events to the notification service.
// Delivery failures are logged, never propagated.
type Subscriber struct {
	service Service
	logger  *slog.Logger
}

// NewSubscriber constructs the tracker event subscriber.
func NewSubscriber(service Service, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		service: service,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

// OnEvent pushes a notification for job-completed and job-failed events.
func (s *Subscriber) OnEvent(evt tracker.Event) {
	var err error
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	switch evt.Kind {
	case tracker.EventJobCompleted:
		err = s.service.NotifyJobCompleted(ctx, evt.JobID, string(evt.MediaType), evt.Duration, 0)
	case tracker.EventJobFailed:
		err = s.service.NotifyJobFailed(ctx, evt.JobID, string(evt.MediaType), evt.Reason)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("notification delivery failed",
			logging.String(logging.FieldJobID, evt.JobID),
			logging.String(logging.FieldEventType, string(evt.Kind)),
			logging.Error(err),
		)
	}
}
