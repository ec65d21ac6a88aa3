package archive

import (
	"context"
	"log/slog"
	"time"

	"iris/internal/logging"
	"iris/internal/tracker"
)

const saveTimeout = 5 * time.Second

// snapshotter is the tracker surface the archiver reads from.
type snapshotter interface {
	Snapshot(id string) (tracker.Snapshot, bool)
}

// Archiver subscribes to tracker events and persists terminal jobs.
// Persistence failures are logged, never propagated: archival must not
// interfere with job processing.
type Archiver struct {
	store  *Store
	jobs   snapshotter
	logger *slog.Logger
}

// NewArchiver constructs the event subscriber.
func NewArchiver(store *Store, jobs snapshotter, logger *slog.Logger) *Archiver {
	return &Archiver{
		store:  store,
		jobs:   jobs,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// OnEvent persists the job on its terminal transition.
func (a *Archiver) OnEvent(evt tracker.Event) {
	if evt.Kind != tracker.EventJobCompleted && evt.Kind != tracker.EventJobFailed {
		return
	}
	snap, ok := a.jobs.Snapshot(evt.JobID)
	if !ok {
		a.logger.Warn("terminal job missing from tracker",
			logging.String(logging.FieldJobID, evt.JobID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := a.store.SaveJob(ctx, snap); err != nil {
		a.logger.Error("archive write failed",
			logging.String(logging.FieldJobID, evt.JobID),
			logging.Error(err),
		)
		return
	}
	a.logger.Debug("job archived",
		logging.String(logging.FieldJobID, evt.JobID),
		logging.String("status", string(snap.Status)),
	)
}
