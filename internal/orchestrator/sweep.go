package orchestrator

import (
	"context"
	"fmt"
	"time"

	"iris/internal/logging"
)

// RunSweeper performs periodic cleanup until ctx is cancelled: expired
// cache entries are evicted and jobs stuck past the configured ceiling
// are force-failed and dropped from the active table.
func (o *Orchestrator) RunSweeper(ctx context.Context) {
	interval := time.Duration(o.cfg.Workflow.SweepIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Sweep()
		}
	}
}

// Sweep runs one cleanup pass.
func (o *Orchestrator) Sweep() {
	if evicted := o.cache.EvictExpired(); evicted > 0 {
		o.logger.Debug("evicted expired cache entries", logging.Int("evicted", evicted))
	}

	maxAge := time.Duration(o.cfg.Workflow.JobMaxAgeSeconds) * time.Second
	if maxAge <= 0 {
		return
	}
	for _, id := range o.tracker.StaleJobs(maxAge) {
		reason := fmt.Sprintf("job exceeded maximum age of %s", maxAge)
		o.tracker.FailJob(id, reason)
		o.tracker.Remove(id)
		o.metrics.record(false, maxAge)
		o.logger.Warn("force-failed stuck job",
			logging.String(logging.FieldJobID, id),
			logging.String("reason", reason),
		)
	}
}
