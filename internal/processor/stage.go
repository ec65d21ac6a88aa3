package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"iris/internal/logging"
	"iris/internal/services"
)

// StageRunner drives one job's stages against the reporter with uniform
// degradation semantics: essential stage failures fail the job, everything
// else degrades to skipped plus a warning.
type StageRunner struct {
	Reporter Reporter
	Logger   *slog.Logger
	JobID    string
	Timeout  time.Duration
}

// Run executes one stage. fn returns a human-readable completion detail.
// Non-essential failures are absorbed: the stage is marked skipped, a
// warning is recorded, and nil is returned so the pipeline continues.
func (r *StageRunner) Run(ctx context.Context, name string, essential bool, fn func(ctx context.Context) (string, error)) error {
	if err := r.Reporter.StartStage(r.JobID, name, ""); err != nil {
		return err
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	detail, err := fn(services.WithStage(runCtx, name))
	if err != nil {
		if essential || services.IsFatal(err) {
			reason := err.Error()
			if failErr := r.Reporter.FailStage(r.JobID, name, reason); failErr != nil {
				r.Logger.Warn("stage fail transition rejected",
					logging.String(logging.FieldJobID, r.JobID),
					logging.String(logging.FieldStage, name),
					logging.Error(failErr),
				)
			}
			return fmt.Errorf("stage %s: %w", name, err)
		}
		reason := fmt.Sprintf("%s unavailable: %v", name, err)
		r.Skip(name, reason)
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return r.Reporter.CompleteStage(r.JobID, name, detail)
}

// Skip marks a stage skipped and records the reason as a job warning.
func (r *StageRunner) Skip(name, reason string) {
	if err := r.Reporter.SkipStage(r.JobID, name, reason); err != nil {
		r.Logger.Warn("stage skip transition rejected",
			logging.String(logging.FieldJobID, r.JobID),
			logging.String(logging.FieldStage, name),
			logging.Error(err),
		)
		return
	}
	r.Reporter.AddWarning(r.JobID, fmt.Sprintf("stage %s skipped: %s", name, reason))
	r.Logger.Info("stage skipped",
		logging.String(logging.FieldJobID, r.JobID),
		logging.String(logging.FieldStage, name),
		logging.String("reason", reason),
	)
}

// Progress forwards a mid-stage progress update.
func (r *StageRunner) Progress(name string, percent float64, detail string) {
	if err := r.Reporter.UpdateStageProgress(r.JobID, name, percent, detail); err != nil {
		r.Logger.Debug("progress update rejected",
			logging.String(logging.FieldJobID, r.JobID),
			logging.String(logging.FieldStage, name),
			logging.Error(err),
		)
	}
}

var tagCaser = cases.Lower(language.English)

// NormalizeTags lowercases, trims, and deduplicates tag candidates and
// returns them sorted.
func NormalizeTags(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tag := strings.TrimSpace(tagCaser.String(candidate))
		tag = strings.Join(strings.Fields(tag), "-")
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
