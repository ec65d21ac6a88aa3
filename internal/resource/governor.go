// Package resource bounds concurrent job execution and reacts to memory
// pressure. Admission control is soft: a saturated slot table blocks the
// caller, and memory pressure defers admission with cleanup passes rather
// than rejecting work.
package resource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"iris/internal/logging"
)

// Config holds the governor tunables.
type Config struct {
	MaxConcurrent      int
	MemoryHighWaterPct int
	RetryInterval      time.Duration
	MaxWait            time.Duration
}

// Governor serializes admission of new jobs against a fixed slot table
// and a memory high-water mark.
type Governor struct {
	logger *slog.Logger
	cfg    Config
	slots  chan struct{}

	mu      sync.Mutex
	cleanup []func()

	// usedMemoryPct is swappable for tests.
	usedMemoryPct func() (float64, bool)
}

// New constructs a governor. MaxConcurrent below one is raised to one.
func New(logger *slog.Logger, cfg Config) *Governor {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}
	return &Governor{
		logger:        logging.NewComponentLogger(logger, "resource"),
		cfg:           cfg,
		slots:         make(chan struct{}, cfg.MaxConcurrent),
		usedMemoryPct: usedMemoryPct,
	}
}

// RegisterCleanup adds a hook run when admission hits the memory
// high-water mark. Hooks should shed reclaimable state (caches).
func (g *Governor) RegisterCleanup(fn func()) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.cleanup = append(g.cleanup, fn)
	g.mu.Unlock()
}

// Acquire blocks until a concurrency slot is free and memory pressure has
// been handled, then returns the release function. Only context
// cancellation produces an error; sustained memory pressure past MaxWait
// admits the job anyway with a warning.
func (g *Governor) Acquire(ctx context.Context) (func(), error) {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := g.waitForMemory(ctx); err != nil {
		<-g.slots
		return nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-g.slots })
	}
	return release, nil
}

// Do runs fn inside an acquired slot.
func (g *Governor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// InFlight reports the number of currently held slots.
func (g *Governor) InFlight() int { return len(g.slots) }

func (g *Governor) waitForMemory(ctx context.Context) error {
	if g.cfg.MemoryHighWaterPct <= 0 {
		return nil
	}
	deadline := time.Now().Add(g.cfg.MaxWait)
	ranCleanup := false
	for {
		pct, ok := g.usedMemoryPct()
		if !ok || pct < float64(g.cfg.MemoryHighWaterPct) {
			return nil
		}
		if !ranCleanup {
			g.runCleanup(pct)
			ranCleanup = true
			continue
		}
		if g.cfg.MaxWait <= 0 || !time.Now().Before(deadline) {
			g.logger.Warn("admitting job despite memory pressure",
				logging.Float64("used_pct", pct),
				logging.Int("high_water_pct", g.cfg.MemoryHighWaterPct),
			)
			return nil
		}
		select {
		case <-time.After(g.cfg.RetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Governor) runCleanup(pct float64) {
	g.mu.Lock()
	hooks := make([]func(), len(g.cleanup))
	copy(hooks, g.cleanup)
	g.mu.Unlock()

	g.logger.Info("memory high-water mark crossed, running cleanup",
		logging.Float64("used_pct", pct),
		logging.Int("hooks", len(hooks)),
	)
	for _, hook := range hooks {
		hook()
	}
	freeMemory()
}
