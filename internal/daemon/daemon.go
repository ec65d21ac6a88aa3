// Package daemon runs the processing service: it enforces single-instance
// execution with a file lock, owns the cleanup sweeper, and serves the
// JSON HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"iris/internal/archive"
	"iris/internal/config"
	"iris/internal/logging"
	"iris/internal/orchestrator"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	orch   *orchestrator.Orchestrator
	store  *archive.Store

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. The caller wires
// tracker subscribers (archive, notifications) before starting.
func New(cfg *config.Config, logger *slog.Logger, orch *orchestrator.Orchestrator, store *archive.Store) (*Daemon, error) {
	if cfg == nil || logger == nil || orch == nil {
		return nil, errors.New("daemon requires config, logger, and orchestrator")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "irisd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		orch:     orch,
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	srv, err := newAPIServer(cfg, d, d.logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, probes the plugin catalogue, and brings
// up the sweeper and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another iris daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.orch.Initialize(runCtx)
	go d.orch.RunSweeper(runCtx)

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("iris daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("iris daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.orch.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon is started.
func (d *Daemon) Running() bool { return d.running.Load() }
