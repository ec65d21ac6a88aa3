// Command irisd runs the iris processing daemon: it wires the plugin
// catalogue, the job tracker and its subscribers, the orchestrator, and
// the HTTP API, then waits for a shutdown signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"iris/internal/archive"
	"iris/internal/config"
	"iris/internal/daemon"
	"iris/internal/logging"
	"iris/internal/notifications"
	"iris/internal/orchestrator"
	"iris/internal/providers"
	"iris/internal/registry"
	"iris/internal/tracker"
)

func main() {
	cmd := newDaemonCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newDaemonCommand() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:           "irisd",
		Short:         "Iris media analysis daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFlag)
		},
	}
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "iris.log")},
	})
	if err != nil {
		return err
	}

	reg := registry.New(logger)
	for _, plugin := range providers.Catalogue(cfg) {
		if err := reg.Register(plugin); err != nil {
			return err
		}
	}
	trk := tracker.New(logger)

	store, err := archive.Open(cfg)
	if err != nil {
		return err
	}
	trk.Subscribe(archive.NewArchiver(store, trk, logger))
	trk.Subscribe(notifications.NewSubscriber(notifications.NewService(cfg), logger))

	orch := orchestrator.New(cfg, logger, reg, trk)

	d, err := daemon.New(cfg, logger, orch, store)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() { _ = d.Close() }()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(runCtx); err != nil {
		return err
	}
	<-runCtx.Done()
	d.Stop()
	return nil
}
