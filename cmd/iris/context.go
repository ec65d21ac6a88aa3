package main

import (
	"log/slog"
	"strings"
	"sync"

	"iris/internal/config"
	"iris/internal/logging"
	"iris/internal/orchestrator"
	"iris/internal/providers"
	"iris/internal/registry"
	"iris/internal/tracker"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// buildOrchestrator assembles an in-process orchestrator for one-shot
// commands. The caller closes it when done.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, *slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, err
	}

	reg := registry.New(logger)
	for _, plugin := range providers.Catalogue(cfg) {
		if err := reg.Register(plugin); err != nil {
			return nil, nil, err
		}
	}
	trk := tracker.New(logger)
	return orchestrator.New(cfg, logger, reg, trk), logger, nil
}
