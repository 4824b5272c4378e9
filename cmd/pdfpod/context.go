package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pdfpod/internal/config"
	"pdfpod/internal/jobs"
	"pdfpod/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
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
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerFor returns the process logger, falling back to stderr-only output
// when the log file cannot be opened.
func (c *commandContext) loggerFor(cfg *config.Config) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger, _ = logging.NewFromConfig(nil)
			logging.WarnWithContext(logger, "log file unavailable; logging to stderr only", "log_file_unavailable",
				logging.Error(err),
			)
		}
		c.logger = logger
	})
	return c.logger
}

// openStore opens the request history. A failure is reported and the
// command proceeds without history.
func (c *commandContext) openStore(cmd *cobra.Command, cfg *config.Config) *jobs.Store {
	store, err := jobs.Open(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: request history unavailable: %v\n", err)
		return nil
	}
	return store
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
