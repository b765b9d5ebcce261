package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ffqueue/internal/config"
	"ffqueue/internal/logging"
	"ffqueue/internal/playlist"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	// playlistLister overrides playlist lookups (tests).
	playlistLister playlist.Lister
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// appLogger returns the application logger writing to ffqueue.log, with
// warnings mirrored to stderr. Logging problems never block a command; a
// no-op logger is used instead.
func (c *commandContext) appLogger(cmd *cobra.Command) *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: application log disabled: %v\n", err)
			c.logger = logging.NewNop()
			return
		}
		if stderr, herr := logging.NewHandler(cmd.ErrOrStderr(), "console", "warn", false); herr == nil {
			logger = logging.TeeLogger(logger, stderr)
		}
		c.logger = logger
	})
	return c.logger
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// exitError carries a process exit status for runs that finished without
// completing. The console has already reported the outcome.
type exitError struct {
	code  int
	state string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("run %s", e.state)
}
