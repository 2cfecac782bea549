package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/runlog"
	"lectern/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := ""
		if c.logLevelFlag != nil {
			level = *c.logLevelFlag
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, level)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// recordRun runs fn under a fresh run id and records its outcome in the run
// history. History failures are logged and never fail the command.
func (c *commandContext) recordRun(cmd *cobra.Command, command, language string, fn func(ctx context.Context) (any, error)) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx := services.WithRunID(cmd.Context(), runID)
	ctx = services.WithLanguage(ctx, language)
	logger = logging.WithContext(ctx, logger)

	store, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "runlog_open_failed",
			logging.Error(err),
			logging.String("path", cfg.RunLogPath()),
			logging.Impact("this run is not recorded in lectern history"),
		)
		store = nil
	} else {
		defer store.Close()
		if _, err := store.Start(ctx, runID, command, language); err != nil {
			logging.WarnWithContext(logger, "run history start failed", "runlog_start_failed", logging.Error(err))
		}
	}

	summary, runErr := fn(ctx)

	if store != nil {
		// The command context may already be cancelled; the outcome is still recorded.
		if err := store.Finish(context.WithoutCancel(ctx), runID, services.FailureStatus(runErr), summary, runErr); err != nil {
			logging.WarnWithContext(logger, "run history finish failed", "runlog_finish_failed", logging.Error(err))
		}
	}
	return runErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
