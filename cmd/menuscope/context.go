package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"menuscope/internal/config"
	"menuscope/internal/export"
	"menuscope/internal/logging"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
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
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger builds the run logger. Console output goes to the command's stderr
// so stdout carries only results. Callers must close the returned closer.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, io.Closer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, closer, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, closer, nil
}

// openSQLite opens the database copy at path. An empty path disables it and
// yields a nil handle.
func openSQLite(ctx context.Context, path string) (*export.SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return export.OpenSQLite(ctx, expanded)
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
