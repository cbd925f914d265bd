package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/notifications"
	"inkwell/internal/research"
	"inkwell/internal/services/images"
	"inkwell/internal/services/textgen"
	"inkwell/internal/store"
	"inkwell/internal/topics"
	"inkwell/internal/workflow"
	"inkwell/internal/writer"
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the workflow database for the duration of one command. The
// store uses WAL mode, so commands work alongside a running daemon.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// buildManager wires the full content pipeline for an in-process run.
func buildManager(cfg *config.Config, st *store.Store, logger *slog.Logger) (*workflow.Manager, error) {
	generator, err := textgen.NewClient(cfg.TextGen)
	if err != nil {
		return nil, fmt.Errorf("text generation client: %w", err)
	}
	selector, err := topics.NewSelector(cfg.Topics)
	if err != nil {
		return nil, fmt.Errorf("topic selector: %w", err)
	}

	researcher := research.NewResearcher(cfg.Research, generator, logger)
	articleWriter := writer.NewWriter(generator, images.NewSource(cfg.Images), logger)
	notifier := notifications.NewService(cfg)

	return workflow.New(cfg, st, selector, researcher, articleWriter, notifier, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
