package main

import (
	"fmt"
	"log/slog"

	"inkwell/internal/approval"
	"inkwell/internal/config"
	"inkwell/internal/daemon"
	"inkwell/internal/notifications"
	"inkwell/internal/research"
	"inkwell/internal/services/cms"
	"inkwell/internal/services/images"
	"inkwell/internal/services/textgen"
	"inkwell/internal/store"
	"inkwell/internal/topics"
	"inkwell/internal/workflow"
	"inkwell/internal/writer"
)

// bootstrap assembles the full pipeline behind the daemon: storage, the text
// generation client, the per-stage services, the workflow manager, and the
// approval gate.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	generator, err := textgen.NewClient(cfg.TextGen)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("text generation client: %w", err)
	}

	selector, err := topics.NewSelector(cfg.Topics)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("topic selector: %w", err)
	}

	researcher := research.NewResearcher(cfg.Research, generator, logger)
	articleWriter := writer.NewWriter(generator, images.NewSource(cfg.Images), logger)
	notifier := notifications.NewService(cfg)

	manager := workflow.New(cfg, st, selector, researcher, articleWriter, notifier, logger)
	gate := approval.NewGate(st, cms.NewPublisher(cfg.CMS), logger)

	d, err := daemon.New(cfg, st, manager, gate, notifier, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return d, nil
}
