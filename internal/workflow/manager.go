package workflow

import (
	"context"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/content"
	"inkwell/internal/logging"
	"inkwell/internal/notifications"
	"inkwell/internal/scoring"
	"inkwell/internal/store"
	"inkwell/internal/topics"
)

// Stage names recorded in the workflow's stage results.
const (
	StageTopicDiscovery = "topic_discovery"
	StageResearch       = "research"
	StageWriting        = "writing"
	StageContentCheck   = "content_check"
)

// TopicSelector is the topic-discovery stage contract.
type TopicSelector interface {
	SelectTopic(ctx context.Context, usedTitles []string) (topics.Selection, error)
}

// Researcher is the research stage contract.
type Researcher interface {
	Research(ctx context.Context, selection topics.Selection) (content.ResearchReport, error)
}

// ArticleWriter is the writing stage contract.
type ArticleWriter interface {
	Write(ctx context.Context, report content.ResearchReport, recent []content.RecentArticle) (content.Article, error)
}

// RunResult summarizes a finished run.
type RunResult struct {
	WorkflowID string           `json:"workflow_id"`
	Status     store.Status     `json:"status"`
	Decision   scoring.Decision `json:"decision,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Manager orchestrates content runs.
type Manager struct {
	cfg        *config.Config
	store      *store.Store
	selector   TopicSelector
	researcher Researcher
	writer     ArticleWriter
	notifier   notifications.Service
	logger     *slog.Logger
}

// New wires a manager from its collaborators.
func New(
	cfg *config.Config,
	st *store.Store,
	selector TopicSelector,
	researcher Researcher,
	writer ArticleWriter,
	notifier notifications.Service,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Manager{
		cfg:        cfg,
		store:      st,
		selector:   selector,
		researcher: researcher,
		writer:     writer,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "workflow"),
	}
}
