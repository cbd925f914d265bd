package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"inkwell/internal/approval"
	"inkwell/internal/content"
	"inkwell/internal/logging"
	"inkwell/internal/notifications"
	"inkwell/internal/scoring"
	"inkwell/internal/services"
	"inkwell/internal/store"
	"inkwell/internal/topics"
)

// Run executes one full content run: create the record, walk the four stages
// in order, then branch on the content-check decision. A stage failure stops
// the run immediately with the cause persisted; later stages never execute.
func (m *Manager) Run(ctx context.Context, trigger store.Trigger) (RunResult, error) {
	wf, err := m.store.Create(ctx, trigger)
	if err != nil {
		return RunResult{}, fmt.Errorf("create workflow: %w", err)
	}

	ctx = services.WithWorkflowID(ctx, wf.ID)
	logger := m.logger.With(logging.String(logging.FieldWorkflowID, wf.ID))
	logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.String("trigger", string(trigger)))

	var selection topics.Selection
	if err := m.runStage(ctx, logger, wf, StageTopicDiscovery, store.StatusInitialized, store.StatusDiscoveringTopic, func(ctx context.Context) error {
		used, err := m.store.UsedTopicTitles(ctx)
		if err != nil {
			return fmt.Errorf("load used topic titles: %w", err)
		}
		if selection, err = m.selector.SelectTopic(ctx, used); err != nil {
			return err
		}
		payload, err := json.Marshal(selection)
		if err != nil {
			return fmt.Errorf("encode topic selection: %w", err)
		}
		wf.TopicJSON = string(payload)
		wf.TopicTitle = selection.Topic.Title
		wf.TopicCategory = selection.Topic.Category
		return nil
	}); err != nil {
		return m.failedResult(wf, err), err
	}

	var report content.ResearchReport
	if err := m.runStage(ctx, logger, wf, StageResearch, store.StatusDiscoveringTopic, store.StatusResearching, func(ctx context.Context) error {
		var err error
		if report, err = m.researcher.Research(ctx, selection); err != nil {
			return err
		}
		payload, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("encode research report: %w", err)
		}
		wf.ResearchJSON = string(payload)
		return nil
	}); err != nil {
		return m.failedResult(wf, err), err
	}

	var recent []content.RecentArticle
	history, err := m.store.RecentPublished(ctx, m.recentLimit())
	if err != nil {
		logger.Warn("loading recent articles failed, continuing without history",
			logging.Error(err))
	} else {
		recent = make([]content.RecentArticle, 0, len(history))
		for _, past := range history {
			recent = append(recent, content.RecentArticle{
				Title: past.ArticleTitle,
				Body:  past.ArticleText,
			})
		}
	}

	var article content.Article
	if err := m.runStage(ctx, logger, wf, StageWriting, store.StatusResearching, store.StatusWriting, func(ctx context.Context) error {
		var err error
		if article, err = m.writer.Write(ctx, report, recent); err != nil {
			return err
		}
		payload, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("encode article: %w", err)
		}
		wf.ArticleJSON = string(payload)
		wf.ArticleTitle = article.Title
		wf.ArticleText = article.Body
		return nil
	}); err != nil {
		return m.failedResult(wf, err), err
	}

	var scoreReport scoring.Report
	if err := m.runStage(ctx, logger, wf, StageContentCheck, store.StatusWriting, store.StatusChecking, func(ctx context.Context) error {
		scoreReport = scoring.Score(article, report, recent)
		payload, err := json.Marshal(scoreReport)
		if err != nil {
			return fmt.Errorf("encode score report: %w", err)
		}
		wf.ScoreJSON = string(payload)
		return nil
	}); err != nil {
		return m.failedResult(wf, err), err
	}

	return m.applyDecision(ctx, logger, wf, article, scoreReport)
}

// applyDecision routes a checked workflow: rejection ends silently, anything
// publishable mints a token and asks the editor.
func (m *Manager) applyDecision(
	ctx context.Context,
	logger *slog.Logger,
	wf *store.Workflow,
	article content.Article,
	report scoring.Report,
) (RunResult, error) {
	logger.Info("content check decided",
		logging.String(logging.FieldEventType, "content_check_decision"),
		logging.String("decision", string(report.Decision)),
		logging.Int("overall_score", report.OverallScore))

	if report.Decision == scoring.DecisionRejected {
		if err := m.store.Transition(ctx, wf.ID, store.StatusChecking, store.StatusRejected); err != nil {
			return m.failedResult(wf, err), err
		}
		return RunResult{WorkflowID: wf.ID, Status: store.StatusRejected, Decision: report.Decision}, nil
	}

	token, hash, err := approval.NewToken()
	if err != nil {
		m.failWorkflow(ctx, logger, wf, err)
		return m.failedResult(wf, err), err
	}
	if err := m.store.SetApprovalToken(ctx, wf.ID, hash); err != nil {
		m.failWorkflow(ctx, logger, wf, err)
		return m.failedResult(wf, err), err
	}

	// Notification delivery is fire and forget: the reviewer can still reach
	// the workflow through the API if email never arrives.
	if err := m.notifier.SendApprovalRequest(ctx, notifications.ApprovalRequest{
		WorkflowID: wf.ID,
		Article:    article,
		Report:     report,
		Category:   wf.TopicCategory,
		Token:      token,
	}); err != nil {
		logger.Warn("approval email delivery failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.Error(err))
	}

	if err := m.store.Transition(ctx, wf.ID, store.StatusChecking, store.StatusEmailSent); err != nil {
		return m.failedResult(wf, err), err
	}
	logger.Info("workflow awaiting approval",
		logging.String(logging.FieldEventType, "workflow_awaiting_approval"))
	return RunResult{WorkflowID: wf.ID, Status: store.StatusEmailSent, Decision: report.Decision}, nil
}

func (m *Manager) recentLimit() int {
	if m.cfg != nil && m.cfg.Workflow.RecentArticleLimit > 0 {
		return m.cfg.Workflow.RecentArticleLimit
	}
	return 5
}

func (m *Manager) failWorkflow(ctx context.Context, logger *slog.Logger, wf *store.Workflow, cause error) {
	if err := m.store.Fail(ctx, wf.ID, cause.Error()); err != nil {
		logger.Error("failed to persist workflow failure",
			logging.Error(err))
	}
}

func (m *Manager) failedResult(wf *store.Workflow, cause error) RunResult {
	return RunResult{WorkflowID: wf.ID, Status: store.StatusFailed, Error: cause.Error()}
}
