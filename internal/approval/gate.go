package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/content"
	"inkwell/internal/logging"
	"inkwell/internal/services/cms"
	"inkwell/internal/store"
)

// Redemption failure modes, mapped to HTTP statuses by the daemon.
var (
	ErrUnknownWorkflow     = errors.New("unknown workflow")
	ErrInvalidToken        = errors.New("invalid approval token")
	ErrAlreadyUsed         = errors.New("approval token already used")
	ErrNotAwaitingApproval = errors.New("workflow is not awaiting approval")
	ErrInvalidAction       = errors.New("invalid approval action")
)

// Actions accepted by Redeem.
const (
	ActionApprove = "approve"
	ActionDecline = "decline"
)

// Result reports the outcome of a successful redemption.
type Result struct {
	WorkflowID  string       `json:"workflow_id"`
	Status      store.Status `json:"status"`
	PublishedID string       `json:"published_id,omitempty"`
}

// Gate validates and consumes approval tokens.
type Gate struct {
	store     *store.Store
	publisher cms.Publisher
	logger    *slog.Logger
}

// NewGate builds a gate over the workflow store and the publish collaborator.
func NewGate(st *store.Store, publisher cms.Publisher, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gate{
		store:     st,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "approval"),
	}
}

// Redeem consumes an approval token exactly once. Approve publishes the
// article and finalizes the workflow as published; decline finalizes it as
// declined. A publish failure after consumption fails the workflow and the
// token stays consumed, so the same link cannot retry the publish.
func (g *Gate) Redeem(ctx context.Context, workflowID, token, action string) (Result, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != ActionApprove && action != ActionDecline {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if strings.TrimSpace(token) == "" {
		return Result{}, ErrInvalidToken
	}

	wf, err := g.store.GetByID(ctx, workflowID)
	if err != nil {
		return Result{}, fmt.Errorf("load workflow: %w", err)
	}
	if wf == nil {
		return Result{}, ErrUnknownWorkflow
	}
	if wf.ApprovalTokenHash == "" || !hashMatches(wf.ApprovalTokenHash, token) {
		return Result{}, ErrInvalidToken
	}
	if wf.ApprovalTokenUsed {
		return Result{}, ErrAlreadyUsed
	}
	if wf.Status != store.StatusEmailSent {
		return Result{}, ErrNotAwaitingApproval
	}

	ok, err := g.store.ConsumeApprovalToken(ctx, workflowID, wf.ApprovalTokenHash)
	if err != nil {
		return Result{}, fmt.Errorf("consume approval token: %w", err)
	}
	if !ok {
		// Lost the race to a concurrent redemption.
		return Result{}, ErrAlreadyUsed
	}

	g.logger.Info("approval token redeemed",
		logging.String(logging.FieldWorkflowID, workflowID),
		logging.String("action", action))

	if action == ActionDecline {
		if err := g.store.Transition(ctx, workflowID, store.StatusEmailSent, store.StatusDeclined); err != nil {
			return Result{}, fmt.Errorf("finalize decline: %w", err)
		}
		return Result{WorkflowID: workflowID, Status: store.StatusDeclined}, nil
	}
	return g.publish(ctx, wf)
}

func (g *Gate) publish(ctx context.Context, wf *store.Workflow) (Result, error) {
	var article content.Article
	if err := json.Unmarshal([]byte(wf.ArticleJSON), &article); err != nil {
		failErr := fmt.Errorf("decode stored article: %w", err)
		g.failWorkflow(ctx, wf.ID, failErr)
		return Result{}, failErr
	}

	publishedID, err := g.publisher.Publish(ctx, article)
	if err != nil {
		publishErr := fmt.Errorf("publish article: %w", err)
		g.failWorkflow(ctx, wf.ID, publishErr)
		return Result{}, publishErr
	}

	wf.PublishedID = publishedID
	if err := g.store.Update(ctx, wf); err != nil {
		return Result{}, fmt.Errorf("record published id: %w", err)
	}
	if err := g.store.Transition(ctx, wf.ID, store.StatusEmailSent, store.StatusPublished); err != nil {
		return Result{}, fmt.Errorf("finalize publish: %w", err)
	}

	g.logger.Info("article published",
		logging.String(logging.FieldWorkflowID, wf.ID),
		logging.String("published_id", publishedID))
	return Result{WorkflowID: wf.ID, Status: store.StatusPublished, PublishedID: publishedID}, nil
}

func (g *Gate) failWorkflow(ctx context.Context, workflowID string, cause error) {
	if err := g.store.Fail(ctx, workflowID, cause.Error()); err != nil {
		g.logger.Error("failed to record publish failure",
			logging.String(logging.FieldWorkflowID, workflowID),
			logging.Error(err))
	}
}
