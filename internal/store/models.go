package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status represents the lifecycle state of a workflow.
type Status string

const (
	StatusInitialized      Status = "initialized"
	StatusDiscoveringTopic Status = "discovering_topic"
	StatusResearching      Status = "researching"
	StatusWriting          Status = "writing"
	StatusChecking         Status = "checking"
	StatusEmailSent        Status = "email_sent"
	StatusPublished        Status = "published"
	StatusDeclined         Status = "declined"
	StatusRejected         Status = "rejected"
	StatusFailed           Status = "failed"
)

// Trigger records what initiated a workflow run.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerDaily  Trigger = "daily"
	TriggerAPI    Trigger = "api"
)

var allStatuses = []Status{
	StatusInitialized,
	StatusDiscoveringTopic,
	StatusResearching,
	StatusWriting,
	StatusChecking,
	StatusEmailSent,
	StatusPublished,
	StatusDeclined,
	StatusRejected,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// allowedTransitions is the forward-only lifecycle graph. Failed is reachable
// from every non-terminal state; terminal states have no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusInitialized:      {StatusDiscoveringTopic, StatusFailed},
	StatusDiscoveringTopic: {StatusResearching, StatusFailed},
	StatusResearching:      {StatusWriting, StatusFailed},
	StatusWriting:          {StatusChecking, StatusFailed},
	StatusChecking:         {StatusEmailSent, StatusRejected, StatusFailed},
	StatusEmailSent:        {StatusPublished, StatusDeclined, StatusFailed},
}

// processingStatuses are states where a stage is expected to be actively
// advancing the workflow. The stale sweep only targets these.
var processingStatuses = []Status{
	StatusInitialized,
	StatusDiscoveringTopic,
	StatusResearching,
	StatusWriting,
	StatusChecking,
}

// AllStatuses returns every lifecycle state in pipeline order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ValidStatus reports whether value names a known lifecycle state.
func ValidStatus(value Status) bool {
	_, ok := statusSet[value]
	return ok
}

// IsTerminal reports whether a workflow in this status can never change again.
func IsTerminal(status Status) bool {
	switch status {
	case StatusPublished, StatusDeclined, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle graph permits from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Stage result statuses recorded in the workflow's stage results map.
const (
	StageRunning   = "running"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// StageResult captures the outcome of a single pipeline stage.
type StageResult struct {
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Workflow represents a single blog content run persisted in SQLite.
//
// Stage payloads (topic, research, article, score) are stored as JSON
// documents so each stage can evolve its output shape without schema
// migrations. ArticleText mirrors the article body for uniqueness
// comparisons against past runs.
type Workflow struct {
	ID                string
	Status            Status
	TriggerType       Trigger
	TopicTitle        string
	TopicCategory     string
	ArticleTitle      string
	TopicJSON         string
	ResearchJSON      string
	ArticleJSON       string
	ScoreJSON         string
	StageResultsJSON  string
	ArticleText       string
	ErrorMessage      string
	PublishedID       string
	ApprovalTokenHash string
	ApprovalTokenUsed bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StageResults decodes the per-stage outcome map. An empty document yields an
// empty map.
func (w *Workflow) StageResults() (map[string]StageResult, error) {
	if w.StageResultsJSON == "" {
		return map[string]StageResult{}, nil
	}
	results := map[string]StageResult{}
	if err := json.Unmarshal([]byte(w.StageResultsJSON), &results); err != nil {
		return nil, fmt.Errorf("decode stage results: %w", err)
	}
	return results, nil
}

// SetStageResult records the outcome for one stage, preserving the others.
func (w *Workflow) SetStageResult(stage string, result StageResult) error {
	results, err := w.StageResults()
	if err != nil {
		return err
	}
	results[stage] = result
	encoded, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode stage results: %w", err)
	}
	w.StageResultsJSON = string(encoded)
	return nil
}
