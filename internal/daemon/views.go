package daemon

import (
	"time"

	"inkwell/internal/store"
)

type workflowListResponse struct {
	Workflows []workflowView `json:"workflows"`
}

// workflowView is the API representation of a workflow. Large stage payloads
// (research, article, score documents) stay out of list responses; clients
// fetch them per workflow when needed.
type workflowView struct {
	ID            string                       `json:"id"`
	Status        store.Status                 `json:"status"`
	TriggerType   store.Trigger                `json:"trigger_type"`
	TopicTitle    string                       `json:"topic_title,omitempty"`
	TopicCategory string                       `json:"topic_category,omitempty"`
	ArticleTitle  string                       `json:"article_title,omitempty"`
	ErrorMessage  string                       `json:"error_message,omitempty"`
	PublishedID   string                       `json:"published_id,omitempty"`
	StageResults  map[string]store.StageResult `json:"stage_results,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

func newWorkflowView(wf *store.Workflow) workflowView {
	view := workflowView{
		ID:            wf.ID,
		Status:        wf.Status,
		TriggerType:   wf.TriggerType,
		TopicTitle:    wf.TopicTitle,
		TopicCategory: wf.TopicCategory,
		ArticleTitle:  wf.ArticleTitle,
		ErrorMessage:  wf.ErrorMessage,
		PublishedID:   wf.PublishedID,
		CreatedAt:     wf.CreatedAt,
		UpdatedAt:     wf.UpdatedAt,
	}
	if results, err := wf.StageResults(); err == nil && len(results) > 0 {
		view.StageResults = results
	}
	return view
}
