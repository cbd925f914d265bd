package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/store"
	"inkwell/internal/workflow"
)

func newWorkflowsCommand(ctx *commandContext) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect content workflows",
	}

	workflowsCmd.AddCommand(newWorkflowsListCommand(ctx))
	workflowsCmd.AddCommand(newWorkflowsShowCommand(ctx))

	return workflowsCmd
}

func newWorkflowsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFilters)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				workflows, err := st.List(cmd.Context(), statuses...)
				if err != nil {
					return fmt.Errorf("list workflows: %w", err)
				}
				if jsonOut {
					views := make([]workflowJSON, 0, len(workflows))
					for _, wf := range workflows {
						views = append(views, newWorkflowJSON(wf))
					}
					return writeJSON(cmd, map[string]any{"workflows": views})
				}
				printWorkflowTable(cmd, workflows)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by workflow status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newWorkflowsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <workflow-id>",
		Short: "Show one workflow in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				wf, err := st.GetByID(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("load workflow: %w", err)
				}
				if wf == nil {
					return fmt.Errorf("workflow %q not found", args[0])
				}
				if jsonOut {
					return writeJSON(cmd, newWorkflowJSON(wf))
				}
				printWorkflowDetail(cmd, wf)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func parseStatusFilters(filters []string) ([]store.Status, error) {
	statuses := make([]store.Status, 0, len(filters))
	for _, filter := range filters {
		trimmed := strings.TrimSpace(filter)
		if trimmed == "" {
			continue
		}
		status := store.Status(trimmed)
		if !store.ValidStatus(status) {
			return nil, fmt.Errorf("unknown status %q", trimmed)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

type workflowJSON struct {
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

func newWorkflowJSON(wf *store.Workflow) workflowJSON {
	view := workflowJSON{
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

func printWorkflowTable(cmd *cobra.Command, workflows []*store.Workflow) {
	out := cmd.OutOrStdout()
	if len(workflows) == 0 {
		fmt.Fprintln(out, "No workflows found")
		return
	}

	rows := make([][]string, 0, len(workflows))
	for _, wf := range workflows {
		rows = append(rows, []string{
			wf.ID,
			string(wf.Status),
			string(wf.TriggerType),
			truncate(wf.TopicTitle, 40),
			wf.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "STATUS", "TRIGGER", "TOPIC", "UPDATED"},
		rows,
		nil,
	))
}

func printWorkflowDetail(cmd *cobra.Command, wf *store.Workflow) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	kind := statusInfo
	switch wf.Status {
	case store.StatusPublished, store.StatusEmailSent:
		kind = statusOK
	case store.StatusFailed:
		kind = statusError
	case store.StatusRejected, store.StatusDeclined:
		kind = statusWarn
	}

	fmt.Fprintln(out, renderStatusLine("Workflow", statusInfo, wf.ID, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", kind, string(wf.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Trigger", statusInfo, string(wf.TriggerType), colorize))
	if wf.TopicTitle != "" {
		fmt.Fprintln(out, renderStatusLine("Topic", statusInfo, wf.TopicTitle, colorize))
	}
	if wf.TopicCategory != "" {
		fmt.Fprintln(out, renderStatusLine("Category", statusInfo, wf.TopicCategory, colorize))
	}
	if wf.ArticleTitle != "" {
		fmt.Fprintln(out, renderStatusLine("Article", statusInfo, wf.ArticleTitle, colorize))
	}
	if wf.PublishedID != "" {
		fmt.Fprintln(out, renderStatusLine("Published ID", statusOK, wf.PublishedID, colorize))
	}
	if wf.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, wf.ErrorMessage, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Created", statusInfo, wf.CreatedAt.Local().Format(time.RFC3339), colorize))
	fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, wf.UpdatedAt.Local().Format(time.RFC3339), colorize))

	results, err := wf.StageResults()
	if err != nil || len(results) == 0 {
		return
	}

	stageOrder := []string{
		workflow.StageTopicDiscovery,
		workflow.StageResearch,
		workflow.StageWriting,
		workflow.StageContentCheck,
	}
	rows := make([][]string, 0, len(results))
	for _, stage := range stageOrder {
		result, ok := results[stage]
		if !ok {
			continue
		}
		duration := ""
		if result.DurationMS > 0 {
			duration = (time.Duration(result.DurationMS) * time.Millisecond).String()
		}
		rows = append(rows, []string{stage, result.Status, duration, truncate(result.Error, 50)})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"STAGE", "STATUS", "DURATION", "ERROR"},
		rows,
		nil,
	))
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
