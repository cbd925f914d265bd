package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"inkwell/internal/store"
)

func TestWorkflowsListEmpty(t *testing.T) {
	path := writeTestConfig(t)

	output, err := executeCommand(t, "--config", path, "workflows", "list")
	if err != nil {
		t.Fatalf("workflows list: %v", err)
	}
	if !strings.Contains(output, "No workflows found") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestWorkflowsListShowsSeededWorkflow(t *testing.T) {
	path := writeTestConfig(t)
	st := openTestStore(t, path)

	wf, err := st.Create(context.Background(), store.TriggerManual)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	output, err := executeCommand(t, "--config", path, "workflows", "list")
	if err != nil {
		t.Fatalf("workflows list: %v", err)
	}
	if !strings.Contains(output, wf.ID) {
		t.Fatalf("expected workflow id in output: %q", output)
	}
}

func TestWorkflowsListStatusFilter(t *testing.T) {
	path := writeTestConfig(t)
	st := openTestStore(t, path)
	ctx := context.Background()

	first, err := st.Create(ctx, store.TriggerManual)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.Create(ctx, store.TriggerDaily); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Transition(ctx, first.ID, store.StatusInitialized, store.StatusDiscoveringTopic); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	output, err := executeCommand(t, "--config", path, "workflows", "list", "--status", "discovering_topic", "--json")
	if err != nil {
		t.Fatalf("workflows list: %v", err)
	}
	var resp struct {
		Workflows []workflowJSON `json:"workflows"`
	}
	if err := json.Unmarshal([]byte(output), &resp); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if len(resp.Workflows) != 1 || resp.Workflows[0].ID != first.ID {
		t.Fatalf("unexpected workflows: %+v", resp.Workflows)
	}
}

func TestWorkflowsListRejectsUnknownStatus(t *testing.T) {
	path := writeTestConfig(t)

	if _, err := executeCommand(t, "--config", path, "workflows", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestWorkflowsShowNotFound(t *testing.T) {
	path := writeTestConfig(t)

	if _, err := executeCommand(t, "--config", path, "workflows", "show", "wf-missing"); err == nil {
		t.Fatal("expected error for missing workflow")
	}
}

func TestWorkflowsShowJSON(t *testing.T) {
	path := writeTestConfig(t)
	st := openTestStore(t, path)

	wf, err := st.Create(context.Background(), store.TriggerAPI)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	output, err := executeCommand(t, "--config", path, "workflows", "show", wf.ID, "--json")
	if err != nil {
		t.Fatalf("workflows show: %v", err)
	}
	var view workflowJSON
	if err := json.Unmarshal([]byte(output), &view); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if view.ID != wf.ID || view.TriggerType != store.TriggerAPI {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestStatusCommandReportsCounts(t *testing.T) {
	path := writeTestConfig(t)
	st := openTestStore(t, path)

	if _, err := st.Create(context.Background(), store.TriggerManual); err != nil {
		t.Fatalf("Create: %v", err)
	}

	output, err := executeCommand(t, "--config", path, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if report.DaemonRunning {
		t.Fatal("daemon should not be reported as running")
	}
	if report.WorkflowCounts[store.StatusInitialized] != 1 {
		t.Fatalf("unexpected counts: %+v", report.WorkflowCounts)
	}
}
