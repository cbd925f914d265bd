package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/store"
)

type statusReport struct {
	DaemonRunning    bool                 `json:"daemon_running"`
	DatabasePath     string               `json:"database_path"`
	WorkflowCounts   map[store.Status]int `json:"workflow_counts"`
	PendingApprovals int                  `json:"pending_approvals"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and workflow status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				counts, err := st.CountByStatus(cmd.Context())
				if err != nil {
					return fmt.Errorf("count workflows: %w", err)
				}
				report := statusReport{
					DaemonRunning:    daemonRunning(cfg),
					DatabasePath:     cfg.DatabasePath(),
					WorkflowCounts:   counts,
					PendingApprovals: counts[store.StatusEmailSent],
				}
				if jsonOut {
					return writeJSON(cmd, report)
				}
				printStatusReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

// daemonRunning probes the daemon lock file. A lock we can take was not held,
// so the daemon is down; we release it immediately.
func daemonRunning(cfg *config.Config) bool {
	lock := flock.New(filepath.Join(cfg.DataDir, "inkwelld.lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return false
	}
	if acquired {
		_ = lock.Unlock()
		return false
	}
	return true
}

func printStatusReport(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Inkwell Status", colorize) {
		fmt.Fprintln(out, line)
	}

	daemonKind := statusWarn
	daemonMessage := "not running"
	if report.DaemonRunning {
		daemonKind = statusOK
		daemonMessage = "running"
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonMessage, colorize))
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, report.DatabasePath, colorize))

	approvalsKind := statusInfo
	if report.PendingApprovals > 0 {
		approvalsKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Pending approvals", approvalsKind, fmt.Sprintf("%d", report.PendingApprovals), colorize))

	if len(report.WorkflowCounts) == 0 {
		fmt.Fprintln(out, renderStatusLine("Workflows", statusInfo, "none recorded", colorize))
		return
	}

	rows := make([][]string, 0, len(report.WorkflowCounts))
	for _, status := range store.AllStatuses() {
		count, ok := report.WorkflowCounts[status]
		if !ok || count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"STATUS", "COUNT"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}
