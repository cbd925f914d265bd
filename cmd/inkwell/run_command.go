package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/logging"
	"inkwell/internal/scoring"
	"inkwell/internal/store"
	"inkwell/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the content pipeline once, end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				manager, err := buildManager(cfg, st, logger)
				if err != nil {
					return err
				}

				signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				result, runErr := manager.Run(signalCtx, store.TriggerManual)
				if jsonOut {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				} else {
					printRunResult(cmd.OutOrStdout(), result)
				}
				if runErr != nil {
					return fmt.Errorf("content run failed: %w", runErr)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func printRunResult(out io.Writer, result workflow.RunResult) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderStatusLine("Workflow", statusInfo, result.WorkflowID, colorize))

	kind := statusOK
	switch result.Status {
	case store.StatusFailed:
		kind = statusError
	case store.StatusRejected:
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Status", kind, string(result.Status), colorize))

	if result.Decision != "" {
		decisionKind := statusOK
		if result.Decision != scoring.DecisionApproved {
			decisionKind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Decision", decisionKind, string(result.Decision), colorize))
	}
	if result.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, result.Error, colorize))
	}
	if result.Status == store.StatusEmailSent {
		fmt.Fprintln(out, renderStatusLine("Next step", statusInfo, "approval email sent, awaiting editor review", colorize))
	}
}
