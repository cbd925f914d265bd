package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/approval"
	"inkwell/internal/config"
	"inkwell/internal/logging"
	"inkwell/internal/services/cms"
	"inkwell/internal/store"
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "approve <workflow-id>",
		Short: "Redeem an approval token and publish the article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return redeemToken(ctx, cmd, args[0], token, approval.ActionApprove)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Approval token from the review email")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newDeclineCommand(ctx *commandContext) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "decline <workflow-id>",
		Short: "Redeem an approval token and decline the article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return redeemToken(ctx, cmd, args[0], token, approval.ActionDecline)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Approval token from the review email")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func redeemToken(ctx *commandContext, cmd *cobra.Command, workflowID, token, action string) error {
	return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
		gate := approval.NewGate(st, cms.NewPublisher(cfg.CMS), logging.NewNop())
		result, err := gate.Redeem(cmd.Context(), strings.TrimSpace(workflowID), strings.TrimSpace(token), action)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch result.Status {
		case store.StatusPublished:
			fmt.Fprintf(out, "Workflow %s approved; article published as %s\n", result.WorkflowID, result.PublishedID)
		case store.StatusDeclined:
			fmt.Fprintf(out, "Workflow %s declined\n", result.WorkflowID)
		default:
			fmt.Fprintf(out, "Workflow %s is now %s\n", result.WorkflowID, result.Status)
		}
		return nil
	})
}
