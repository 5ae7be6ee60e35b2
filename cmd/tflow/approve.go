package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxwell/treasury-flow/internal/cli"
	"github.com/fluxwell/treasury-flow/internal/engine"
	"github.com/fluxwell/treasury-flow/internal/model"
)

func approveCmd() *cobra.Command {
	var (
		actor    string
		decision string
		items    []string
	)
	cmd := &cobra.Command{
		Use:   "approve <workflow-id>",
		Short: "Submit a payment approval decision",
		Long: `Records a reviewer decision on the pending payment checkpoint.
With --decision partial, --items selects the payments to approve;
everything else is rejected. Once the checkpoint collects its required
approvals the approved payments execute and investment planning runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			outcome, err := eng.SubmitPaymentDecision(cmd.Context(), args[0], actor, model.Decision(decision), items)
			if err != nil {
				return err
			}
			renderOutcome(outcome)
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "reviewer identity for the audit trail")
	cmd.Flags().StringVar(&decision, "decision", "approve_all", "decision (approve_all, reject_all, partial)")
	cmd.Flags().StringSliceVar(&items, "items", nil, "payment ids to approve with --decision partial")
	return cmd
}

func investCmd() *cobra.Command {
	var (
		actor    string
		decision string
		items    []string
	)
	cmd := &cobra.Command{
		Use:   "invest <workflow-id>",
		Short: "Submit an investment approval decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			outcome, err := eng.SubmitInvestmentDecision(cmd.Context(), args[0], actor, model.Decision(decision), items)
			if err != nil {
				return err
			}
			renderOutcome(outcome)
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "reviewer identity for the audit trail")
	cmd.Flags().StringVar(&decision, "decision", "approve_all", "decision (approve_all, reject_all, partial)")
	cmd.Flags().StringSliceVar(&items, "items", nil, "recommendation ids to approve with --decision partial")
	return cmd
}

func renderOutcome(o *engine.DecisionOutcome) {
	fmt.Print(cli.RenderCheckpoint(o.Checkpoint))
	if o.Execution == nil {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
			"Awaiting further approvals (%d of %d received)",
			o.Checkpoint.ReceivedApprovals, o.Checkpoint.RequiredApprovals)))
		return
	}
	fmt.Print(cli.RenderExecution(o.Execution))
	if o.Plan != nil {
		fmt.Print(cli.RenderPlan(o.Plan))
	}
	fmt.Printf("Workflow stage: %s\n", cli.BoldStyle.Render(string(o.Workflow.Stage)))
}
