package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxwell/treasury-flow/internal/cli"
)

func proposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal <workflow-id>",
		Short: "Show a workflow's payment proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			p, err := eng.GetProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(cli.RenderProposal(p))
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <workflow-id>",
		Short: "Show a workflow's investment plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			p, err := eng.GetInvestmentPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(cli.RenderPlan(p))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <workflow-id>",
		Short: "Show a workflow's stage and pending checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, store, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := eng.GetWorkflowStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Workflow %s\n", st.ID)
			fmt.Printf("Stage: %s\n", cli.BoldStyle.Render(string(st.Stage)))
			fmt.Printf("Steps completed: %d\n", len(st.StepsCompleted))
			for _, step := range st.StepsCompleted {
				fmt.Printf("  ✓ %s\n", step)
			}
			if st.Pending != nil {
				fmt.Print(cli.RenderCheckpoint(st.Pending))
			}
			if st.LastError != "" {
				fmt.Println(cli.ErrorStyle.Render("Error: " + st.LastError))
			}
			if st.CompletedAt != nil {
				fmt.Printf("Completed at %s\n", st.CompletedAt.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}
