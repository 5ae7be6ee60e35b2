package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxwell/treasury-flow/internal/cli"
	"github.com/fluxwell/treasury-flow/internal/ingest"
	"github.com/fluxwell/treasury-flow/internal/model"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file]",
		Short: "Start a workflow from a JSON input document",
		Long: `Reads an input document of normalized records, constraints, and
investment preferences, runs risk assessment, builds the payment
proposal, and suspends the workflow at its first approval gate.

Reads from stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			input, err := ingest.Decode(in)
			if err != nil {
				return err
			}

			eng, store, err := initEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			state, err := eng.Ingest(cmd.Context(), input.Records, input.Constraints, input.Preferences)
			if err != nil {
				return err
			}

			fmt.Printf("Workflow %s started, stage %s\n", state.ID, state.Stage)
			fmt.Print(cli.RenderProposal(state.PaymentProposal))
			if state.Stage == model.StageAwaitingPaymentApproval {
				fmt.Print(cli.RenderCheckpoint(state.PaymentCheckpoint))
			}
			return nil
		},
	}
}
