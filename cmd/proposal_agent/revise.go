package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/revision"
	"github.com/jonathan/proposal-writer/internal/types"
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Revise an existing proposal",
	Long: `Apply one or more revision instructions, in order, to a proposal read from
--in. Each instruction sees the result of the previous one. A failed
instruction leaves the proposal unchanged and the next one is still applied.`,
	RunE: runRevise,
}

var (
	reviseIn           string
	reviseInstructions []string
	reviseOut          string
)

func init() {
	reviseCmd.Flags().StringVar(&reviseIn, "in", "", "Path to the current proposal text")
	reviseCmd.Flags().StringArrayVarP(&reviseInstructions, "instruction", "i", nil, "Revision instruction (repeatable)")
	reviseCmd.Flags().StringVarP(&reviseOut, "out", "o", "", "Output file (stdout when empty)")
	_ = reviseCmd.MarkFlagRequired("in")
	_ = reviseCmd.MarkFlagRequired("instruction")
	rootCmd.AddCommand(reviseCmd)
}

func runRevise(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	current, err := os.ReadFile(reviseIn)
	if err != nil {
		return fmt.Errorf("failed to read proposal: %w", err)
	}

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	session := revision.NewSession(a.reviser, types.Proposal{Text: string(current)})
	failed := 0
	for _, instruction := range reviseInstructions {
		if _, err := session.Apply(ctx, instruction); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "instruction %q failed: %v\n", instruction, err)
			failed++
		}
	}

	if a.cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintTranscript(session.Transcript())
	}

	if err := writeProposal(cmd, session.Proposal(), reviseOut, false); err != nil {
		return err
	}
	if failed == len(reviseInstructions) {
		return fmt.Errorf("no revision could be applied")
	}
	return nil
}
