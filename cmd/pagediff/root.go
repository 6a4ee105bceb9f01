package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagediff.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagediff",
		Short: "Compare two revisions of a document page by page",
		Long: `pagediff compares two revisions of a document.

Pages are paired by a fused similarity of visual and textual signals, so
reordered, inserted and deleted pages are recognized. Each pair is then
differenced for text, images, fonts, styling and page geometry, and every
difference is ranked by severity.

Inputs are PDF files or JSON document models. Rendered page images can be
supplied to enable the visual signals.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
