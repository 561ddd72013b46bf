package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newValidateCmd only confirms the configuration directory parses and
// wires cleanly: PersistentPreRunE has already loaded and built the
// graph by the time RunE runs, so reaching RunE at all means success.
// It never dispatches anything, unlike `check`.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without running any action",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %d service(s)/group(s)\n", len(reg.Names()))
			return nil
		},
	}
}
