package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd prints the CLI's own build-time-injected version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the milkcheck version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "milkcheck version %s\n", rootCmd.Version)
		},
	}
}
