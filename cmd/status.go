package cmd

import (
	"github.com/spf13/cobra"
)

// newStatusCmd runs the diagnostic "status" verb through the same
// call_services path as every other verb: each service's status action
// runs, and a service that defines none resolves Done instead of
// failing (see diagnosticVerbs in internal/engine).
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [service...]",
		Short: "Run the status action across services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(cmd, "status", args)
		},
	}
}
