package cmd

import (
	"github.com/spf13/cobra"
)

// newCheckCmd runs the "check" verb across services, exactly like
// start/stop/restart/status: it dispatches each service's check
// action (or the CHECK-kind dependency it declares on another
// service) through the same call_services path, so `milkcheck check`
// exercises the engine rather than only confirming the configuration
// parsed.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [service...]",
		Short: "Run the check action across services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(cmd, "check", args)
		},
	}
}
