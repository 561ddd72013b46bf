package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cea-hpc/milkcheck/internal/engine"
	"github.com/cea-hpc/milkcheck/internal/render"
)

// newGraphCmd prints the resolved dependency graph rooted at the
// given services, or every registered top-level name if none are
// given. It never dispatches anything: it only walks the edges the
// registry already wired during loadEngine.
func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [service...]",
		Short: "Print the resolved dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = reg.Names()
			}

			roots := make([]engine.Entity, 0, len(names))
			for _, name := range names {
				e, err := reg.Get(name)
				if err != nil {
					return err
				}
				roots = append(roots, e)
			}

			render.Graph(cmd.OutOrStdout(), roots)
			return nil
		},
	}
}
