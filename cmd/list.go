package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mstrings "github.com/cea-hpc/milkcheck/pkg/strings"
)

type describable interface {
	Description() string
}

func newListCmd() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every service and group declared in the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range reg.SortedNames() {
				if !long {
					fmt.Fprintln(cmd.OutOrStdout(), name)
					continue
				}
				desc := ""
				if e, err := reg.Get(name); err == nil {
					if d, ok := e.(describable); ok {
						desc = d.Description()
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", name, mstrings.TruncateDescription(desc, mstrings.DefaultDescriptionMaxLen))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show each service's description")
	return cmd
}
