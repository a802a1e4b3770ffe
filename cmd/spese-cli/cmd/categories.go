package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"spese/internal/core"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the accepted categories",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			def := core.DefaultCategory()
			for _, c := range core.Categories() {
				if c == def {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", c)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
		},
	}
}
