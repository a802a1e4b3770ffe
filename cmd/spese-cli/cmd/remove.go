package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spese/internal/ledger"
)

func (a *app) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a transaction by id",
		Long: `Remove a transaction by id. An unknown id leaves the ledger unchanged
and is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withStore(cmd, func(ctx context.Context, s *ledger.Store) error {
				change, err := s.Remove(ctx, id)
				if err != nil {
					return err
				}
				if change.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s: %s\n", id, change.Transaction.Title)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "No transaction with id %s\n", id)
				}
				return unsaved(change.SaveErr)
			})
		},
	}
}
