package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spese/internal/core"
	"spese/internal/ledger"
)

func (a *app) newAddCmd() *cobra.Command {
	var title, amount, category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Long: `Add a transaction to the ledger. The category defaults to shopping.

Example:
  spese-cli add --title "Bus ticket" --amount 1,50 --category transport`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDraft(title, amount, category)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, s *ledger.Store) error {
				change, err := s.Add(ctx, d)
				if err != nil {
					return err
				}
				t := change.Transaction
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s (%s, %s)\n",
					t.ID, t.Title, core.FormatAmount(t.Amount), t.Category, t.DateLabel)
				return unsaved(change.SaveErr)
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "transaction title (required)")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "positive amount, e.g. 12.50 or 12,50 (required)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "one of shopping, food, transport, home, other")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// parseDraft validates raw flag values before the ledger is opened.
func parseDraft(title, amount, category string) (core.Draft, error) {
	d := core.Draft{Title: title, Category: core.DefaultCategory()}

	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.Draft{}, &core.ValidationError{Field: "amount", Err: err}
	}
	d.Amount = a

	if category != "" {
		c, err := core.ParseCategory(category)
		if err != nil {
			return core.Draft{}, err
		}
		d.Category = c
	}
	if err := d.Validate(); err != nil {
		return core.Draft{}, err
	}
	return d, nil
}
