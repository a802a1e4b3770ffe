package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spese/internal/core"
	"spese/internal/ledger"
)

func (a *app) newSummaryCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show total, weekly and monthly spending",
		Long: `Show the total balance, the last seven days, the current calendar month
and the top category. --at moves the reference instant (RFC 3339).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: want RFC 3339, e.g. 2025-03-15T12:00:00Z", at)
				}
				ref = t
			}
			return a.withStore(cmd, func(ctx context.Context, s *ledger.Store) error {
				now := s.Now()
				if ref.IsZero() {
					ref = now
				} else {
					ref = ref.In(now.Location())
				}
				sum, err := s.Summary(ref)
				if err != nil {
					return err
				}
				printSummary(cmd, sum)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference instant, default now")
	return cmd
}

func printSummary(cmd *cobra.Command, sum core.Summary) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Transactions:\t%d\n", sum.Count)
	fmt.Fprintf(tw, "Total:\t%s\n", core.FormatAmount(sum.TotalBalance))
	fmt.Fprintf(tw, "Last 7 days:\t%s\n", core.FormatAmount(sum.WeeklyTotal))
	fmt.Fprintf(tw, "This month:\t%s\n", core.FormatAmount(sum.MonthlyTotal))
	if sum.Top != nil {
		fmt.Fprintf(tw, "Top category:\t%s (%s)\n", sum.Top.Category, core.FormatAmount(sum.Top.Amount))
	} else {
		fmt.Fprintf(tw, "Top category:\t-\n")
	}
	for _, ca := range sum.ByCategory {
		fmt.Fprintf(tw, "  %s\t%s\n", ca.Category, core.FormatAmount(ca.Amount))
	}
	_ = tw.Flush()
}
