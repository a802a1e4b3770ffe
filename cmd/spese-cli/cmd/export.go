package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spese/internal/ledger"
	"spese/internal/snapshot"
)

func (a *app) newExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as JSON or YAML",
		Long: `Export the ledger. JSON output is a valid snapshot and can be used to
seed another data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snapshot.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, s *ledger.Store) error {
				l, err := s.Transactions()
				if err != nil {
					return err
				}
				data, err := snapshot.Export(l, f)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions to %s\n", len(l), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, default stdout")
	return cmd
}
