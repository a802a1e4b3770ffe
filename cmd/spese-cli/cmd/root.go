// Package cmd provides the CLI commands for spese-cli.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spese/internal/cli"
	"spese/internal/ledger"
	"spese/internal/log"
)

// Options are the global flags handed to an Opener.
type Options struct {
	ConfigFile string
	Debug      bool
}

// Opener returns a loaded ledger store and a func releasing it.
type Opener func(ctx context.Context, opts Options) (*ledger.Store, func() error, error)

type app struct {
	open Opener
	opts Options
}

// NewRootCmd builds the command tree. open is called once per command that
// touches the ledger.
func NewRootCmd(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "spese-cli",
		Short: "Record and review personal expenses",
		Long: `spese-cli reads and changes the same expense ledger the spese server
serves, using the same configuration and storage backend.

Example:
  spese-cli add --title "Groceries" --amount 23.40 --category food
  spese-cli list
  spese-cli summary --at 2025-03-15T12:00:00Z
  spese-cli export --format yaml`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.opts.ConfigFile, "config", "", "config file (default: SPESE_CONFIG or none)")
	root.PersistentFlags().BoolVar(&a.opts.Debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.newAddCmd(),
		a.newListCmd(),
		a.newRemoveCmd(),
		a.newSummaryCmd(),
		a.newExportCmd(),
		newCategoriesCmd(),
	)
	return root
}

// Execute runs the CLI against the configured backend.
// This is called by main.main().
func Execute() error {
	return NewRootCmd(openConfigured).Execute()
}

// withStore opens the ledger, runs fn and releases the store.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *ledger.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, release, err := a.open(ctx, a.opts)
	if err != nil {
		return err
	}
	err = fn(ctx, store)
	if release != nil {
		err = errors.Join(err, release())
	}
	return err
}

// openConfigured loads configuration the same way the server does, with the
// startup delay forced to zero. Logs go to stderr at warn level unless
// --debug is set, so command output stays clean.
func openConfigured(ctx context.Context, opts Options) (*ledger.Store, func() error, error) {
	cli.LoadEnvFile()
	if opts.ConfigFile != "" {
		if err := os.Setenv("SPESE_CONFIG", opts.ConfigFile); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg.LogLevel = "warn"
	if opts.Debug {
		cfg.LogLevel = "debug"
	}
	logger, err := cli.SetupLogger(cfg, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.WithComponent(log.ComponentCLI)

	noDelay := time.Duration(0)
	l, err := cli.OpenLedger(ctx, cfg, logger, cli.LedgerOptions{StartupDelay: &noDelay})
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := l.Store.Open(ctx); err != nil {
		_ = l.Close()
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return l.Store, l.Close, nil
}

// unsaved turns a save failure into a command error. A one-shot process
// that could not write the snapshot has lost the change.
func unsaved(saveErr error) error {
	if saveErr == nil {
		return nil
	}
	return fmt.Errorf("change not saved: %w", saveErr)
}
