// Package cli provides common initialization utilities.
// This package consolidates repeated setup across cmd/spese, cmd/spese-cli
// and cmd/spese-events.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spese/internal/amqp"
	"spese/internal/backend"
	"spese/internal/clock"
	"spese/internal/config"
	"spese/internal/ledger"
	"spese/internal/log"
)

// SetupLogger builds the application logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LedgerOptions adjusts how OpenLedger builds the store.
type LedgerOptions struct {
	// StartupDelay overrides cfg.StartupDelay when non-nil.
	StartupDelay *time.Duration
	// DisableEvents skips the AMQP notifier even when it is configured.
	DisableEvents bool
	// Clock overrides the wall clock.
	Clock clock.Clock
}

// Ledger is a store together with the resources it depends on.
type Ledger struct {
	Store   *ledger.Store
	backend *backend.BackendResult
	events  *amqp.Client
}

// OpenLedger creates the configured snapshot backend, the date formatter and
// the optional change notifier, and returns a store that still has to be
// opened. The store's clock reports time in the configured timezone. A broker that cannot be reached only disables notifications.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, opts LedgerOptions) (*Ledger, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	formatter, err := clock.NewLocaleFormatter(cfg.DateLayout, cfg.DateLocale, cfg.Timezone)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("date formatter: %w", err)
	}

	base := opts.Clock
	if base == nil {
		base = clock.System{}
	}

	l := &Ledger{backend: res}
	storeOpts := ledger.Options{
		Key:          cfg.SnapshotKey,
		Clock:        clock.Zoned{Clock: base, Location: formatter.Location},
		Formatter:    formatter,
		StartupDelay: cfg.StartupDelay,
		Logger:       logger,
	}
	if opts.StartupDelay != nil {
		storeOpts.StartupDelay = *opts.StartupDelay
	}

	if cfg.EventsEnabled() && !opts.DisableEvents {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "Change events disabled, broker unreachable",
				log.FieldError, err.Error())
		} else {
			l.events = client
			storeOpts.Notifier = client
		}
	}

	l.Store = ledger.New(res.Backend, storeOpts)
	return l, nil
}

// Close releases the notifier and the backend.
func (l *Ledger) Close() error {
	var errs []error
	if l.events != nil {
		errs = append(errs, l.events.Close())
	}
	errs = append(errs, l.backend.Close())
	return errors.Join(errs...)
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
// The returned cancel func also releases the signal handler.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
