package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spese/internal/cli"
	apphttp "spese/internal/http"
	"spese/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := cli.SetupLogger(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	l, err := cli.OpenLedger(ctx, cfg, logger, cli.LedgerOptions{})
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err.Error(), log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Warn("Failed to release ledger resources", log.FieldError, err.Error())
		}
	}()

	srv := apphttp.NewServer(cfg.Addr(), l.Store, apphttp.Options{Logger: logger})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	// The server answers 503 until the first load completes.
	g.Go(func() error {
		if err := l.Store.Open(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("open ledger: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting spese server",
			"addr", cfg.Addr(),
			log.FieldBackend, cfg.DataBackend,
			"startup_delay", cfg.StartupDelay.String(),
			"events", cfg.EventsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve on %s: %w", cfg.Addr(), err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
