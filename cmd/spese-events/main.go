// Command spese-events tails the ledger change events published by the
// server and logs one line per committed mutation.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"spese/internal/amqp"
	"spese/internal/cli"
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

	if !cfg.EventsEnabled() {
		logger.Error("No AMQP URL configured, set SPESE_AMQP_URL")
		os.Exit(1)
	}

	logger.Info("Starting spese-events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	if err := amqpClient.Consume(ctx, eventHandler(logger.WithComponent(log.ComponentLedger))); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("spese-events stopped")
}

// eventHandler logs each delivered event. It never fails, so nothing is
// requeued.
func eventHandler(logger *log.Logger) func(context.Context, *amqp.LedgerEvent) error {
	return func(ctx context.Context, e *amqp.LedgerEvent) error {
		fields := log.NewFields().
			WithTransaction(e.Transaction.ID, e.Transaction.Title, e.Transaction.Amount.String(), e.Transaction.Category)
		fields["type"] = e.Type
		fields["occurred_at"] = e.OccurredAt
		logger.InfoContext(ctx, "Ledger event", fields.ToSlice()...)
		return nil
	}
}
