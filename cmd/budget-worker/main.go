// Command budget-worker consumes the budget change feed and records every
// field change in the SQLite audit database.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/store/sqlstore"
	"budget/internal/worker"
)

func main() {
	statsInterval := flag.Duration("stats-interval", 5*time.Minute, "how often counters are logged")
	flag.Parse()

	cfg, logger, err := cli.LoadConfig((*config.Config).ValidateWorker, os.Stdout)
	if err != nil {
		cli.Exit(logger, "Failed to load configuration", err)
	}
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting budget-worker", log.FieldOperation, log.OpStartup)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	audit, err := sqlstore.OpenSQLite(ctx, cfg.AuditDBPath)
	if err != nil {
		cli.Exit(logger, "Failed to open audit database", err)
	}
	defer audit.Close()
	logger.Info("Audit database ready", log.FieldPath, cfg.AuditDBPath)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Exit(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	w := worker.NewAuditWorker(audit, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeChanges(gctx, w.HandleChange)
	})
	g.Go(func() error {
		return w.ReportEvery(gctx, *statsInterval)
	})

	err = g.Wait()
	s := w.Stats()
	logger.Info("budget-worker stopped", log.FieldOperation, log.OpShutdown,
		"recorded", s.Recorded, "failed", s.Failed, "clears", s.Clears)
	if err != nil && !errors.Is(err, context.Canceled) {
		cli.Exit(logger, "Worker stopped with error", err)
	}
}
