package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"diarias/internal/amqp"
	"diarias/internal/backend"
	"diarias/internal/cli"
	applog "diarias/internal/log"
	"diarias/internal/report"
	"diarias/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap()
	if err != nil {
		applog.FromContext(context.Background()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting diarias-worker")

	if !cfg.UsesAMQP() {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	stores, err := factory.CreateStore(ctx, bc)
	if err != nil {
		logger.Error("Failed to open snapshot store", "error", err, "backend", bc.Store)
		os.Exit(1)
	}
	if stores.Cleanup != nil {
		defer stores.Cleanup()
	}

	writer, err := factory.CreateWriter(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize report writer", "error", err, "backend", bc.Export)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(stores.Store, writer, decimal.NewFromFloat(cfg.DailyRate), report.Options{Title: cfg.ReportTitle})

	// Catch up on changes published while the worker was down.
	logger.Info("Performing startup export")
	if _, err := exporter.Export(ctx, "startup"); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerChanged(gctx, exporter.HandleLedgerChanged)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if _, err := exporter.Export(gctx, "periodic"); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		amqpClient.Close()
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
