package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"diarias/internal/amqp"
	"diarias/internal/backend"
	"diarias/internal/report"
	"diarias/internal/services"
	"diarias/internal/worker"
)

// ledgerApp is the wiring shared by every command: the snapshot store, the
// loaded ledger service and, when configured, the broker client.
type ledgerApp struct {
	factory backend.Factory
	backend backend.Config
	stores  *backend.StoreResult
	svc     *services.LedgerService
	broker  *amqp.Client
	rate    decimal.Decimal
}

// openLedger creates the store and loads the ledger from it. When AMQP is
// configured, committed changes are published so the worker can export.
func openLedger(ctx context.Context) (*ledgerApp, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger.Logger)
	stores, err := factory.CreateStore(ctx, bc)
	if err != nil {
		return nil, err
	}

	a := &ledgerApp{
		factory: factory,
		backend: bc,
		stores:  stores,
		rate:    decimal.NewFromFloat(cfg.DailyRate),
	}

	a.svc, err = services.NewLedgerService(a.rate, stores.Store, nil)
	if err != nil {
		a.Close()
		return nil, err
	}
	found, err := a.svc.Load(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if !found {
		logger.Debug("No stored ledger yet, starting empty")
	}

	if cfg.UsesAMQP() {
		a.broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
		a.svc.SetNotifier(a.broker)
	}
	return a, nil
}

// exportWorker builds the report exporter for the configured backend.
func (a *ledgerApp) exportWorker(ctx context.Context) (*worker.ExportWorker, error) {
	writer, err := a.factory.CreateWriter(ctx, a.backend)
	if err != nil {
		return nil, err
	}
	return worker.NewExportWorker(a.stores.Store, writer, a.rate, report.Options{Title: cfg.ReportTitle}), nil
}

// Close releases the broker connection and the store.
func (a *ledgerApp) Close() error {
	var errs []error
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
	}
	if a.stores != nil && a.stores.Cleanup != nil {
		if err := a.stores.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// withLedger opens the ledger, runs fn and closes it.
func withLedger(ctx context.Context, fn func(a *ledgerApp) error) error {
	a, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("Cleanup failed", "error", cerr)
		}
	}()
	return fn(a)
}
