package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"diarias/internal/amqp"
	"diarias/internal/core"
	applog "diarias/internal/log"
	"diarias/internal/metrics"
	"diarias/internal/report"
	"diarias/internal/sheets"
	"diarias/internal/storage"
)

// ExportWorker rebuilds the report from the stored snapshot and writes it
// through a ReportWriter.
type ExportWorker struct {
	store  storage.SnapshotStore
	writer sheets.ReportWriter
	rate   decimal.Decimal
	opts   report.Options
	now    func() time.Time
	log    *applog.StructuredLogger
}

func NewExportWorker(store storage.SnapshotStore, writer sheets.ReportWriter, rate decimal.Decimal, opts report.Options) *ExportWorker {
	return &ExportWorker{
		store:  store,
		writer: writer,
		rate:   rate,
		opts:   opts,
		now:    time.Now,
		log:    applog.NewStructuredLogger(applog.FromContext(context.Background()).WithComponent(applog.ComponentExport)),
	}
}

// HandleLedgerChanged processes a single change notification from AMQP.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"message_id", msg.ID,
		"revision", msg.Revision,
		"reason", msg.Reason)

	if _, err := w.Export(ctx, "notification"); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Reason, err)
	}
	return nil
}

// Export writes the report for the stored snapshot. A store with no
// snapshot exports an empty ledger.
func (w *ExportWorker) Export(ctx context.Context, trigger string) (string, error) {
	l, err := w.loadLedger(ctx)
	if err != nil {
		metrics.Exports.WithLabelValues(trigger, "error").Inc()
		return "", err
	}
	return w.ExportViews(ctx, report.Collect(l, w.now()), trigger)
}

// ExportViews writes the report for already collected views.
func (w *ExportWorker) ExportViews(ctx context.Context, v report.Views, trigger string) (string, error) {
	start := time.Now()
	ref, err := w.writer.WriteReport(ctx, report.Build(v, w.opts))
	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	metrics.Exports.WithLabelValues(trigger, metrics.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	w.log.LogExport(ctx, trigger, ref, time.Since(start).Milliseconds())
	return ref, nil
}

func (w *ExportWorker) loadLedger(ctx context.Context) (*core.Ledger, error) {
	snap, err := w.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return core.NewLedger(w.rate)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	l, rep, err := core.Restore(snap, w.rate)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	if rep.BalanceAdjusted() {
		slog.WarnContext(ctx, "Stored balance disagreed with ledger contents",
			"stored", rep.StoredBalance.String(),
			"computed", rep.ComputedBalance.String())
	}
	return l, nil
}
