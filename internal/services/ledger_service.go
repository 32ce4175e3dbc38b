package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"diarias/internal/amqp"
	"diarias/internal/core"
	"diarias/internal/metrics"
	"diarias/internal/report"
	"diarias/internal/storage"
)

// Notifier is told about every committed ledger state. Implementations
// publish to AMQP or export in process.
type Notifier interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Operation names used for logs, metrics and change reasons.
const (
	OpAddWorkingDay    = "add_working_day"
	OpRemoveWorkingDay = "remove_working_day"
	OpSetStatus        = "set_status"
	OpAssignProject    = "assign_project"
	OpAddDeposit       = "add_deposit"
	OpBatch            = "batch"
	OpReload           = "reload"
	OpSeed             = "seed"
)

// LedgerService owns the ledger and serializes access to it. Every mutation
// is committed: the snapshot is saved to the store and the notifier is told.
// The in-memory ledger stays authoritative when saving fails.
type LedgerService struct {
	mu       sync.Mutex
	ledger   *core.Ledger
	rate     decimal.Decimal
	store    storage.SnapshotStore
	notifier Notifier
	now      func() time.Time
	opts     []core.Option
}

// NewLedgerService creates a service with an empty ledger. Call Load to read
// the stored state. notifier may be nil.
func NewLedgerService(rate decimal.Decimal, store storage.SnapshotStore, notifier Notifier, opts ...core.Option) (*LedgerService, error) {
	l, err := core.NewLedger(rate, opts...)
	if err != nil {
		return nil, err
	}
	return &LedgerService{
		ledger:   l,
		rate:     rate,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		opts:     opts,
	}, nil
}

// SetNotifier replaces the notifier. Used when the notifier depends on the
// service itself.
func (s *LedgerService) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// SetClock overrides the clock used for KPIs and reports.
func (s *LedgerService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Load reads the stored snapshot. It reports false, with no error, when
// nothing has been stored yet; the ledger then stays empty.
func (s *LedgerService) Load(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "No stored ledger found, starting empty")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if _, err := s.replace(ctx, snap); err != nil {
		return false, err
	}
	s.updateGauges()
	return true, nil
}

// Reload replaces the in-memory state with the stored snapshot after an
// external edit and notifies downstream exporters.
func (s *LedgerService) Reload(ctx context.Context) (core.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		metrics.Reloads.WithLabelValues("error").Inc()
		return core.ImportReport{}, fmt.Errorf("load snapshot: %w", err)
	}
	rep, err := s.replace(ctx, snap)
	if err != nil {
		metrics.Reloads.WithLabelValues("error").Inc()
		return core.ImportReport{}, err
	}
	metrics.Reloads.WithLabelValues("ok").Inc()
	s.updateGauges()
	s.notify(ctx, OpReload)
	return rep, nil
}

// replace imports snap, rebuilding the ledger when the stored rate differs
// from the configured one.
func (s *LedgerService) replace(ctx context.Context, snap core.Snapshot) (core.ImportReport, error) {
	rep, err := s.ledger.Import(snap)
	if errors.Is(err, core.ErrRateMismatch) {
		opts := append(s.opts[:len(s.opts):len(s.opts)], core.WithRevision(s.ledger.Revision()))
		l, r, rerr := core.Restore(snap, s.rate, opts...)
		if rerr != nil {
			return core.ImportReport{}, fmt.Errorf("restore snapshot: %w", rerr)
		}
		slog.WarnContext(ctx, "Stored daily rate differs from configuration, keeping stored rate",
			"stored", l.Rate().String(),
			"configured", s.rate.String())
		s.ledger, rep = l, r
	} else if err != nil {
		return core.ImportReport{}, fmt.Errorf("import snapshot: %w", err)
	}
	if rep.BalanceAdjusted() {
		slog.WarnContext(ctx, "Stored balance disagreed with ledger contents",
			"stored", rep.StoredBalance.String(),
			"computed", rep.ComputedBalance.String())
	}
	slog.InfoContext(ctx, "Ledger loaded",
		"working_days", rep.Entries,
		"deposits", rep.Deposits,
		"balance", rep.ComputedBalance.String())
	return rep, nil
}

// AddWorkingDay records a working day; see core.Ledger.AddWorkingDay.
func (s *LedgerService) AddWorkingDay(ctx context.Context, date string, status core.Status, notes string) (bool, error) {
	var inserted bool
	err := s.mutate(ctx, OpAddWorkingDay, func(l *core.Ledger) error {
		var err error
		inserted, err = l.AddWorkingDay(date, status, notes)
		return err
	})
	return inserted, err
}

// RemoveWorkingDay deletes a working day. A missing date reports false and
// commits nothing.
func (s *LedgerService) RemoveWorkingDay(ctx context.Context, date string) (bool, error) {
	var removed bool
	err := s.mutate(ctx, OpRemoveWorkingDay, func(l *core.Ledger) error {
		var err error
		removed, err = l.RemoveWorkingDay(date)
		return err
	})
	return removed, err
}

func (s *LedgerService) SetStatus(ctx context.Context, date string, status core.Status) (bool, error) {
	var found bool
	err := s.mutate(ctx, OpSetStatus, func(l *core.Ledger) error {
		var err error
		found, err = l.SetStatus(date, status)
		return err
	})
	return found, err
}

func (s *LedgerService) AssignProject(ctx context.Context, date, project string) (bool, error) {
	var found bool
	err := s.mutate(ctx, OpAssignProject, func(l *core.Ledger) error {
		var err error
		found, err = l.AssignProject(date, project)
		return err
	})
	return found, err
}

func (s *LedgerService) AddDeposit(ctx context.Context, amount float64, description string) (core.Deposit, error) {
	var dep core.Deposit
	err := s.mutate(ctx, OpAddDeposit, func(l *core.Ledger) error {
		var err error
		dep, err = l.AddDeposit(amount, description)
		return err
	})
	return dep, err
}

// AddDepositAmount records a deposit of an exact amount, typically one
// parsed with core.ParseAmount.
func (s *LedgerService) AddDepositAmount(ctx context.Context, amount decimal.Decimal, description string) (core.Deposit, error) {
	var dep core.Deposit
	err := s.mutate(ctx, OpAddDeposit, func(l *core.Ledger) error {
		dep = l.AddDepositDecimal(amount, description)
		return nil
	})
	return dep, err
}

// Batch applies several mutations and commits once. If fn fails, whatever
// it already applied stays in memory and is still committed.
func (s *LedgerService) Batch(ctx context.Context, fn func(l *core.Ledger) error) error {
	return s.mutate(ctx, OpBatch, fn)
}

// Seed adds the demonstration data: two deposits and every weekday among the
// first fourteen days of now's month.
func (s *LedgerService) Seed(ctx context.Context, now time.Time) error {
	return s.mutate(ctx, OpSeed, func(l *core.Ledger) error {
		return SeedSample(l, now)
	})
}

// SeedSample applies the demonstration data to l.
func SeedSample(l *core.Ledger, now time.Time) error {
	if _, err := l.AddDeposit(5000, "Initial deposit"); err != nil {
		return err
	}
	if _, err := l.AddDeposit(3000, "Additional deposit"); err != nil {
		return err
	}
	for day := 1; day <= 14; day++ {
		d := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if _, err := l.AddWorkingDay(d.Format(core.DateLayout), core.StatusPending, ""); err != nil {
			return err
		}
	}
	return nil
}

// mutate runs fn under the lock and commits when the ledger changed.
func (s *LedgerService) mutate(ctx context.Context, op string, fn func(l *core.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.ledger.Revision()
	err := fn(s.ledger)
	changed := s.ledger.Revision() != before
	metrics.Mutations.WithLabelValues(op, metrics.Result(err)).Inc()

	if !changed {
		return err
	}
	if cerr := s.commit(ctx, op); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// commit saves the snapshot and notifies. Notification failures are logged
// only; the state is already persisted.
func (s *LedgerService) commit(ctx context.Context, op string) error {
	s.updateGauges()
	err := s.store.Save(ctx, s.ledger.Export())
	metrics.Commits.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save ledger snapshot", "operation", op, "error", err)
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.notify(ctx, op)
	return nil
}

func (s *LedgerService) notify(ctx context.Context, reason string) {
	if s.notifier == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(
		s.ledger.Revision(),
		reason,
		s.ledger.Len(),
		len(s.ledger.Deposits()),
		s.ledger.Balance().InexactFloat64(),
	)
	if err := s.notifier.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change", "reason", reason, "error", err)
	}
}

func (s *LedgerService) updateGauges() {
	k := s.ledger.KPIs(s.now())
	metrics.Balance.Set(k.Balance.InexactFloat64())
	metrics.WorkingDays.WithLabelValues(string(core.StatusPaid)).Set(float64(k.PaidEntries))
	metrics.WorkingDays.WithLabelValues(string(core.StatusPending)).Set(float64(k.PendingEntries))
}

// Read runs fn with the ledger under the lock. fn must not keep l.
func (s *LedgerService) Read(fn func(l *core.Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ledger)
}

// Views returns every derived view of the current state.
func (s *LedgerService) Views() report.Views {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Collect(s.ledger, s.now())
}

// KPIs returns the KPI summary for the current time.
func (s *LedgerService) KPIs() core.KPIs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.KPIs(s.now())
}

// Revision identifies the current state; it changes on every mutation.
func (s *LedgerService) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Revision()
}

// Now returns the service clock's current time.
func (s *LedgerService) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}
