package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"diarias/internal/amqp"
	"diarias/internal/core"
	"diarias/internal/storage"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (n *recordingNotifier) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) reasons() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.Reason
	}
	return out
}

type failingStore struct {
	storage.MemoryStore
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, s core.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, s)
}

func newService(t *testing.T, store storage.SnapshotStore, n Notifier) *LedgerService {
	t.Helper()
	svc, err := NewLedgerService(decimal.NewFromInt(250), store, n)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.SetClock(func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) })
	return svc
}

func TestLoadMissingSnapshotStartsEmpty(t *testing.T) {
	svc := newService(t, storage.NewMemoryStore(), nil)
	found, err := svc.Load(context.Background())
	if err != nil || found {
		t.Fatalf("expected empty start, found=%v err=%v", found, err)
	}
	if k := svc.KPIs(); k.TotalEntries != 0 || !k.Balance.IsZero() {
		t.Fatalf("expected empty ledger, got %+v", k)
	}
}

func TestMutationsCommitAndNotify(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	n := &recordingNotifier{}
	svc := newService(t, store, n)

	if _, err := svc.AddDeposit(ctx, 5000, "Initial deposit"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := svc.AddWorkingDay(ctx, "2025-01-02", core.StatusPaid, ""); err != nil {
		t.Fatalf("add day: %v", err)
	}
	if removed, err := svc.RemoveWorkingDay(ctx, "2025-01-09"); err != nil || removed {
		t.Fatalf("remove missing: removed=%v err=%v", removed, err)
	}
	if _, err := svc.AddWorkingDay(ctx, "bad-date", "", ""); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	if store.Saves() != 2 {
		t.Fatalf("expected 2 saves, got %d", store.Saves())
	}
	reasons := n.reasons()
	if len(reasons) != 2 || reasons[0] != OpAddDeposit || reasons[1] != OpAddWorkingDay {
		t.Fatalf("unexpected notifications %v", reasons)
	}

	snap, _ := store.Load(ctx)
	if !snap.CreditBalance.Equal(decimal.NewFromInt(4750)) || len(snap.WorkingDays) != 1 {
		t.Fatalf("unexpected stored snapshot %+v", snap)
	}
	if last := n.msgs[1]; last.Balance != 4750 || last.WorkingDays != 1 || last.Deposits != 1 {
		t.Fatalf("unexpected message %+v", last)
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{saveErr: errors.New("disk full")}
	n := &recordingNotifier{}
	svc := newService(t, store, n)

	_, err := svc.AddWorkingDay(ctx, "2025-01-02", "", "")
	if err == nil {
		t.Fatalf("expected save error")
	}
	if k := svc.KPIs(); k.TotalEntries != 1 || !k.Balance.Equal(decimal.NewFromInt(-250)) {
		t.Fatalf("in-memory state should keep the mutation: %+v", k)
	}
	if len(n.reasons()) != 0 {
		t.Fatalf("should not notify when save fails")
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	svc := newService(t, storage.NewMemoryStore(), n)
	if _, err := svc.AddDeposit(context.Background(), 10, ""); err != nil {
		t.Fatalf("notifier error leaked: %v", err)
	}
}

func TestBatchCommitsOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newService(t, store, nil)
	err := svc.Batch(context.Background(), func(l *core.Ledger) error {
		for _, d := range []string{"2025-01-02", "2025-01-03", "2025-01-06"} {
			if _, err := l.AddWorkingDay(d, core.StatusPending, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if store.Saves() != 1 || svc.KPIs().TotalEntries != 3 {
		t.Fatalf("expected one save with 3 entries, got %d saves", store.Saves())
	}
}

func TestReloadReplacesState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	n := &recordingNotifier{}
	svc := newService(t, store, n)
	_, _ = svc.AddDeposit(ctx, 100, "")

	external := core.Snapshot{
		WorkingDays: map[string]core.SnapshotDay{
			"2025-01-02": {Status: "paid"},
			"2025-01-03": {Status: "pending"},
		},
		Deposits: []core.SnapshotDeposit{{
			Date:         "2025-01-01",
			Amount:       core.NewAmount(decimal.NewFromInt(1000)),
			BalanceAfter: core.NewAmount(decimal.NewFromInt(1000)),
		}},
		CreditBalance: core.NewAmount(decimal.NewFromInt(500)),
	}
	_ = store.Save(ctx, external)

	rep, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if rep.BalanceAdjusted() || rep.Entries != 2 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if k := svc.KPIs(); !k.Balance.Equal(decimal.NewFromInt(500)) || k.PaidEntries != 1 {
		t.Fatalf("unexpected state after reload %+v", k)
	}
	if r := n.reasons(); r[len(r)-1] != OpReload {
		t.Fatalf("expected reload notification, got %v", r)
	}
}

func TestLoadKeepsStoredRate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = store.Save(ctx, core.Snapshot{
		WorkingDays: map[string]core.SnapshotDay{"2025-01-02": {Status: "paid"}},
		DailyRate:   core.NewAmount(decimal.NewFromInt(300)),
	})
	svc := newService(t, store, nil)
	found, err := svc.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if k := svc.KPIs(); !k.DailyRate.Equal(decimal.NewFromInt(300)) || !k.Balance.Equal(decimal.NewFromInt(-300)) {
		t.Fatalf("unexpected kpis %+v", k)
	}
}

func TestReloadWithDifferentRateAdvancesRevision(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store, nil)
	if _, err := svc.AddWorkingDay(ctx, "2025-01-02", core.StatusPending, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := svc.Revision()

	_ = store.Save(ctx, core.Snapshot{
		WorkingDays: map[string]core.SnapshotDay{"2025-01-03": {Status: "paid"}},
		DailyRate:   core.NewAmount(decimal.NewFromInt(300)),
	})
	if _, err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if svc.Revision() <= before {
		t.Fatalf("revision went from %d to %d; it must keep increasing", before, svc.Revision())
	}
	if k := svc.KPIs(); !k.DailyRate.Equal(decimal.NewFromInt(300)) || k.TotalEntries != 1 {
		t.Fatalf("unexpected kpis %+v", k)
	}
}

func TestRevisionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := newService(t, store, nil)
	for i := 0; i < 3; i++ {
		if _, err := first.AddDeposit(ctx, 100, ""); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}
	seen := first.Revision()

	// A new process on the same store must not reuse revisions the first
	// one handed out, even after fewer mutations.
	second := newService(t, store, nil)
	if _, err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if second.Revision() <= seen {
		t.Fatalf("revision after load = %d, want more than %d", second.Revision(), seen)
	}
	_, _ = second.AddWorkingDay(ctx, "2025-01-02", core.StatusPending, "")
	_, _ = second.AddWorkingDay(ctx, "2025-01-03", core.StatusPending, "")
	if second.Revision() <= seen+2 {
		t.Fatalf("revision = %d, want more than %d", second.Revision(), seen+2)
	}
	if snap, _ := store.Load(ctx); snap.Revision != second.Revision() {
		t.Fatalf("stored revision = %d, want %d", snap.Revision, second.Revision())
	}
}

func TestExactDepositSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	amount, err := core.ParseAmount("12345678901234,567")
	if err != nil {
		t.Fatal(err)
	}
	first := newService(t, storage.NewFileStore(path), nil)
	if _, err := first.AddDepositAmount(ctx, amount, "large"); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	second := newService(t, storage.NewFileStore(path), nil)
	if _, err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := second.KPIs().Balance; !got.Equal(amount) {
		t.Fatalf("balance after restart = %s, want %s", got, amount)
	}
}

func TestSeedSample(t *testing.T) {
	l, _ := core.NewLedger(decimal.NewFromInt(250))
	// January 2025: the 1st is a Wednesday, so days 1-14 hold 10 weekdays.
	if err := SeedSample(l, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if l.Len() != 10 || !l.TotalDeposited().Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("unexpected seed: %d days, %s deposited", l.Len(), l.TotalDeposited())
	}
	if !l.Balance().Equal(decimal.NewFromInt(5500)) {
		t.Fatalf("unexpected balance %s", l.Balance())
	}
}
