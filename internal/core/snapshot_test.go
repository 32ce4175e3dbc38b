package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src := newTestLedger(t)
	_, _ = src.AddDeposit(5000, "Initial deposit")
	_, _ = src.AddWorkingDay("2025-01-02", StatusPaid, "site visit")
	_, _ = src.AddWorkingDay("2025-01-03", StatusPending, "")
	_, _ = src.AssignProject("2025-01-03", "Bridge")
	_, _ = src.AddDeposit(0.3, "coins")
	_, _ = src.RemoveWorkingDay("2025-01-02")

	raw, err := json.Marshal(src.Export())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	dst := newTestLedger(t)
	rep, err := dst.Import(snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.BalanceAdjusted() {
		t.Fatalf("round trip should not adjust balance: %+v", rep)
	}
	if !dst.Balance().Equal(src.Balance()) || dst.Len() != src.Len() {
		t.Fatalf("balance %s/%s entries %d/%d", dst.Balance(), src.Balance(), dst.Len(), src.Len())
	}
	if got, want := contentJSON(t, dst.Export()), contentJSON(t, src.Export()); got != want {
		t.Fatalf("snapshots differ:\n%s\n%s", got, want)
	}
}

func TestSnapshotKeepsExactAmounts(t *testing.T) {
	amount, err := ParseAmount("12345678901234.567")
	if err != nil {
		t.Fatal(err)
	}
	src := newTestLedger(t)
	src.AddDepositDecimal(amount, "large")
	_, _ = src.AddWorkingDay("2025-01-02", StatusPending, "")

	raw, err := json.Marshal(src.Export())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"amount":12345678901234.567`) {
		t.Fatalf("amount should be written as an exact number: %s", raw)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	dst := newTestLedger(t)
	rep, err := dst.Import(snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.BalanceAdjusted() {
		t.Fatalf("round trip should not adjust balance: %+v", rep)
	}
	want := decimal.RequireFromString("12345678901234.567").Sub(decimal.NewFromInt(250))
	if !dst.Balance().Equal(want) || !dst.Deposits()[0].Amount.Equal(amount) {
		t.Fatalf("balance %s amount %s, want %s and %s", dst.Balance(), dst.Deposits()[0].Amount, want, amount)
	}
}

func TestSnapshotReadsQuotedAmounts(t *testing.T) {
	raw := `{"workingDays":{},"deposits":[{"date":"2025-01-01","amount":"10.005","balanceAfter":"10.005"}],"creditBalance":"10.005","dailyRate":250}`
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	l := newTestLedger(t)
	if _, err := l.Import(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !l.Balance().Equal(decimal.RequireFromString("10.005")) {
		t.Fatalf("balance = %s, want 10.005", l.Balance())
	}
}

func TestImportContinuesRevision(t *testing.T) {
	src := newTestLedger(t)
	_, _ = src.AddDeposit(100, "")
	_, _ = src.AddDeposit(100, "")
	_, _ = src.AddDeposit(100, "")
	snap := src.Export()
	if snap.Revision != src.Revision() {
		t.Fatalf("snapshot revision = %d, want %d", snap.Revision, src.Revision())
	}

	dst := newTestLedger(t)
	if _, err := dst.Import(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if dst.Revision() <= src.Revision() {
		t.Fatalf("revision after import = %d, want more than %d", dst.Revision(), src.Revision())
	}

	// A ledger already ahead of the snapshot keeps moving forward.
	ahead, err := NewLedger(decimal.NewFromInt(250), WithRevision(50))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ahead.Import(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if ahead.Revision() != 51 {
		t.Fatalf("revision = %d, want 51", ahead.Revision())
	}
}

// contentJSON renders s without its revision, which differs between a ledger
// and one imported from it.
func contentJSON(t *testing.T, s Snapshot) string {
	t.Helper()
	s.Revision = 0
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func TestImportRecomputesBalance(t *testing.T) {
	snap := Snapshot{
		WorkingDays: map[string]SnapshotDay{
			"2025-01-02": {Status: "paid", LegacyAddedAt: "2025-01-02T09:30:00.123456"},
			"2025-01-03": {Status: ""},
		},
		Deposits: []SnapshotDeposit{
			{Date: "2025-01-01T08:00:00.000001", Amount: amount("1000"), Description: "x", BalanceAfter: amount("1000")},
		},
		CreditBalance: amount("999"),
	}
	l := newTestLedger(t)
	rep, err := l.Import(snap)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !rep.BalanceAdjusted() || !l.Balance().Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected recomputed balance 500, got %s (%+v)", l.Balance(), rep)
	}
	e, _ := l.Entry(NewDate(2025, 1, 3))
	if e.Status != StatusPending {
		t.Fatalf("empty status should import as pending, got %q", e.Status)
	}
	e, _ = l.Entry(NewDate(2025, 1, 2))
	if e.AddedAt.Hour() != 9 {
		t.Fatalf("legacy added_at not read: %v", e.AddedAt)
	}
	if l.Deposits()[0].ID != "dep-1" {
		t.Fatalf("missing deposit id should be generated, got %q", l.Deposits()[0].ID)
	}
}

func TestImportRejectsInvalidAndKeepsState(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.AddDeposit(100, "")
	before := contentJSON(t, l.Export())
	rev := l.Revision()

	bad := []Snapshot{
		{WorkingDays: map[string]SnapshotDay{"2025-02-30": {Status: "paid"}}},
		{WorkingDays: map[string]SnapshotDay{"2025-02-03": {Status: "late"}}},
		{Deposits: []SnapshotDeposit{{Date: "yesterday", Amount: amount("1")}}},
		{DailyRate: amount("300")},
	}
	for i, s := range bad {
		if _, err := l.Import(s); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	if _, err := l.Import(Snapshot{DailyRate: amount("300")}); !errors.Is(err, ErrRateMismatch) {
		t.Fatalf("expected ErrRateMismatch, got %v", err)
	}
	if contentJSON(t, l.Export()) != before || l.Revision() != rev {
		t.Fatalf("failed import changed state")
	}
}

func TestRestoreUsesSnapshotRate(t *testing.T) {
	snap := Snapshot{
		WorkingDays: map[string]SnapshotDay{"2025-01-02": {Status: "paid"}},
		DailyRate:   amount("300"),
	}
	l, _, err := Restore(snap, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !l.Rate().Equal(decimal.NewFromInt(300)) || !l.Balance().Equal(decimal.NewFromInt(-300)) {
		t.Fatalf("unexpected rate %s balance %s", l.Rate(), l.Balance())
	}
}

func amount(s string) Amount {
	return NewAmount(decimal.RequireFromString(s))
}
