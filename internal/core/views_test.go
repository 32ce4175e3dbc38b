package core

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestViewsOnEmptyLedger(t *testing.T) {
	l := newTestLedger(t)
	if len(l.Days()) != 0 || len(l.DepositRows()) != 0 || len(l.MonthlyAnalysis()) != 0 ||
		len(l.CashFlow()) != 0 || len(l.Projects()) != 0 {
		t.Fatalf("expected empty views")
	}
	k := l.KPIs(fixedNow)
	if k.PaymentRate != 0 || k.AverageEntriesPerMonth != 0 || !k.ProjectedMonthlyCost.IsZero() {
		t.Fatalf("unexpected kpis on empty ledger: %+v", k)
	}
	if k.BalanceSign != BalancePositive || k.CreditDaysRemaining != 0 {
		t.Fatalf("zero balance should be positive with no credit days: %+v", k)
	}
}

func TestDaysCumulativeAndOrder(t *testing.T) {
	l := newTestLedger(t)
	for _, d := range []string{"2025-02-03", "2025-01-31", "2025-02-01"} {
		_, _ = l.AddWorkingDay(d, StatusPending, "")
	}
	rows := l.Days()
	want := []string{"2025-01-31", "2025-02-01", "2025-02-03"}
	for i, r := range rows {
		if r.Date.String() != want[i] {
			t.Fatalf("row %d: expected %s, got %s", i, want[i], r.Date)
		}
		if !r.Cumulative.Equal(decimal.NewFromInt(int64(250 * (i + 1)))) {
			t.Fatalf("row %d: cumulative %s", i, r.Cumulative)
		}
	}
	if rows[0].Month != "2025-01" || rows[0].Weekday != time.Friday {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
}

func TestMonthlyAnalysis(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.AddWorkingDay("2025-01-02", StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-03", StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-06", StatusPending, "")
	_, _ = l.AddWorkingDay("2024-12-30", StatusPending, "")

	rows := l.MonthlyAnalysis()
	if len(rows) != 2 || rows[0].Month != "2024-12" || rows[1].Month != "2025-01" {
		t.Fatalf("unexpected months %+v", rows)
	}
	jan := rows[1]
	if jan.Entries != 3 || jan.Paid != 2 || jan.Pending != 1 {
		t.Fatalf("unexpected counts %+v", jan)
	}
	if jan.PaymentRate != 66.67 || jan.WeeklyAverage != 0.69 {
		t.Fatalf("unexpected ratios rate=%v weekly=%v", jan.PaymentRate, jan.WeeklyAverage)
	}
	if !jan.PaidValue.Equal(decimal.NewFromInt(500)) || !jan.PendingValue.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected values %+v", jan)
	}
	if rows[0].PaymentRate != 0 {
		t.Fatalf("expected 0 payment rate, got %v", rows[0].PaymentRate)
	}
}

func TestCashFlowOrderingAndFinalBalance(t *testing.T) {
	clock := time.Date(2025, 1, 3, 18, 0, 0, 0, time.UTC)
	l, _ := NewLedger(decimal.NewFromInt(250), WithClock(func() time.Time { return clock }))

	_, _ = l.AddWorkingDay("2025-01-03", StatusPending, "")
	_, _ = l.AddWorkingDay("2025-01-02", StatusPaid, "")
	_, _ = l.AddDeposit(1000.1, "first")
	clock = clock.Add(24 * time.Hour)
	_, _ = l.AddDeposit(0.2, "")

	rows := l.CashFlow()
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	kinds := []FlowKind{FlowOut, FlowIn, FlowOut, FlowIn}
	for i, r := range rows {
		if r.Kind != kinds[i] {
			t.Fatalf("row %d: expected %s, got %s (%+v)", i, kinds[i], r.Kind, r)
		}
	}
	if rows[1].Description != "Deposit: first" || rows[3].Description != "Deposit" {
		t.Fatalf("unexpected descriptions %q %q", rows[1].Description, rows[3].Description)
	}
	if last := rows[len(rows)-1].Balance; !last.Equal(l.Balance()) {
		t.Fatalf("last running balance %s != ledger balance %s", last, l.Balance())
	}
	if !l.Balance().Equal(decimal.RequireFromString("500.3")) {
		t.Fatalf("unexpected balance %s", l.Balance())
	}
}

func TestProjectsAndPaymentControl(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.AddWorkingDay("2025-01-02", StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-03", StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-06", StatusPending, "")
	_, _ = l.AddWorkingDay("2025-01-07", StatusPending, "")
	_, _ = l.AssignProject("2025-01-02", "Bridge")
	_, _ = l.AssignProject("2025-01-06", "Bridge")

	projects := l.Projects()
	if len(projects) != 2 || projects[0].Project != "Bridge" || projects[1].Project != UnassignedProject {
		t.Fatalf("unexpected projects %+v", projects)
	}
	if projects[0].Entries != 2 || projects[0].Paid != 1 || !projects[0].PendingValue.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected project row %+v", projects[0])
	}

	pc := l.PaymentControl()
	if len(pc.Pending) != 2 || pc.Pending[0].Date.String() != "2025-01-06" {
		t.Fatalf("pending should be oldest first: %+v", pc.Pending)
	}
	if len(pc.Paid) != 2 || pc.Paid[0].Date.String() != "2025-01-03" {
		t.Fatalf("paid should be newest first: %+v", pc.Paid)
	}

	got := l.FilterDays(Filter{Status: StatusPending, Project: "Bridge"})
	if len(got) != 1 || got[0].Date.String() != "2025-01-06" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if n := len(l.FilterDays(Filter{Month: "2025-02"})); n != 0 {
		t.Fatalf("expected no rows for 2025-02, got %d", n)
	}
}

func TestKPIs(t *testing.T) {
	l := newTestLedger(t)
	_, _ = l.AddDeposit(1000, "")
	_, _ = l.AddWorkingDay("2024-12-30", StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-02", StatusPending, "")
	_, _ = l.AddWorkingDay("2025-01-03", StatusPending, "")

	k := l.KPIs(fixedNow)
	if k.TotalEntries != 3 || k.PaidEntries != 1 || k.PendingEntries != 2 {
		t.Fatalf("unexpected counts %+v", k)
	}
	if k.CurrentMonthEntries != 2 || !k.CurrentMonthEarned.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected current month %+v", k)
	}
	if k.AverageEntriesPerMonth != 1.5 || !k.ProjectedMonthlyCost.Equal(decimal.NewFromInt(375)) {
		t.Fatalf("unexpected averages %v %s", k.AverageEntriesPerMonth, k.ProjectedMonthlyCost)
	}
	if math.Abs(k.PaymentRate-100.0/3) > 1e-9 || k.CreditDaysRemaining != 1 {
		t.Fatalf("unexpected rate/credit %v %d", k.PaymentRate, k.CreditDaysRemaining)
	}

	_, _ = l.AddWorkingDay("2025-01-06", StatusPending, "")
	_, _ = l.AddWorkingDay("2025-01-07", StatusPending, "")
	if k := l.KPIs(fixedNow); k.BalanceSign != BalanceNegative || k.CreditDaysRemaining != 0 {
		t.Fatalf("expected negative balance: %+v", k)
	}
}
