package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"diarias/internal/core"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func sampleViews(t *testing.T) Views {
	t.Helper()
	l, err := core.NewLedger(decimal.NewFromInt(250), core.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = l.AddDeposit(5000, "Initial deposit")
	_, _ = l.AddWorkingDay("2025-01-02", core.StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-03", core.StatusPending, "")
	_, _ = l.AssignProject("2025-01-03", "Bridge")
	return Collect(l, now)
}

func TestBuildWorkbook(t *testing.T) {
	wb := Build(sampleViews(t), Options{})

	want := []string{SheetDashboard, SheetEntries, SheetMonthly, SheetProjects, SheetPayments, SheetDeposits, SheetCashFlow, SheetCalendar}
	if len(wb.Tables) != len(want) {
		t.Fatalf("expected %d tables, got %d", len(want), len(wb.Tables))
	}
	for i, name := range want {
		if wb.Tables[i].Name != name {
			t.Fatalf("table %d: expected %q, got %q", i, name, wb.Tables[i].Name)
		}
		for j, row := range wb.Tables[i].Rows {
			if len(row) != len(wb.Tables[i].Header) {
				t.Fatalf("%s row %d has %d cells, header has %d", name, j, len(row), len(wb.Tables[i].Header))
			}
		}
	}

	monthly, _ := wb.Table(SheetMonthly)
	if len(monthly.Rows) != 2 || monthly.Rows[1][0] != "TOTAL" || monthly.Rows[0][7] != 50.0 {
		t.Fatalf("unexpected monthly table %+v", monthly.Rows)
	}

	flow, _ := wb.Table(SheetCashFlow)
	last := flow.Rows[len(flow.Rows)-1]
	if last[4] != 4500.0 {
		t.Fatalf("expected final balance 4500, got %v", last[4])
	}

	payments, _ := wb.Table(SheetPayments)
	if payments.Rows[0][0] != "Pending" || payments.Rows[1][0] != "Paid" {
		t.Fatalf("unexpected payment sections %+v", payments.Rows)
	}
}

func TestDashboardRoundsRatios(t *testing.T) {
	l, err := core.NewLedger(decimal.NewFromInt(250), core.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = l.AddWorkingDay("2025-01-02", core.StatusPaid, "")
	_, _ = l.AddWorkingDay("2025-01-03", core.StatusPending, "")
	_, _ = l.AddWorkingDay("2025-01-06", core.StatusPending, "")
	v := Collect(l, now)
	if v.KPIs.PaymentRate == 33.33 {
		t.Fatalf("KPI payment rate should keep full precision, got %v", v.KPIs.PaymentRate)
	}

	dash, _ := Build(v, Options{}).Table(SheetDashboard)
	found := false
	for _, row := range dash.Rows {
		if row[0] != "Payment rate (%)" {
			continue
		}
		found = true
		if row[1] != 33.33 {
			t.Fatalf("dashboard payment rate = %v, want 33.33", row[1])
		}
	}
	if !found {
		t.Fatal("dashboard has no payment rate row")
	}
}

func TestCalendar(t *testing.T) {
	v := sampleViews(t)
	cal := Calendar(2025, v.Days)

	// January 2025 starts on a Wednesday.
	first := cal.Rows[0]
	if first[0] != "January 2025" || first[1] != "" || first[3] != "1" {
		t.Fatalf("unexpected first week %v", first)
	}
	if first[4] != "2 "+markPaid || first[5] != "3 "+markPending {
		t.Fatalf("expected marks on 2nd and 3rd, got %v", first)
	}

	var months int
	for _, row := range cal.Rows {
		if row[0] != "" {
			months++
		}
	}
	if months != 12 {
		t.Fatalf("expected 12 months, got %d", months)
	}
}

func TestMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"4500", "R$ 4,500.00"},
		{"-250.5", "-R$ 250.50"},
		{"0", "R$ 0.00"},
	}
	for _, tc := range cases {
		if got := Money("R$", decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleViews(t), "R$"); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PER-DIEM REPORT", "R$ 4,500.00 (positive)", "2025-01", "Initial deposit", "50.00%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}
