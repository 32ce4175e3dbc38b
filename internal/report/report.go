// Package report turns ledger views into named tables that exporters write
// out as spreadsheet tabs, CSV files or text.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"diarias/internal/core"
)

const (
	SheetDashboard = "Dashboard"
	SheetEntries   = "Detailed Entries"
	SheetMonthly   = "Monthly Summary"
	SheetProjects  = "Projects"
	SheetPayments  = "Payment Control"
	SheetDeposits  = "Deposits"
	SheetCashFlow  = "Cash Flow"
	SheetCalendar  = "Calendar"
)

type (
	// Cell is a string, int or float64.
	Cell = any

	Table struct {
		Name   string
		Header []string
		Rows   [][]Cell
	}

	Workbook struct {
		Title       string
		GeneratedAt time.Time
		Tables      []Table
	}

	// Views is a consistent set of derived tables taken from one ledger
	// state.
	Views struct {
		Now      time.Time
		KPIs     core.KPIs
		Days     []core.DayRow
		Deposits []core.DepositRow
		Months   []core.MonthRow
		CashFlow []core.CashFlowRow
		Projects []core.ProjectRow
		Payments core.PaymentControl
	}

	Options struct {
		Title string
		// CalendarYear is the year of the calendar tab; zero uses Views.Now.
		CalendarYear int
	}
)

// Collect reads every view from l. The caller serializes access to l.
func Collect(l *core.Ledger, now time.Time) Views {
	return Views{
		Now:      now,
		KPIs:     l.KPIs(now),
		Days:     l.Days(),
		Deposits: l.DepositRows(),
		Months:   l.MonthlyAnalysis(),
		CashFlow: l.CashFlow(),
		Projects: l.Projects(),
		Payments: l.PaymentControl(),
	}
}

// Table returns the table with the given name.
func (w Workbook) Table(name string) (Table, bool) {
	for _, t := range w.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Build lays the views out as a workbook.
func Build(v Views, opts Options) Workbook {
	title := opts.Title
	if title == "" {
		title = "Per-diem control"
	}
	year := opts.CalendarYear
	if year == 0 {
		year = v.Now.Year()
	}
	return Workbook{
		Title:       title,
		GeneratedAt: v.Now,
		Tables: []Table{
			dashboard(v),
			EntriesTable(v.Days),
			monthly(v.Months),
			projects(v.Projects),
			payments(v.Payments),
			deposits(v.Deposits),
			cashFlow(v.CashFlow),
			Calendar(year, v.Days),
		},
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func ratio(f float64) float64 {
	return math.Round(f*100) / 100
}

func dashboard(v Views) Table {
	k := v.KPIs
	t := Table{Name: SheetDashboard, Header: []string{"Indicator", "Value"}}
	t.Rows = [][]Cell{
		{"Total working days", k.TotalEntries},
		{"Total earned", money(k.TotalEarned)},
		{"Total deposited", money(k.TotalDeposited)},
		{"Current balance", money(k.Balance)},
		{"Balance status", k.BalanceSign},
		{"Paid days", k.PaidEntries},
		{"Pending days", k.PendingEntries},
		{"Paid value", money(k.PaidValue)},
		{"Pending value", money(k.PendingValue)},
		{"Payment rate (%)", ratio(k.PaymentRate)},
		{"Days this month", k.CurrentMonthEntries},
		{"Earned this month", money(k.CurrentMonthEarned)},
		{"Average days per month", ratio(k.AverageEntriesPerMonth)},
		{"Projected monthly cost", money(k.ProjectedMonthlyCost)},
		{"Daily rate", money(k.DailyRate)},
		{"Credit days remaining", int(k.CreditDaysRemaining)},
		{"Last update", formatTime(k.LastUpdate)},
	}
	t.Rows = append(t.Rows, []Cell{"", ""}, []Cell{"Month", "Days / Value / Paid / Pending"})
	for _, m := range v.Months {
		t.Rows = append(t.Rows, []Cell{m.Month, fmt.Sprintf("%d / %.2f / %d / %d", m.Entries, money(m.Total), m.Paid, m.Pending)})
	}
	return t
}

func dayCells(r core.DayRow) []Cell {
	return []Cell{
		r.Date.String(),
		r.Month,
		r.Weekday.String(),
		money(r.Value),
		string(r.Status),
		r.Project,
		r.Notes,
		money(r.Cumulative),
	}
}

var dayHeader = []string{"Date", "Month", "Weekday", "Value", "Status", "Project", "Notes", "Cumulative"}

// EntriesTable lays out per-day rows as the Detailed Entries table.
func EntriesTable(rows []core.DayRow) Table {
	t := Table{Name: SheetEntries, Header: dayHeader}
	for _, r := range rows {
		t.Rows = append(t.Rows, dayCells(r))
	}
	return t
}

func monthly(rows []core.MonthRow) Table {
	t := Table{Name: SheetMonthly, Header: []string{
		"Month", "Days", "Total", "Paid days", "Paid value", "Pending days", "Pending value", "Payment rate (%)", "Days per week",
	}}
	var days, paid, pending int
	total, paidValue, pendingValue := decimal.Zero, decimal.Zero, decimal.Zero
	for _, m := range rows {
		t.Rows = append(t.Rows, []Cell{
			m.Month, m.Entries, money(m.Total), m.Paid, money(m.PaidValue), m.Pending, money(m.PendingValue), m.PaymentRate, m.WeeklyAverage,
		})
		days += m.Entries
		paid += m.Paid
		pending += m.Pending
		total = total.Add(m.Total)
		paidValue = paidValue.Add(m.PaidValue)
		pendingValue = pendingValue.Add(m.PendingValue)
	}
	if len(rows) > 0 {
		rate := 0.0
		if days > 0 {
			rate = decimal.NewFromInt(int64(paid)).Div(decimal.NewFromInt(int64(days))).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		t.Rows = append(t.Rows, []Cell{"TOTAL", days, money(total), paid, money(paidValue), pending, money(pendingValue), rate, ""})
	}
	return t
}

func projects(rows []core.ProjectRow) Table {
	t := Table{Name: SheetProjects, Header: []string{
		"Project", "Days", "Total", "Paid days", "Paid value", "Pending days", "Pending value",
	}}
	for _, p := range rows {
		t.Rows = append(t.Rows, []Cell{p.Project, p.Entries, money(p.Total), p.Paid, money(p.PaidValue), p.Pending, money(p.PendingValue)})
	}
	return t
}

func payments(pc core.PaymentControl) Table {
	t := Table{Name: SheetPayments, Header: append([]string{"Section"}, dayHeader...)}
	for _, r := range pc.Pending {
		t.Rows = append(t.Rows, append([]Cell{"Pending"}, dayCells(r)...))
	}
	for _, r := range pc.Paid {
		t.Rows = append(t.Rows, append([]Cell{"Paid"}, dayCells(r)...))
	}
	return t
}

func deposits(rows []core.DepositRow) Table {
	t := Table{Name: SheetDeposits, Header: []string{"ID", "Date", "Amount", "Description", "Balance after", "Cumulative"}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []Cell{d.ID, formatTime(d.Date), money(d.Amount), d.Description, money(d.BalanceAfter), money(d.Cumulative)})
	}
	return t
}

func cashFlow(rows []core.CashFlowRow) Table {
	t := Table{Name: SheetCashFlow, Header: []string{"Date", "Type", "Description", "Amount", "Balance"}}
	for _, r := range rows {
		kind := "Inflow"
		if r.Kind == core.FlowOut {
			kind = "Outflow"
		}
		t.Rows = append(t.Rows, []Cell{r.Date.Format(core.DateLayout), kind, r.Description, money(r.Amount), money(r.Balance)})
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
