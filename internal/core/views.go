package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// weeksPerMonth approximates the number of weeks in a month.
const weeksPerMonth = 4.33

const (
	FlowIn  FlowKind = "in"
	FlowOut FlowKind = "out"
)

// UnassignedProject labels entries without a project in the project rollup.
const UnassignedProject = "Unassigned"

type (
	FlowKind string

	DayRow struct {
		Date       Date
		Month      string
		Weekday    time.Weekday
		Value      decimal.Decimal
		Status     Status
		Notes      string
		Project    string
		AddedAt    time.Time
		Cumulative decimal.Decimal
	}

	DepositRow struct {
		Deposit
		Cumulative decimal.Decimal
	}

	MonthRow struct {
		Month         string
		Entries       int
		Total         decimal.Decimal
		Paid          int
		Pending       int
		PaidValue     decimal.Decimal
		PendingValue  decimal.Decimal
		PaymentRate   float64 // percent, 2 decimals
		WeeklyAverage float64 // entries per week, 2 decimals
	}

	CashFlowRow struct {
		Date        time.Time
		Kind        FlowKind
		Description string
		Amount      decimal.Decimal // signed
		Balance     decimal.Decimal
	}

	ProjectRow struct {
		Project      string
		Entries      int
		Total        decimal.Decimal
		Paid         int
		Pending      int
		PaidValue    decimal.Decimal
		PendingValue decimal.Decimal
	}

	PaymentControl struct {
		Pending []DayRow // oldest first
		Paid    []DayRow // newest first
	}

	KPIs struct {
		TotalEntries           int
		TotalEarned            decimal.Decimal
		TotalDeposited         decimal.Decimal
		Balance                decimal.Decimal
		PaidEntries            int
		PendingEntries         int
		PaidValue              decimal.Decimal
		PendingValue           decimal.Decimal
		CurrentMonthEntries    int
		CurrentMonthEarned     decimal.Decimal
		AverageEntriesPerMonth float64 // unrounded
		ProjectedMonthlyCost   decimal.Decimal
		PaymentRate            float64 // percent, unrounded
		BalanceSign            string
		DailyRate              decimal.Decimal
		CreditDaysRemaining    int64
		LastUpdate             time.Time
	}

	// Filter selects per-day rows. Empty fields match everything.
	Filter struct {
		Month   string
		Status  Status
		Project string
	}
)

const (
	BalancePositive = "positive"
	BalanceNegative = "negative"
)

// Days returns one row per working day in date order with a running total.
func (l *Ledger) Days() []DayRow {
	entries := l.Entries()
	rows := make([]DayRow, 0, len(entries))
	cum := decimal.Zero
	for _, e := range entries {
		cum = cum.Add(l.rate)
		rows = append(rows, DayRow{
			Date:       e.Date,
			Month:      e.Date.MonthKey(),
			Weekday:    e.Date.Weekday(),
			Value:      l.rate,
			Status:     e.Status,
			Notes:      e.Notes,
			Project:    e.Project,
			AddedAt:    e.AddedAt,
			Cumulative: cum,
		})
	}
	return rows
}

// FilterDays returns the per-day rows matching f. Cumulative values are
// those of the unfiltered table.
func (l *Ledger) FilterDays(f Filter) []DayRow {
	return f.Apply(l.Days())
}

// Match reports whether r passes the filter.
func (f Filter) Match(r DayRow) bool {
	return (f.Month == "" || r.Month == f.Month) &&
		(f.Status == "" || r.Status == f.Status) &&
		(f.Project == "" || r.Project == f.Project)
}

// Apply returns the rows of rows that pass the filter.
func (f Filter) Apply(rows []DayRow) []DayRow {
	var out []DayRow
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// DepositRows returns deposits stable-sorted by timestamp with a running sum.
func (l *Ledger) DepositRows() []DepositRow {
	deps := l.Deposits()
	sort.SliceStable(deps, func(i, j int) bool { return deps[i].Date.Before(deps[j].Date) })
	rows := make([]DepositRow, 0, len(deps))
	cum := decimal.Zero
	for _, d := range deps {
		cum = cum.Add(d.Amount)
		rows = append(rows, DepositRow{Deposit: d, Cumulative: cum})
	}
	return rows
}

// MonthlyAnalysis groups working days by month bucket, oldest month first.
func (l *Ledger) MonthlyAnalysis() []MonthRow {
	byMonth := make(map[string]*MonthRow)
	var months []string
	for _, e := range l.Entries() {
		key := e.Date.MonthKey()
		m, ok := byMonth[key]
		if !ok {
			m = &MonthRow{Month: key}
			byMonth[key] = m
			months = append(months, key)
		}
		m.Entries++
		if e.Paid() {
			m.Paid++
		}
	}

	rows := make([]MonthRow, 0, len(months))
	for _, key := range months {
		m := byMonth[key]
		m.Pending = m.Entries - m.Paid
		m.Total = l.rate.Mul(decimal.NewFromInt(int64(m.Entries)))
		m.PaidValue = l.rate.Mul(decimal.NewFromInt(int64(m.Paid)))
		m.PendingValue = l.rate.Mul(decimal.NewFromInt(int64(m.Pending)))
		if m.Entries > 0 {
			m.PaymentRate = round2(float64(m.Paid) / float64(m.Entries) * 100)
		}
		m.WeeklyAverage = round2(float64(m.Entries) / weeksPerMonth)
		rows = append(rows, *m)
	}
	return rows
}

// CashFlow merges deposits (inflows) and working days (outflows) by calendar
// date with a running balance. On the same date deposits come first. The last
// row's balance always equals Balance().
func (l *Ledger) CashFlow() []CashFlowRow {
	type flow struct {
		day Date
		row CashFlowRow
	}
	flows := make([]flow, 0, len(l.deposits)+len(l.entries))
	for _, d := range l.deposits {
		desc := "Deposit"
		if d.Description != "" {
			desc = "Deposit: " + d.Description
		}
		flows = append(flows, flow{day: DateOf(d.Date), row: CashFlowRow{
			Date: d.Date, Kind: FlowIn, Description: desc, Amount: d.Amount,
		}})
	}
	for _, e := range l.Entries() {
		flows = append(flows, flow{day: e.Date, row: CashFlowRow{
			Date: e.Date.Time, Kind: FlowOut, Description: "Working day (" + string(e.Status) + ")", Amount: l.rate.Neg(),
		}})
	}
	sort.SliceStable(flows, func(i, j int) bool {
		if !flows[i].day.Equal(flows[j].day.Time) {
			return flows[i].day.Before(flows[j].day.Time)
		}
		return flows[i].row.Kind == FlowIn && flows[j].row.Kind == FlowOut
	})

	rows := make([]CashFlowRow, 0, len(flows))
	running := decimal.Zero
	for _, f := range flows {
		running = running.Add(f.row.Amount)
		f.row.Balance = running
		rows = append(rows, f.row)
	}
	return rows
}

// Projects rolls working days up per project label, sorted by name with
// unlabelled entries last.
func (l *Ledger) Projects() []ProjectRow {
	byProject := make(map[string]*ProjectRow)
	for _, e := range l.entries {
		name := e.Project
		if name == "" {
			name = UnassignedProject
		}
		p, ok := byProject[name]
		if !ok {
			p = &ProjectRow{Project: name}
			byProject[name] = p
		}
		p.Entries++
		if e.Paid() {
			p.Paid++
		}
	}
	rows := make([]ProjectRow, 0, len(byProject))
	for _, p := range byProject {
		p.Pending = p.Entries - p.Paid
		p.Total = l.rate.Mul(decimal.NewFromInt(int64(p.Entries)))
		p.PaidValue = l.rate.Mul(decimal.NewFromInt(int64(p.Paid)))
		p.PendingValue = l.rate.Mul(decimal.NewFromInt(int64(p.Pending)))
		rows = append(rows, *p)
	}
	sort.Slice(rows, func(i, j int) bool {
		if (rows[i].Project == UnassignedProject) != (rows[j].Project == UnassignedProject) {
			return rows[j].Project == UnassignedProject
		}
		return rows[i].Project < rows[j].Project
	})
	return rows
}

// PaymentControl splits the per-day table into pending (oldest first) and
// paid (newest first).
func (l *Ledger) PaymentControl() PaymentControl {
	var pc PaymentControl
	for _, r := range l.Days() {
		if r.Status == StatusPaid {
			pc.Paid = append(pc.Paid, r)
		} else {
			pc.Pending = append(pc.Pending, r)
		}
	}
	for i, j := 0, len(pc.Paid)-1; i < j; i, j = i+1, j-1 {
		pc.Paid[i], pc.Paid[j] = pc.Paid[j], pc.Paid[i]
	}
	return pc
}

// KPIs summarizes the ledger relative to now.
func (l *Ledger) KPIs(now time.Time) KPIs {
	k := KPIs{
		TotalEntries:   len(l.entries),
		TotalEarned:    l.TotalEarned(),
		TotalDeposited: l.TotalDeposited(),
		Balance:        l.balance,
		DailyRate:      l.rate,
		LastUpdate:     l.lastUpdate,
	}

	current := DateOf(now).MonthKey()
	months := make(map[string]struct{})
	for _, e := range l.entries {
		key := e.Date.MonthKey()
		months[key] = struct{}{}
		if e.Paid() {
			k.PaidEntries++
		}
		if key == current {
			k.CurrentMonthEntries++
		}
	}
	k.PendingEntries = k.TotalEntries - k.PaidEntries
	k.PaidValue = l.rate.Mul(decimal.NewFromInt(int64(k.PaidEntries)))
	k.PendingValue = l.rate.Mul(decimal.NewFromInt(int64(k.PendingEntries)))
	k.CurrentMonthEarned = l.rate.Mul(decimal.NewFromInt(int64(k.CurrentMonthEntries)))

	if len(months) > 0 {
		avg := float64(k.TotalEntries) / float64(len(months))
		k.AverageEntriesPerMonth = avg
		k.ProjectedMonthlyCost = l.rate.Mul(decimal.NewFromFloat(avg)).Round(2)
	}

	total := k.TotalEntries
	if total < 1 {
		total = 1
	}
	k.PaymentRate = float64(k.PaidEntries) / float64(total) * 100

	k.BalanceSign = BalancePositive
	if l.balance.IsNegative() {
		k.BalanceSign = BalanceNegative
	}
	if l.balance.IsPositive() {
		k.CreditDaysRemaining = l.balance.Div(l.rate).Floor().IntPart()
	}
	return k
}
