package http

import (
	"time"

	"github.com/shopspring/decimal"

	"diarias/internal/core"
)

// Wire types. Money is sent as a number rounded to cents.

type dayDTO struct {
	Date       string  `json:"date"`
	Month      string  `json:"month"`
	Weekday    string  `json:"weekday"`
	Value      float64 `json:"value"`
	Status     string  `json:"status"`
	Notes      string  `json:"notes,omitempty"`
	Project    string  `json:"project,omitempty"`
	AddedAt    string  `json:"addedAt,omitempty"`
	Cumulative float64 `json:"cumulative"`
}

type depositDTO struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	BalanceAfter float64 `json:"balanceAfter"`
	Cumulative   float64 `json:"cumulative,omitempty"`
}

type monthDTO struct {
	Month         string  `json:"month"`
	Entries       int     `json:"entries"`
	Total         float64 `json:"total"`
	Paid          int     `json:"paid"`
	Pending       int     `json:"pending"`
	PaidValue     float64 `json:"paidValue"`
	PendingValue  float64 `json:"pendingValue"`
	PaymentRate   float64 `json:"paymentRate"`
	WeeklyAverage float64 `json:"weeklyAverage"`
}

type cashFlowDTO struct {
	Date        string  `json:"date"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Balance     float64 `json:"balance"`
}

type projectDTO struct {
	Project      string  `json:"project"`
	Entries      int     `json:"entries"`
	Total        float64 `json:"total"`
	Paid         int     `json:"paid"`
	Pending      int     `json:"pending"`
	PaidValue    float64 `json:"paidValue"`
	PendingValue float64 `json:"pendingValue"`
}

type paymentsDTO struct {
	Pending []dayDTO `json:"pending"`
	Paid    []dayDTO `json:"paid"`
}

type kpisDTO struct {
	TotalEntries           int     `json:"totalEntries"`
	TotalEarned            float64 `json:"totalEarned"`
	TotalDeposited         float64 `json:"totalDeposited"`
	Balance                float64 `json:"balance"`
	PaidEntries            int     `json:"paidEntries"`
	PendingEntries         int     `json:"pendingEntries"`
	PaidValue              float64 `json:"paidValue"`
	PendingValue           float64 `json:"pendingValue"`
	CurrentMonthEntries    int     `json:"currentMonthEntries"`
	CurrentMonthEarned     float64 `json:"currentMonthEarned"`
	AverageEntriesPerMonth float64 `json:"averageEntriesPerMonth"`
	ProjectedMonthlyCost   float64 `json:"projectedMonthlyCost"`
	PaymentRate            float64 `json:"paymentRate"`
	BalanceSign            string  `json:"balanceSign"`
	DailyRate              float64 `json:"dailyRate"`
	CreditDaysRemaining    int64   `json:"creditDaysRemaining"`
	LastUpdate             string  `json:"lastUpdate,omitempty"`
}

type mutationDTO struct {
	Revision uint64  `json:"revision"`
	Balance  float64 `json:"balance"`
	Inserted *bool   `json:"inserted,omitempty"`
}

func num(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toDays(rows []core.DayRow) []dayDTO {
	out := make([]dayDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dayDTO{
			Date:       r.Date.String(),
			Month:      r.Month,
			Weekday:    r.Weekday.String(),
			Value:      num(r.Value),
			Status:     string(r.Status),
			Notes:      r.Notes,
			Project:    r.Project,
			AddedAt:    stamp(r.AddedAt),
			Cumulative: num(r.Cumulative),
		})
	}
	return out
}

func toDeposits(rows []core.DepositRow) []depositDTO {
	out := make([]depositDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, depositDTO{
			ID:           r.ID,
			Date:         stamp(r.Date),
			Amount:       num(r.Amount),
			Description:  r.Description,
			BalanceAfter: num(r.BalanceAfter),
			Cumulative:   num(r.Cumulative),
		})
	}
	return out
}

func toDeposit(d core.Deposit) depositDTO {
	return depositDTO{
		ID:           d.ID,
		Date:         stamp(d.Date),
		Amount:       num(d.Amount),
		Description:  d.Description,
		BalanceAfter: num(d.BalanceAfter),
	}
}

func toMonths(rows []core.MonthRow) []monthDTO {
	out := make([]monthDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, monthDTO{
			Month:         r.Month,
			Entries:       r.Entries,
			Total:         num(r.Total),
			Paid:          r.Paid,
			Pending:       r.Pending,
			PaidValue:     num(r.PaidValue),
			PendingValue:  num(r.PendingValue),
			PaymentRate:   r.PaymentRate,
			WeeklyAverage: r.WeeklyAverage,
		})
	}
	return out
}

func toCashFlow(rows []core.CashFlowRow) []cashFlowDTO {
	out := make([]cashFlowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, cashFlowDTO{
			Date:        r.Date.Format(core.DateLayout),
			Kind:        string(r.Kind),
			Description: r.Description,
			Amount:      num(r.Amount),
			Balance:     num(r.Balance),
		})
	}
	return out
}

func toProjects(rows []core.ProjectRow) []projectDTO {
	out := make([]projectDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, projectDTO{
			Project:      r.Project,
			Entries:      r.Entries,
			Total:        num(r.Total),
			Paid:         r.Paid,
			Pending:      r.Pending,
			PaidValue:    num(r.PaidValue),
			PendingValue: num(r.PendingValue),
		})
	}
	return out
}

func toPayments(pc core.PaymentControl) paymentsDTO {
	return paymentsDTO{Pending: toDays(pc.Pending), Paid: toDays(pc.Paid)}
}

func toKPIs(k core.KPIs) kpisDTO {
	return kpisDTO{
		TotalEntries:           k.TotalEntries,
		TotalEarned:            num(k.TotalEarned),
		TotalDeposited:         num(k.TotalDeposited),
		Balance:                num(k.Balance),
		PaidEntries:            k.PaidEntries,
		PendingEntries:         k.PendingEntries,
		PaidValue:              num(k.PaidValue),
		PendingValue:           num(k.PendingValue),
		CurrentMonthEntries:    k.CurrentMonthEntries,
		CurrentMonthEarned:     num(k.CurrentMonthEarned),
		AverageEntriesPerMonth: k.AverageEntriesPerMonth,
		ProjectedMonthlyCost:   num(k.ProjectedMonthlyCost),
		PaymentRate:            k.PaymentRate,
		BalanceSign:            k.BalanceSign,
		DailyRate:              num(k.DailyRate),
		CreditDaysRemaining:    k.CreditDaysRemaining,
		LastUpdate:             stamp(k.LastUpdate),
	}
}

type tableDTO struct {
	Name   string   `json:"name"`
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}
