package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money formats an amount with a currency symbol and thousands separators.
func Money(symbol string, d decimal.Decimal) string {
	s := humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
	if symbol == "" {
		return s
	}
	if strings.HasPrefix(s, "-") {
		return "-" + symbol + " " + s[1:]
	}
	return symbol + " " + s
}

// RenderText writes the plain-text status report.
func RenderText(w io.Writer, v Views, symbol string) error {
	k := v.KPIs
	var b strings.Builder
	line := strings.Repeat("=", 50)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "PER-DIEM REPORT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Generated: %s\n\n", v.Now.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintf(&b, "  Working days:        %d\n", k.TotalEntries)
	fmt.Fprintf(&b, "  Total earned:        %s\n", Money(symbol, k.TotalEarned))
	fmt.Fprintf(&b, "  Total deposited:     %s\n", Money(symbol, k.TotalDeposited))
	fmt.Fprintf(&b, "  Current balance:     %s (%s)\n", Money(symbol, k.Balance), k.BalanceSign)
	fmt.Fprintf(&b, "  Daily rate:          %s\n", Money(symbol, k.DailyRate))
	fmt.Fprintf(&b, "  Credit days left:    %d\n", k.CreditDaysRemaining)
	fmt.Fprintf(&b, "  This month:          %d days, %s\n", k.CurrentMonthEntries, Money(symbol, k.CurrentMonthEarned))
	fmt.Fprintf(&b, "  Average per month:   %.2f days, %s projected\n\n", k.AverageEntriesPerMonth, Money(symbol, k.ProjectedMonthlyCost))

	fmt.Fprintln(&b, "PAYMENTS")
	fmt.Fprintf(&b, "  Paid:    %d (%s)\n", k.PaidEntries, Money(symbol, k.PaidValue))
	fmt.Fprintf(&b, "  Pending: %d (%s)\n", k.PendingEntries, Money(symbol, k.PendingValue))
	fmt.Fprintf(&b, "  Rate:    %.2f%%\n", k.PaymentRate)

	if len(v.Months) > 0 {
		fmt.Fprintln(&b, "\nMONTHLY")
		for _, m := range v.Months {
			fmt.Fprintf(&b, "  %s  %3d days  %14s  paid %d  pending %d  %6.2f%%\n",
				m.Month, m.Entries, Money(symbol, m.Total), m.Paid, m.Pending, m.PaymentRate)
		}
	}

	if n := len(v.Deposits); n > 0 {
		fmt.Fprintln(&b, "\nRECENT DEPOSITS")
		start := n - 5
		if start < 0 {
			start = 0
		}
		for _, d := range v.Deposits[start:] {
			fmt.Fprintf(&b, "  %s  %14s  %s\n", d.Date.Format("2006-01-02"), Money(symbol, d.Amount), d.Description)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
