package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"diarias/internal/core"
	"diarias/internal/report"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balance and KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				v := a.svc.Views()
				printStatus(cmd, v)
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, v report.Views) {
	k := v.KPIs
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, titleStyle.Render(cfg.ReportTitle))
	printRow(out, "Balance", signedMoney(k.Balance))
	if k.Balance.IsPositive() {
		printRow(out, "Credit covers", fmt.Sprintf("%s more days", humanize.Comma(k.CreditDaysRemaining)))
	}
	printRow(out, "Daily rate", money(k.DailyRate))
	printRow(out, "Working days", humanize.Comma(int64(k.TotalEntries)))
	printRow(out, "Total earned", money(k.TotalEarned))
	printRow(out, "Total deposited", money(k.TotalDeposited))
	printRow(out, "Paid", fmt.Sprintf("%d (%s)", k.PaidEntries, money(k.PaidValue)))
	printRow(out, "Pending", fmt.Sprintf("%d (%s)", k.PendingEntries, money(k.PendingValue)))
	printRow(out, "Payment rate", fmt.Sprintf("%.1f%%", k.PaymentRate))
	printRow(out, "This month", fmt.Sprintf("%d days (%s)", k.CurrentMonthEntries, money(k.CurrentMonthEarned)))
	printRow(out, "Monthly average", fmt.Sprintf("%.2f days (%s)", k.AverageEntriesPerMonth, money(k.ProjectedMonthlyCost)))
	if !k.LastUpdate.IsZero() {
		printRow(out, "Last update", humanize.Time(k.LastUpdate))
	}

	if len(v.Payments.Pending) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Oldest pending days"))
		for i, r := range v.Payments.Pending {
			if i == 5 {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  ... and %d more", len(v.Payments.Pending)-i)))
				break
			}
			fmt.Fprintf(out, "  %s  %s\n", r.Date, projectOrDash(r))
		}
	}
}

func projectOrDash(r core.DayRow) string {
	if r.Project == "" {
		return mutedStyle.Render("-")
	}
	return r.Project
}
