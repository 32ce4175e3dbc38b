package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"diarias/internal/report"
)

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the plain text report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				return report.RenderText(cmd.OutOrStdout(), a.svc.Views(), cfg.CurrencySymbol)
			})
		},
	}
}

func calendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [year]",
		Short: "Print a yearly calendar marking paid and pending days",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				v := a.svc.Views()
				year := v.Now.Year()
				if len(args) == 1 {
					y, err := strconv.Atoi(args[0])
					if err != nil || y < 1 || y > 9999 {
						return fmt.Errorf("invalid year %q", args[0])
					}
					year = y
				}

				t := report.Calendar(year, v.Days)
				rows := make([][]string, 0, len(t.Rows))
				for _, r := range t.Rows {
					row := make([]string, len(r))
					for i, c := range r {
						row[i] = fmt.Sprint(c)
					}
					if row[0] != "" && len(rows) > 0 {
						rows = append(rows, make([]string, len(r)))
					}
					rows = append(rows, row)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, titleStyle.Render(strconv.Itoa(year)))
				printTable(out, t.Header, rows)
				fmt.Fprintln(out, mutedStyle.Render(strings.Join([]string{"✓ paid", "• pending"}, "   ")))
				return nil
			})
		},
	}
}
