package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"diarias/internal/core"
)

func depositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Record and list deposits",
	}
	cmd.AddCommand(depositAddCmd())
	cmd.AddCommand(depositListCmd())
	return cmd
}

func depositAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <amount> [description...]",
		Short: "Record a deposit; negative amounts record a correction",
		Long: `Record a deposit that credits the balance. Amounts accept either decimal
separator: 5000, 1234.50 and 1.234,50 are all valid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			description := strings.Join(args[1:], " ")
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				dep, err := a.svc.AddDepositAmount(cmd.Context(), amount, description)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s deposit of %s recorded\n", successStyle.Render("✓"), money(dep.Amount))
				printRow(out, "Balance", signedMoney(dep.BalanceAfter))
				return nil
			})
		},
	}
}

func depositListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deposits oldest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				var rows []core.DepositRow
				a.svc.Read(func(l *core.Ledger) { rows = l.DepositRows() })

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("(no deposits)"))
					return nil
				}
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					table = append(table, []string{
						r.Date.Format("2006-01-02 15:04"),
						humanize.Time(r.Date),
						money(r.Amount),
						r.Description,
						money(r.Cumulative),
						signedMoney(r.BalanceAfter),
					})
				}
				printTable(out, []string{"Date", "When", "Amount", "Description", "Deposited", "Balance after"}, table)
				return nil
			})
		},
	}
}
