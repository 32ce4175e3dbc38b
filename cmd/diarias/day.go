package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"diarias/internal/core"
	"diarias/internal/report"
	"diarias/internal/sheets/csvdir"
)

func dayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Manage working days",
		Long:  `Add, remove and update working days. Every new day is charged the daily rate.`,
	}

	cmd.AddCommand(dayAddCmd())
	cmd.AddCommand(dayRemoveCmd())
	cmd.AddCommand(dayStatusCmd())
	cmd.AddCommand(dayProjectCmd())
	cmd.AddCommand(dayListCmd())

	return cmd
}

func dayAddCmd() *cobra.Command {
	var (
		status  string
		notes   string
		project string
	)
	cmd := &cobra.Command{
		Use:   "add <date>...",
		Short: "Record one or more working days (YYYY-MM-DD)",
		Long: `Record working days. A date that is already recorded keeps its charge;
only its status and notes are replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := core.ParseStatus(status)
			if err != nil {
				return err
			}
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				var added, replaced int
				err := a.svc.Batch(cmd.Context(), func(l *core.Ledger) error {
					for _, date := range args {
						inserted, err := l.AddWorkingDay(date, st, notes)
						if err != nil {
							return err
						}
						if inserted {
							added++
						} else {
							replaced++
						}
						if project != "" {
							if _, err := l.AssignProject(date, project); err != nil {
								return err
							}
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %d added, %d updated\n", successStyle.Render("✓"), added, replaced)
				printRow(out, "Balance", signedMoney(a.svc.KPIs().Balance))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(core.StatusPending), "payment status (pending, paid)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "free-form notes")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project label")
	return cmd
}

func dayRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <date>",
		Aliases: []string{"rm"},
		Short:   "Remove a working day and refund its charge",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				removed, err := a.svc.RemoveWorkingDay(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no working day on %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", successStyle.Render("✓"), args[0])
				return nil
			})
		},
	}
}

func dayStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <date> <pending|paid>",
		Short: "Change the payment status of a working day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := core.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				found, err := a.svc.SetStatus(cmd.Context(), args[0], st)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no working day on %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is %s\n", successStyle.Render("✓"), args[0], statusLabel(st))
				return nil
			})
		},
	}
}

func dayProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "project <date> [name]",
		Short: "Label a working day with a project; omit the name to clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 2 {
				name = args[1]
			}
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				found, err := a.svc.AssignProject(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no working day on %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s assigned to %q\n", successStyle.Render("✓"), args[0], strings.TrimSpace(name))
				return nil
			})
		},
	}
}

func dayListCmd() *cobra.Command {
	var (
		filter core.Filter
		status string
		asCSV  bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List working days with a running total",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status != "" {
				st, err := core.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = st
			}
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				var rows []core.DayRow
				a.svc.Read(func(l *core.Ledger) { rows = l.FilterDays(filter) })

				if asCSV {
					return csvdir.Encode(cmd.OutOrStdout(), report.EntriesTable(rows))
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("(no working days)"))
					return nil
				}
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					table = append(table, []string{
						r.Date.String(), r.Weekday.String()[:3], statusLabel(r.Status),
						r.Project, money(r.Value), money(r.Cumulative), r.Notes,
					})
				}
				printTable(out, []string{"Date", "Day", "Status", "Project", "Value", "Cumulative", "Notes"}, table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter.Month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&status, "status", "", "only this status (pending, paid)")
	cmd.Flags().StringVar(&filter.Project, "project", "", "only this project")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV to stdout")
	return cmd
}
