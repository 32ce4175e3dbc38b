package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"diarias/internal/services"
)

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the report to the configured export backend",
		Long: `Write every report table (dashboard, entries, monthly summary, projects,
payment control, deposits, cash flow and calendar) to EXPORT_BACKEND.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				w, err := a.exportWorker(cmd.Context())
				if err != nil {
					return err
				}
				ref, err := w.ExportViews(cmd.Context(), a.svc.Views(), "cli")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s report written to %s\n", successStyle.Render("✓"), ref)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add demonstration data to an empty ledger",
		Long: `Add two deposits and every weekday among the first fourteen days of the
current month. Refuses to touch a ledger that already has data unless --force
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				k := a.svc.KPIs()
				if !force && (k.TotalEntries > 0 || !k.TotalDeposited.IsZero()) {
					return fmt.Errorf("ledger already has data; use --force to seed anyway")
				}
				if err := a.svc.Seed(cmd.Context(), a.svc.Now()); err != nil {
					return fmt.Errorf("%s: %w", services.OpSeed, err)
				}
				printStatus(cmd, a.svc.Views())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the ledger has data")
	return cmd
}
