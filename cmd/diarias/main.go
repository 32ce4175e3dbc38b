package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"diarias/internal/cli"
	"diarias/internal/config"
	applog "diarias/internal/log"
)

var (
	version = "dev"

	// Set by PersistentPreRunE for every command.
	cfg    *config.Config
	logger *applog.Logger

	rootCmd = &cobra.Command{
		Use:   "diarias",
		Short: "Per-diem ledger for working days and deposits",
		Long: `diarias keeps a ledger of working days charged at a flat daily rate and
the deposits that pay for them, with a running credit balance.

Reports are exported as CSV files or to a Google spreadsheet, and the ledger
can be served as a JSON API.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json); overrides LOG_FORMAT")
	rootCmd.PersistentFlags().Float64("rate", 0, "daily rate; overrides DAILY_RATE")

	rootCmd.AddCommand(dayCmd())
	rootCmd.AddCommand(depositCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg = config.Load()

	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if v, _ := flags.GetFloat64("rate"); v != 0 {
		cfg.DailyRate = v
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(applog.ComponentCLI)
	slog.Debug("Configuration loaded",
		"data_backend", cfg.DataBackend,
		"export_backend", cfg.ExportBackend,
		"amqp", cfg.UsesAMQP())
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "diarias %s\n", version)
			return err
		},
	}
}
