package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "diarias/internal/http"
	"diarias/internal/worker"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger as a JSON API",
		Long: `Serve the ledger over HTTP. Changes are exported in process, or published
to AMQP_URL for diarias-worker when a broker is configured. Edits made to the
JSON snapshot by other tools are picked up and reloaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != 0 {
				cfg.Port = strconv.Itoa(port)
			}
			return withLedger(cmd.Context(), func(a *ledgerApp) error {
				return serve(cmd.Context(), a)
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port; overrides PORT")
	return cmd
}

func serve(ctx context.Context, a *ledgerApp) error {
	exporter, err := a.exportWorker(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// Without a broker, exports run in this process after each commit.
	if a.broker == nil {
		direct := worker.NewDirectNotifier(exporter)
		a.svc.SetNotifier(direct)
		g.Go(func() error { return ignoreCanceled(direct.Run(ctx)) })
	}

	if a.stores.Detector != nil {
		watcher := worker.NewSnapshotWatcher(a.stores.Detector, a.svc, cfg.WatchInterval)
		g.Go(func() error { return ignoreCanceled(watcher.Run(ctx)) })
	}

	var ready apphttp.ReadyFunc
	if a.stores.Pinger != nil {
		ready = a.stores.Pinger.Ping
	}
	srv := apphttp.NewServer(":"+cfg.Port, a.svc, exporter, apphttp.Options{
		RateLimit:      cfg.RateLimit,
		ViewCacheSize:  cfg.ViewCacheSize,
		CurrencySymbol: cfg.CurrencySymbol,
		Ready:          ready,
		Logger:         logger,
	})

	g.Go(func() error {
		logger.Info("Starting diarias server",
			"port", cfg.Port,
			"data_backend", cfg.DataBackend,
			"export_backend", cfg.ExportBackend,
			"amqp", a.broker != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
