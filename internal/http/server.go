package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"diarias/internal/cache"
	"diarias/internal/core"
	applog "diarias/internal/log"
	"diarias/internal/middleware/ratelimit"
	"diarias/internal/middleware/security"
	"diarias/internal/middleware/trace"
	"diarias/internal/report"
	"diarias/internal/services"
)

// Exporter writes the report for a set of views. *worker.ExportWorker
// satisfies it.
type Exporter interface {
	ExportViews(ctx context.Context, v report.Views, trigger string) (string, error)
}

// ReadyFunc reports whether dependencies such as the database are usable.
type ReadyFunc func(ctx context.Context) error

// Options tune the server. Zero values use defaults.
type Options struct {
	RateLimit      int
	ViewCacheSize  int
	CurrencySymbol string
	Ready          ReadyFunc
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	exporter Exporter
	opts     Options
	log      *applog.Logger

	// Derived views keyed by ledger revision and day.
	views        *cache.LRUCache[report.Views]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. exporter may be nil, which disables POST /api/export.
func NewServer(addr string, svc *services.LedgerService, exporter Exporter, opts Options) *Server {
	if opts.ViewCacheSize <= 0 {
		opts.ViewCacheSize = 16
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "R$"
	}
	if opts.Logger == nil {
		opts.Logger = applog.FromContext(context.Background())
	}

	s := &Server{
		svc:          svc,
		exporter:     exporter,
		opts:         opts,
		log:          opts.Logger.WithComponent(applog.ComponentHTTP),
		views:        cache.NewLRUCache[report.Views](opts.ViewCacheSize, 10*time.Minute),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
	}
	s.cacheManager.Register(s.views)
	s.cacheManager.StartCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/kpis", s.handleKPIs)
	mux.HandleFunc("GET /api/days", s.handleListDays)
	mux.HandleFunc("GET /api/days.csv", s.handleDaysCSV)
	mux.HandleFunc("POST /api/days", s.handleAddDay)
	mux.HandleFunc("PATCH /api/days/{date}", s.handleUpdateDay)
	mux.HandleFunc("DELETE /api/days/{date}", s.handleRemoveDay)
	mux.HandleFunc("GET /api/deposits", s.handleListDeposits)
	mux.HandleFunc("POST /api/deposits", s.handleAddDeposit)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/cashflow", s.handleCashFlow)
	mux.HandleFunc("GET /api/projects", s.handleProjects)
	mux.HandleFunc("GET /api/payments", s.handlePayments)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("POST /api/export", s.handleExport)

	var h http.Handler = mux
	h = s.limiter.Middleware(security.ClientIP, ratelimit.MutatingOnly)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(opts.Logger, security.ClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// currentViews returns the derived views of the current state and its
// revision. The revision and the views come from the same ledger state.
func (s *Server) currentViews() (report.Views, uint64) {
	now := s.svc.Now()
	var (
		v   report.Views
		rev uint64
	)
	s.svc.Read(func(l *core.Ledger) {
		rev = l.Revision()
		key := fmt.Sprintf("%d@%s", rev, now.Format(core.DateLayout))
		v = s.views.GetOrLoad(key, func() report.Views {
			return report.Collect(l, now)
		})
	})
	return v, rev
}

// processEpoch tells apart ETags issued by different server processes. The
// stored revision already moves forward across restarts; the epoch also
// covers revisions handed out for changes that were never saved.
var processEpoch = uuid.NewString()[:8]

func etag(rev uint64) string {
	return fmt.Sprintf(`W/"%s-%d"`, processEpoch, rev)
}

// notModified answers 304 when the client already has this revision.
func notModified(w http.ResponseWriter, r *http.Request, rev uint64) bool {
	if r.Header.Get("If-None-Match") == etag(rev) {
		w.Header().Set("ETag", etag(rev))
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			s.log.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
