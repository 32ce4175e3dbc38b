package http

import (
	"bytes"
	"net/http"

	"diarias/internal/core"
	"diarias/internal/report"
	"diarias/internal/sheets/csvdir"
)

// Read-only endpoints. Each answers from the cached views of the current
// revision and honours If-None-Match.

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	// Snapshot and revision come from the same ledger state. The export is
	// skipped when the client already holds that revision.
	var (
		snap core.Snapshot
		rev  uint64
	)
	inm := r.Header.Get("If-None-Match")
	s.svc.Read(func(l *core.Ledger) {
		rev = l.Revision()
		if inm != etag(rev) {
			snap = l.Export()
		}
	})
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(snap).Write(w)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(toKPIs(v.KPIs)).Write(w)
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	v, rev := s.currentViews()
	NewJSONResponse().Revision(rev).Data(toDays(f.Apply(v.Days))).Write(w)
}

func (s *Server) handleDaysCSV(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	v, rev := s.currentViews()

	var buf bytes.Buffer
	if err := csvdir.Encode(&buf, report.EntriesTable(f.Apply(v.Days))); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to encode days CSV", "error", err)
		InternalServerError("could not encode CSV").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvdir.FileName(report.SheetEntries)+`"`)
	w.Header().Set("ETag", etag(rev))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListDeposits(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(toDeposits(v.Deposits)).Write(w)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(toMonths(v.Months)).Write(w)
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(toCashFlow(v.CashFlow)).Write(w)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(toProjects(v.Projects)).Write(w)
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	NewJSONResponse().Revision(rev).Data(toPayments(v.Payments)).Write(w)
}

// handleCalendar returns the calendar table for ?year=, defaulting to the
// current year.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	year, err := parseYear(r.URL.Query(), v.Now)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	t := report.Calendar(year, v.Days)
	NewJSONResponse().Revision(rev).Data(tableDTO{Name: t.Name, Header: t.Header, Rows: t.Rows}).Write(w)
}

// handleReport renders the plain text summary.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	v, rev := s.currentViews()
	if notModified(w, r, rev) {
		return
	}
	var buf bytes.Buffer
	if err := report.RenderText(&buf, v, s.opts.CurrencySymbol); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to render report", "error", err)
		InternalServerError("could not render report").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("ETag", etag(rev))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
