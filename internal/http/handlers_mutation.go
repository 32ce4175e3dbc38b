package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"diarias/internal/core"
	applog "diarias/internal/log"
	"diarias/internal/services"
)

type addDayRequest struct {
	Date    string `json:"date"`
	Status  string `json:"status"`
	Notes   string `json:"notes"`
	Project string `json:"project"`
}

type updateDayRequest struct {
	Status  *string `json:"status"`
	Project *string `json:"project"`
}

type addDepositRequest struct {
	Amount      amountField `json:"amount"`
	Description string      `json:"description"`
}

// amountField accepts a JSON number or a string such as "1.234,50".
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("amount must be a number or a string")
	}
	*a = amountField(n.String())
	return nil
}

// logMutation logs a committed mutation and returns the resulting revision
// and balance.
func (s *Server) logMutation(r *http.Request, op, date, status, project string) mutationDTO {
	var (
		dto     mutationDTO
		balance string
	)
	s.svc.Read(func(l *core.Ledger) {
		dto.Revision = l.Revision()
		dto.Balance = num(l.Balance())
		balance = l.Balance().StringFixed(2)
	})
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogLedgerMutation(r.Context(), op, date, status, project, dto.Revision, balance)
	return dto
}

// handleAddDay inserts or replaces a working day. 201 means the date was new
// and the rate was charged.
func (s *Server) handleAddDay(w http.ResponseWriter, r *http.Request) {
	var req addDayRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	status, err := core.ParseStatus(req.Status)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	date := strings.TrimSpace(req.Date)
	notes := sanitizeInput(req.Notes)
	project := sanitizeInput(req.Project)

	var inserted bool
	err = s.svc.Batch(r.Context(), func(l *core.Ledger) error {
		var err error
		if inserted, err = l.AddWorkingDay(date, status, notes); err != nil {
			return err
		}
		if project != "" {
			_, err = l.AssignProject(date, project)
		}
		return err
	})
	if err != nil {
		MutationError(r, services.OpAddWorkingDay, err).Write(w)
		return
	}

	dto := s.logMutation(r, services.OpAddWorkingDay, date, string(status), project)
	dto.Inserted = &inserted
	code := http.StatusOK
	if inserted {
		code = http.StatusCreated
	}
	NewJSONResponse().Status(code).Revision(dto.Revision).Data(dto).Write(w)
}

// handleUpdateDay changes the status and/or project of an existing day.
func (s *Server) handleUpdateDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := core.ParseDate(date); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	var req updateDayRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.Status == nil && req.Project == nil {
		BadRequestError("nothing to update: send status and/or project").Write(w)
		return
	}

	var status core.Status
	if req.Status != nil {
		var err error
		if status, err = core.ParseStatus(*req.Status); err != nil {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
	}
	var project string
	if req.Project != nil {
		project = sanitizeInput(*req.Project)
	}

	op := services.OpSetStatus
	var (
		found bool
		err   error
	)
	switch {
	case req.Status != nil && req.Project != nil:
		op = services.OpBatch
		err = s.svc.Batch(r.Context(), func(l *core.Ledger) error {
			var err error
			if found, err = l.SetStatus(date, status); err != nil || !found {
				return err
			}
			_, err = l.AssignProject(date, project)
			return err
		})
	case req.Status != nil:
		found, err = s.svc.SetStatus(r.Context(), date, status)
	default:
		op = services.OpAssignProject
		found, err = s.svc.AssignProject(r.Context(), date, project)
	}
	if err != nil {
		MutationError(r, op, err).Write(w)
		return
	}
	if !found {
		NotFoundError("no working day on " + date).Write(w)
		return
	}

	dto := s.logMutation(r, op, date, string(status), project)
	NewJSONResponse().Revision(dto.Revision).Data(dto).Write(w)
}

// handleRemoveDay deletes a working day and refunds the rate.
func (s *Server) handleRemoveDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	removed, err := s.svc.RemoveWorkingDay(r.Context(), date)
	if err != nil {
		MutationError(r, services.OpRemoveWorkingDay, err).Write(w)
		return
	}
	if !removed {
		NotFoundError("no working day on " + date).Write(w)
		return
	}
	dto := s.logMutation(r, services.OpRemoveWorkingDay, date, "", "")
	NewJSONResponse().Revision(dto.Revision).Data(dto).Write(w)
}

// handleAddDeposit records a deposit. Negative amounts are corrections and
// are accepted.
func (s *Server) handleAddDeposit(w http.ResponseWriter, r *http.Request) {
	var req addDepositRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		UnprocessableEntityError("invalid amount: " + string(req.Amount)).Write(w)
		return
	}
	dep, err := s.svc.AddDepositAmount(r.Context(), amount, sanitizeInput(req.Description))
	if err != nil {
		MutationError(r, services.OpAddDeposit, err).Write(w)
		return
	}
	state := s.logMutation(r, services.OpAddDeposit, "", "", "")
	NewJSONResponse().Status(http.StatusCreated).Revision(state.Revision).Data(toDeposit(dep)).Write(w)
}

// handleExport writes the report through the configured exporter and
// returns its reference.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		ErrorResponse(http.StatusServiceUnavailable, "export is not configured").Write(w)
		return
	}
	v, rev := s.currentViews()
	ref, err := s.exporter.ExportViews(r.Context(), v, "http")
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Export failed", err, applog.ComponentExport, applog.OpExport,
				applog.NewFields().WithErrorType(applog.ErrorTypeNetwork))
		ErrorResponse(http.StatusBadGateway, "export failed").Write(w)
		return
	}
	NewJSONResponse().Revision(rev).Data(map[string]any{"ref": ref, "revision": rev}).Write(w)
}
