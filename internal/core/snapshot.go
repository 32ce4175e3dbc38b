package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Snapshot is the full serializable ledger state as persisted in the
	// JSON document shared with the presentation layer.
	Snapshot struct {
		WorkingDays   map[string]SnapshotDay `json:"workingDays"`
		Deposits      []SnapshotDeposit      `json:"deposits"`
		CreditBalance Amount                 `json:"creditBalance"`
		DailyRate     Amount                 `json:"dailyRate"`
		LastUpdate    string                 `json:"lastUpdate,omitempty"`

		// Revision is the ledger revision the snapshot was taken at. Importing
		// continues from it so revisions keep increasing across restarts.
		Revision uint64 `json:"revision,omitempty"`
	}

	SnapshotDay struct {
		Status  string `json:"status"`
		Notes   string `json:"notes"`
		AddedAt string `json:"addedAt"`
		Project string `json:"project,omitempty"`

		// LegacyAddedAt is read from documents written by older tools.
		LegacyAddedAt string `json:"added_at,omitempty"`
	}

	SnapshotDeposit struct {
		ID           string `json:"id,omitempty"`
		Date         string `json:"date"`
		Amount       Amount `json:"amount"`
		Description  string `json:"description"`
		BalanceAfter Amount `json:"balanceAfter"`
	}

	// ImportReport describes how an imported snapshot compared to the state
	// it produced.
	ImportReport struct {
		Entries         int
		Deposits        int
		StoredBalance   decimal.Decimal
		ComputedBalance decimal.Decimal
	}
)

// BalanceAdjusted reports whether the stored creditBalance disagreed with the
// balance derived from the snapshot contents.
func (r ImportReport) BalanceAdjusted() bool {
	return !r.StoredBalance.Equal(r.ComputedBalance)
}

// timestampLayouts are tried in order when reading timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalidDate, s)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// Export captures the current state.
func (l *Ledger) Export() Snapshot {
	s := Snapshot{
		WorkingDays:   make(map[string]SnapshotDay, len(l.entries)),
		Deposits:      make([]SnapshotDeposit, 0, len(l.deposits)),
		CreditBalance: NewAmount(l.balance),
		DailyRate:     NewAmount(l.rate),
		LastUpdate:    formatTimestamp(l.lastUpdate),
		Revision:      l.revision,
	}
	for d, e := range l.entries {
		s.WorkingDays[d.String()] = SnapshotDay{
			Status:  string(e.Status),
			Notes:   e.Notes,
			AddedAt: formatTimestamp(e.AddedAt),
			Project: e.Project,
		}
	}
	for _, d := range l.deposits {
		s.Deposits = append(s.Deposits, SnapshotDeposit{
			ID:           d.ID,
			Date:         formatTimestamp(d.Date),
			Amount:       NewAmount(d.Amount),
			Description:  d.Description,
			BalanceAfter: NewAmount(d.BalanceAfter),
		})
	}
	return s
}

// Import replaces the whole ledger state with s. The balance is recomputed
// from the working days and deposits; the report tells the caller when the
// stored creditBalance disagreed. The revision moves past both the current
// one and the snapshot's. On error the ledger is left untouched.
func (l *Ledger) Import(s Snapshot) (ImportReport, error) {
	if !s.DailyRate.IsZero() && !s.DailyRate.Equal(l.rate) {
		return ImportReport{}, fmt.Errorf("%w: snapshot %s, ledger %s", ErrRateMismatch, s.DailyRate, l.rate)
	}

	entries := make(map[Date]WorkEntry, len(s.WorkingDays))
	for key, day := range s.WorkingDays {
		d, err := ParseDate(key)
		if err != nil {
			return ImportReport{}, err
		}
		status, err := ParseStatus(day.Status)
		if err != nil {
			return ImportReport{}, fmt.Errorf("working day %s: %w", key, err)
		}
		e := WorkEntry{Date: d, Status: status, Notes: day.Notes, Project: day.Project}
		added := day.AddedAt
		if added == "" {
			added = day.LegacyAddedAt
		}
		if added != "" {
			if e.AddedAt, err = parseTimestamp(added); err != nil {
				return ImportReport{}, fmt.Errorf("working day %s: %w", key, err)
			}
		}
		entries[d] = e
	}

	deposits := make([]Deposit, 0, len(s.Deposits))
	total := decimal.Zero
	for i, sd := range s.Deposits {
		dep := Deposit{
			ID:           sd.ID,
			Amount:       sd.Amount.Decimal,
			Description:  sd.Description,
			BalanceAfter: sd.BalanceAfter.Decimal,
		}
		if sd.Date != "" {
			t, err := parseTimestamp(sd.Date)
			if err != nil {
				return ImportReport{}, fmt.Errorf("deposit %d: %w", i, err)
			}
			dep.Date = t
		}
		if dep.ID == "" {
			dep.ID = l.newID()
		}
		total = total.Add(dep.Amount)
		deposits = append(deposits, dep)
	}

	var lastUpdate time.Time
	if s.LastUpdate != "" {
		t, err := parseTimestamp(s.LastUpdate)
		if err != nil {
			return ImportReport{}, fmt.Errorf("last update: %w", err)
		}
		lastUpdate = t
	}

	computed := total.Sub(l.rate.Mul(decimal.NewFromInt(int64(len(entries)))))
	l.entries = entries
	l.deposits = deposits
	l.balance = computed
	l.lastUpdate = lastUpdate
	if s.Revision > l.revision {
		l.revision = s.Revision
	}
	l.revision++

	return ImportReport{
		Entries:         len(entries),
		Deposits:        len(deposits),
		StoredBalance:   s.CreditBalance.Decimal,
		ComputedBalance: computed,
	}, nil
}

// Restore builds a ledger from a snapshot. A zero rate in the snapshot falls
// back to rate.
func Restore(s Snapshot, rate decimal.Decimal, opts ...Option) (*Ledger, ImportReport, error) {
	if !s.DailyRate.IsZero() {
		rate = s.DailyRate.Decimal
	}
	l, err := NewLedger(rate, opts...)
	if err != nil {
		return nil, ImportReport{}, err
	}
	rep, err := l.Import(s)
	if err != nil {
		return nil, ImportReport{}, err
	}
	return l, rep, nil
}
