package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger tracks working days owed at a flat daily rate against the deposits
// that fund them. It performs no I/O and has no internal locking; callers
// serialize access.
//
// After every mutation: balance == sum(deposits) - rate*len(entries).
type Ledger struct {
	rate       decimal.Decimal
	entries    map[Date]WorkEntry
	deposits   []Deposit
	balance    decimal.Decimal
	lastUpdate time.Time
	revision   uint64

	now   func() time.Time
	newID func() string
}

type Option func(*Ledger)

// WithClock overrides the clock used to stamp entries and deposits.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides deposit id generation.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithRevision starts the revision counter at rev. A ledger that replaces
// another passes the old revision so revisions never repeat.
func WithRevision(rev uint64) Option {
	return func(l *Ledger) { l.revision = rev }
}

// NewLedger creates an empty ledger charging rate per working day.
func NewLedger(rate decimal.Decimal, opts ...Option) (*Ledger, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRate, rate)
	}
	l := &Ledger{
		rate:    rate,
		entries: make(map[Date]WorkEntry),
		balance: decimal.Zero,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) Rate() decimal.Decimal    { return l.rate }
func (l *Ledger) Balance() decimal.Decimal { return l.balance }
func (l *Ledger) Len() int                 { return len(l.entries) }
func (l *Ledger) LastUpdate() time.Time    { return l.lastUpdate }

// Revision is bumped on every mutation and import.
func (l *Ledger) Revision() uint64 { return l.revision }

func (l *Ledger) HasWorkingDay(d Date) bool {
	_, ok := l.entries[d]
	return ok
}

func (l *Ledger) Entry(d Date) (WorkEntry, bool) {
	e, ok := l.entries[d]
	return e, ok
}

// AddWorkingDay inserts or replaces the entry for date. A new date is charged
// the daily rate; replacing an existing date only overwrites status and
// notes. It reports whether the date was newly inserted.
func (l *Ledger) AddWorkingDay(date string, status Status, notes string) (bool, error) {
	d, err := ParseDate(date)
	if err != nil {
		return false, err
	}
	if status == "" {
		status = StatusPending
	}
	if err := status.Validate(); err != nil {
		return false, err
	}

	if e, ok := l.entries[d]; ok {
		e.Status = status
		e.Notes = notes
		l.entries[d] = e
		l.touch()
		return false, nil
	}

	l.entries[d] = WorkEntry{
		Date:    d,
		Status:  status,
		Notes:   notes,
		AddedAt: l.now(),
	}
	l.balance = l.balance.Sub(l.rate)
	l.touch()
	return true, nil
}

// RemoveWorkingDay deletes the entry for date and refunds the rate. A missing
// date is not an error; it reports false.
func (l *Ledger) RemoveWorkingDay(date string) (bool, error) {
	d, err := ParseDate(date)
	if err != nil {
		return false, err
	}
	if _, ok := l.entries[d]; !ok {
		return false, nil
	}
	delete(l.entries, d)
	l.balance = l.balance.Add(l.rate)
	l.touch()
	return true, nil
}

// SetStatus changes only the payment status of an existing entry.
func (l *Ledger) SetStatus(date string, status Status) (bool, error) {
	d, err := ParseDate(date)
	if err != nil {
		return false, err
	}
	if err := status.Validate(); err != nil {
		return false, err
	}
	e, ok := l.entries[d]
	if !ok {
		return false, nil
	}
	e.Status = status
	l.entries[d] = e
	l.touch()
	return true, nil
}

// AssignProject labels an existing entry with a project name. An empty name
// clears the label.
func (l *Ledger) AssignProject(date, project string) (bool, error) {
	d, err := ParseDate(date)
	if err != nil {
		return false, err
	}
	e, ok := l.entries[d]
	if !ok {
		return false, nil
	}
	e.Project = strings.TrimSpace(project)
	l.entries[d] = e
	l.touch()
	return true, nil
}

// AddDeposit appends a deposit and credits the balance. Non-finite amounts
// are rejected and leave the ledger untouched.
func (l *Ledger) AddDeposit(amount float64, description string) (Deposit, error) {
	if !finite(amount) {
		return Deposit{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return l.AddDepositDecimal(decimal.NewFromFloat(amount), description), nil
}

// AddDepositDecimal appends a deposit of an already exact amount.
func (l *Ledger) AddDepositDecimal(amount decimal.Decimal, description string) Deposit {
	dep := Deposit{
		ID:           l.newID(),
		Date:         l.now(),
		Amount:       amount,
		Description:  description,
		BalanceAfter: l.balance.Add(amount),
	}
	l.deposits = append(l.deposits, dep)
	l.balance = dep.BalanceAfter
	l.touch()
	return dep
}

// Entries returns all working days sorted by date.
func (l *Ledger) Entries() []WorkEntry {
	out := make([]WorkEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// Deposits returns the deposits in insertion order.
func (l *Ledger) Deposits() []Deposit {
	out := make([]Deposit, len(l.deposits))
	copy(out, l.deposits)
	return out
}

// TotalDeposited is the sum of every deposit amount.
func (l *Ledger) TotalDeposited() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l.deposits {
		total = total.Add(d.Amount)
	}
	return total
}

// TotalEarned is the amount owed for all recorded working days.
func (l *Ledger) TotalEarned() decimal.Decimal {
	return l.rate.Mul(decimal.NewFromInt(int64(len(l.entries))))
}

func (l *Ledger) touch() {
	l.lastUpdate = l.now()
	l.revision++
}
