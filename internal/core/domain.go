package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// DateLayout is the calendar key format of a working day.
const DateLayout = "2006-01-02"

// MonthLayout is the month bucket format used by the derived views.
const MonthLayout = "2006-01"

// DefaultDailyRate is the flat per-diem charged for every working day.
const DefaultDailyRate = 250.0

type (
	Status string

	Date struct {
		time.Time
	}

	WorkEntry struct {
		Date    Date
		Status  Status
		Notes   string
		Project string
		AddedAt time.Time
	}

	Deposit struct {
		ID           string
		Date         time.Time
		Amount       decimal.Decimal
		Description  string
		BalanceAfter decimal.Decimal // balance right after this deposit was applied
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRate   = errors.New("invalid daily rate")
	ErrRateMismatch  = errors.New("daily rate mismatch")
)

// ParseStatus maps user input to a Status. Empty input means pending.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusPending:
		return StatusPending, nil
	case StatusPaid:
		return StatusPaid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) Validate() error {
	if s != StatusPending && s != StatusPaid {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket of the date.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

func (e WorkEntry) Paid() bool {
	return e.Status == StatusPaid
}
