package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerChangedMessage tells the export worker that a new ledger state was
// committed. It carries a summary only; the worker reads the full snapshot
// from the store.
type LedgerChangedMessage struct {
	ID          string    `json:"id"`
	Revision    uint64    `json:"revision"`
	Reason      string    `json:"reason"`
	WorkingDays int       `json:"workingDays"`
	Deposits    int       `json:"deposits"`
	Balance     float64   `json:"balance"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message with a fresh id and timestamp.
func NewLedgerChangedMessage(revision uint64, reason string, workingDays, deposits int, balance float64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:          uuid.NewString(),
		Revision:    revision,
		Reason:      reason,
		WorkingDays: workingDays,
		Deposits:    deposits,
		Balance:     balance,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
