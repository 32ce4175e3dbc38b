// Package storage persists ledger snapshots.
package storage

import (
	"context"
	"errors"

	"diarias/internal/core"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore loads and saves whole ledger snapshots.
type SnapshotStore interface {
	Load(ctx context.Context) (core.Snapshot, error)
	Save(ctx context.Context, s core.Snapshot) error
}

// ChangeDetector is implemented by stores that can be edited by other
// processes.
type ChangeDetector interface {
	// Changed reports whether the stored snapshot was modified by someone
	// else since the last successful Load or Save through this store.
	Changed(ctx context.Context) (bool, error)
}

func cloneSnapshot(s core.Snapshot) core.Snapshot {
	out := s
	out.WorkingDays = make(map[string]core.SnapshotDay, len(s.WorkingDays))
	for k, v := range s.WorkingDays {
		out.WorkingDays[k] = v
	}
	out.Deposits = append([]core.SnapshotDeposit(nil), s.Deposits...)
	return out
}
