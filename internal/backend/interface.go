package backend

import (
	"context"

	"diarias/internal/sheets"
	"diarias/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the snapshot store and optional cleanup function.
// Detector is set when the store can be edited by other processes.
type StoreResult struct {
	Store    storage.SnapshotStore
	Detector storage.ChangeDetector
	Pinger   Pinger
	Cleanup  CleanupFunc
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates stores and report writers based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateWriter(ctx context.Context, config Config) (sheets.ReportWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Store  StoreType
	Export ExportType

	// Snapshot storage
	SnapshotPath string
	SQLiteDBPath string

	// Report export
	ExportDir                string
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// StoreType selects where snapshots are kept
type StoreType string

const (
	JSONStore   StoreType = "json"
	SQLiteStore StoreType = "sqlite"
	MemoryStore StoreType = "memory"
)

// String implements fmt.Stringer
func (st StoreType) String() string {
	return string(st)
}

// IsValid returns true if the store type is valid
func (st StoreType) IsValid() bool {
	switch st {
	case JSONStore, SQLiteStore, MemoryStore:
		return true
	default:
		return false
	}
}

// ExportType selects where reports are written
type ExportType string

const (
	MemoryExport ExportType = "memory"
	CSVExport    ExportType = "csv"
	SheetsExport ExportType = "sheets"
)

// String implements fmt.Stringer
func (et ExportType) String() string {
	return string(et)
}

// IsValid returns true if the export type is valid
func (et ExportType) IsValid() bool {
	switch et {
	case MemoryExport, CSVExport, SheetsExport:
		return true
	default:
		return false
	}
}
