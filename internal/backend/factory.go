package backend

import (
	"context"
	"fmt"
	"log/slog"

	"diarias/internal/sheets"
	"diarias/internal/sheets/csvdir"
	gsheet "diarias/internal/sheets/google"
	"diarias/internal/sheets/memory"
	"diarias/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	switch config.Store {
	case JSONStore:
		store := storage.NewFileStore(config.SnapshotPath)
		f.logger.InfoContext(ctx, "Initialized JSON snapshot store", "path", config.SnapshotPath)
		return &StoreResult{Store: store, Detector: store}, nil

	case SQLiteStore:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite snapshot store", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: repo, Pinger: repo, Cleanup: repo.Close}, nil

	case MemoryStore:
		f.logger.InfoContext(ctx, "Initialized memory snapshot store")
		return &StoreResult{Store: storage.NewMemoryStore()}, nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Store)
	}
}

// CreateWriter implements Factory.CreateWriter
func (f *DefaultFactory) CreateWriter(ctx context.Context, config Config) (sheets.ReportWriter, error) {
	switch config.Export {
	case CSVExport:
		f.logger.InfoContext(ctx, "Initialized CSV report writer", "dir", config.ExportDir)
		return csvdir.New(config.ExportDir), nil

	case SheetsExport:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets report writer")
		return cli, nil

	case MemoryExport:
		f.logger.InfoContext(ctx, "Initialized memory report writer")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported export type: %s", config.Export)
	}
}
