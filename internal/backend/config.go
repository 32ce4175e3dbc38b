package backend

import (
	"fmt"

	"diarias/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Store:  StoreType(appConfig.DataBackend),
		Export: ExportType(appConfig.ExportBackend),

		SnapshotPath: appConfig.SnapshotPath,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		ExportDir:                appConfig.ExportDir,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid store type: %s", c.Store)
	}
	if !c.Export.IsValid() {
		return fmt.Errorf("invalid export type: %s", c.Export)
	}

	switch c.Store {
	case JSONStore:
		if c.SnapshotPath == "" {
			return fmt.Errorf("snapshot path is required for json store")
		}
	case SQLiteStore:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite store")
		}
	}

	switch c.Export {
	case CSVExport:
		if c.ExportDir == "" {
			return fmt.Errorf("export directory is required for csv export")
		}
	case SheetsExport:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets export")
		}
	}

	return nil
}
