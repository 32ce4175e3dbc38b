package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "diarias/internal/log"
)

// Backend names accepted by DATA_BACKEND and EXPORT_BACKEND.
const (
	DataBackendJSON   = "json"
	DataBackendSQLite = "sqlite"
	DataBackendMemory = "memory"

	ExportBackendMemory = "memory"
	ExportBackendCSV    = "csv"
	ExportBackendSheets = "sheets"
)

var (
	validDataBackends   = []string{DataBackendJSON, DataBackendSQLite, DataBackendMemory}
	validExportBackends = []string{ExportBackendMemory, ExportBackendCSV, ExportBackendSheets}
)

type Config struct {
	// Ledger
	DailyRate      float64
	CurrencySymbol string
	ReportTitle    string

	// HTTP Server
	Port          string
	RateLimit     int // mutating requests per client per minute
	ViewCacheSize int

	// Snapshot storage
	DataBackend  string
	SnapshotPath string
	SQLiteDBPath string

	// Report export
	ExportBackend string
	ExportDir     string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP, optional; empty URL exports in process
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	WatchInterval  time.Duration
	ExportInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		DailyRate:      getEnvFloat("DAILY_RATE", 250),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "R$"),
		ReportTitle:    getEnv("REPORT_TITLE", "Per-diem ledger"),

		Port:          getEnv("PORT", "8081"),
		RateLimit:     getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ViewCacheSize: getEnvInt("VIEW_CACHE_SIZE", 16),

		DataBackend:  getEnv("DATA_BACKEND", DataBackendJSON),
		SnapshotPath: getEnv("SNAPSHOT_PATH", "./excel_report/diarias_data.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/diarias.db"),

		ExportBackend: getEnv("EXPORT_BACKEND", ExportBackendCSV),
		ExportDir:     getEnv("EXPORT_DIR", "./outputs"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "diarias"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		WatchInterval:  getEnvDuration("WATCH_INTERVAL", 5*time.Second),
		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if math.IsNaN(c.DailyRate) || math.IsInf(c.DailyRate, 0) || c.DailyRate <= 0 {
		errors = append(errors, fmt.Sprintf("invalid daily rate %v: must be a positive number", c.DailyRate))
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}
	if c.ViewCacheSize < 1 || c.ViewCacheSize > 1024 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be between 1 and 1024", c.ViewCacheSize))
	}

	if !slices.Contains(validDataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validDataBackends))
	}

	switch c.DataBackend {
	case DataBackendJSON:
		if c.SnapshotPath == "" {
			errors = append(errors, "snapshot path cannot be empty when using json backend")
		} else if msg := ensureDir(c.SnapshotPath); msg != "" {
			errors = append(errors, msg)
		}
	case DataBackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	}

	if !slices.Contains(validExportBackends, c.ExportBackend) {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validExportBackends))
	}

	switch c.ExportBackend {
	case ExportBackendCSV:
		if c.ExportDir == "" {
			errors = append(errors, "export directory cannot be empty when using csv export")
		}
	case ExportBackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets export")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.WatchInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid watch interval %v: must be at least 100ms", c.WatchInterval))
	} else if c.WatchInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid watch interval %v: must be at most 1 hour", c.WatchInterval))
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// UsesAMQP reports whether change notifications go through a broker.
func (c *Config) UsesAMQP() bool {
	return c.AMQPURL != ""
}

// ensureDir creates the parent directory of path when missing and returns a
// validation message on failure.
func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvFloat accepts a comma as the decimal separator.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
