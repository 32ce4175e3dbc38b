package sheets

import (
	"context"

	"diarias/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportWriter publishes a workbook somewhere a person can read it.
	ReportWriter interface {
		// WriteReport replaces the previous report and returns a reference to
		// where it was written (URL, directory, ...).
		WriteReport(ctx context.Context, wb report.Workbook) (ref string, err error)
	}
)
