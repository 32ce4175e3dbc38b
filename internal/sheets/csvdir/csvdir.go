// Package csvdir writes each report table as a CSV file in a directory.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"diarias/internal/report"
	ports "diarias/internal/sheets"
)

type Writer struct {
	dir string
}

var _ ports.ReportWriter = (*Writer)(nil)

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteReport writes <dir>/<table-name>.csv for every table, replacing older
// files atomically.
func (w *Writer) WriteReport(ctx context.Context, wb report.Workbook) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	for _, t := range wb.Tables {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := w.writeTable(t); err != nil {
			return "", err
		}
	}
	return w.dir, nil
}

func (w *Writer) writeTable(t report.Table) error {
	path := filepath.Join(w.dir, FileName(t.Name))
	tmp, err := os.CreateTemp(w.dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Encode writes the header and rows of t as CSV.
func Encode(out io.Writer, t report.Table) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	record := make([]string, 0, len(t.Header))
	for _, row := range t.Rows {
		record = record[:0]
		for _, c := range row {
			record = append(record, formatCell(c))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName turns a table name into a file name: "Cash Flow" -> "cash_flow.csv".
func FileName(table string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(table)), " ", "_") + ".csv"
}

func formatCell(c report.Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
