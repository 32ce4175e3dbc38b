package csvdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"diarias/internal/report"
)

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := New(dir)
	wb := report.Workbook{Tables: []report.Table{
		{Name: "Cash Flow", Header: []string{"Date", "Amount", "Note"}, Rows: [][]report.Cell{
			{"2025-01-02", -250.0, "Working day (paid)"},
			{"2025-01-03", 1000.5, "Deposit: a, b"},
		}},
	}}
	ref, err := w.WriteReport(context.Background(), wb)
	if err != nil || ref != dir {
		t.Fatalf("write: ref=%q err=%v", ref, err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "cash_flow.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "Date,Amount,Note\n2025-01-02,-250,Working day (paid)\n2025-01-03,1000.5,\"Deposit: a, b\"\n"
	if string(got) != want {
		t.Fatalf("unexpected csv:\n%s", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Payment Control"); got != "payment_control.csv" {
		t.Fatalf("unexpected name %q", got)
	}
}
