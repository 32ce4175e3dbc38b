package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"diarias/internal/report"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	bodies   map[string][]string
	existing string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path

	var call string
	switch {
	case strings.HasSuffix(path, "/values:batchClear"):
		call = "clear"
		_, _ = io.WriteString(w, `{}`)
	case strings.HasSuffix(path, "/values:batchUpdate"):
		call = "values"
		_, _ = io.WriteString(w, `{}`)
	case strings.HasSuffix(path, ":batchUpdate"):
		call = "batch"
		if strings.Contains(string(body), "addSheet") {
			_, _ = io.WriteString(w, `{"replies":[{"addSheet":{"properties":{"sheetId":7,"title":"Deposits"}}}]}`)
		} else {
			_, _ = io.WriteString(w, `{"replies":[]}`)
		}
	case r.Method == http.MethodGet:
		call = "get"
		_, _ = io.WriteString(w, `{"sheets":[{"properties":{"sheetId":0,"title":"`+f.existing+`"}}]}`)
	default:
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.bodies[call] = append(f.bodies[call], string(body))
	f.mu.Unlock()
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-123")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	fake := &fakeSheets{bodies: map[string][]string{}, existing: "Dashboard"}
	c := newTestClient(t, fake)

	wb := report.Workbook{Tables: []report.Table{
		{Name: "Dashboard", Header: []string{"Indicator", "Value"}, Rows: [][]report.Cell{{"Total", 2}}},
		{Name: "Deposits", Header: []string{"Amount"}, Rows: [][]report.Cell{{5000.0}}},
	}}
	ref, err := c.WriteReport(context.Background(), wb)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if ref != "https://docs.google.com/spreadsheets/d/sheet-123" {
		t.Fatalf("unexpected ref %q", ref)
	}

	want := []string{"get", "batch", "clear", "values", "batch"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected call sequence %v", fake.calls)
	}

	var values gsheet.BatchUpdateValuesRequest
	if err := json.Unmarshal([]byte(fake.bodies["values"][0]), &values); err != nil {
		t.Fatalf("decode values request: %v", err)
	}
	if values.ValueInputOption != "RAW" || len(values.Data) != 2 || values.Data[1].Range != "'Deposits'!A1" {
		t.Fatalf("unexpected values request %+v", values)
	}
	if len(values.Data[0].Values) != 2 {
		t.Fatalf("expected header plus one row, got %v", values.Data[0].Values)
	}

	format := fake.bodies["batch"][1]
	if !strings.Contains(format, `"frozenRowCount":1`) || !strings.Contains(format, `"sheetId":7`) {
		t.Fatalf("unexpected format request %s", format)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's days"); got != "'Bob''s days'" {
		t.Fatalf("unexpected quoting %q", got)
	}
}
