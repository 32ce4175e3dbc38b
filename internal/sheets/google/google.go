package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"diarias/internal/report"
	ports "diarias/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.ReportWriter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to write it.
// Exactly one of ServiceAccountJSON and ServiceAccountFile is needed; when
// both are empty GOOGLE_APPLICATION_CREDENTIALS is used.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, id), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	credsFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case credsJSON != "":
		credentialsJSON = []byte(credsJSON)
	case credsFile != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service", "credentials_size", len(credentialsJSON))
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// WriteReport writes one tab per table: missing tabs are created, existing
// ones cleared, values written raw, and the header row bolded and frozen.
func (c *Client) WriteReport(ctx context.Context, wb report.Workbook) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(wb.Tables) == 0 {
		return c.url(), nil
	}

	sheetIDs, err := c.ensureSheets(ctx, wb.Tables)
	if err != nil {
		return "", err
	}

	ranges := make([]string, 0, len(wb.Tables))
	data := make([]*gsheet.ValueRange, 0, len(wb.Tables))
	for _, t := range wb.Tables {
		ranges = append(ranges, quoteSheet(t.Name))
		data = append(data, &gsheet.ValueRange{
			Range:  quoteSheet(t.Name) + "!A1",
			Values: tableValues(t),
		})
	}

	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: ranges,
	}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear report sheets: %w", err)
	}

	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write report values: %w", err)
	}

	if err := c.formatHeaders(ctx, wb.Tables, sheetIDs); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Report written to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"tables", len(wb.Tables))
	return c.url(), nil
}

// ensureSheets returns the sheet id of every table, adding missing tabs.
func (c *Client) ensureSheets(ctx context.Context, tables []report.Table) (map[string]int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	ids := make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	var add []*gsheet.Request
	var added []string
	for _, t := range tables {
		if _, ok := ids[t.Name]; ok {
			continue
		}
		add = append(add, &gsheet.Request{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: t.Name},
		}})
		added = append(added, t.Name)
	}
	if len(add) == 0 {
		return ids, nil
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: add,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("add report sheets: %w", err)
	}
	for i, reply := range resp.Replies {
		if i < len(added) && reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[added[i]] = reply.AddSheet.Properties.SheetId
		}
	}
	slog.InfoContext(ctx, "Created report sheets", "sheets", added)
	return ids, nil
}

func (c *Client) formatHeaders(ctx context.Context, tables []report.Table, ids map[string]int64) error {
	var reqs []*gsheet.Request
	for _, t := range tables {
		id, ok := ids[t.Name]
		if !ok || len(t.Header) == 0 {
			continue
		}
		reqs = append(reqs,
			&gsheet.Request{RepeatCell: &gsheet.RepeatCellRequest{
				Range: &gsheet.GridRange{SheetId: id, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &gsheet.CellData{UserEnteredFormat: &gsheet.CellFormat{
					TextFormat: &gsheet.TextFormat{Bold: true},
				}},
				Fields: "userEnteredFormat.textFormat.bold",
			}},
			&gsheet.Request{UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
				Properties: &gsheet.SheetProperties{
					SheetId:        id,
					GridProperties: &gsheet.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			}},
		)
	}
	if len(reqs) == 0 {
		return nil
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("format report headers: %w", err)
	}
	return nil
}

func (c *Client) url() string {
	return "https://docs.google.com/spreadsheets/d/" + c.spreadsheetID
}

func tableValues(t report.Table) [][]any {
	values := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range t.Rows {
		values = append(values, append([]any(nil), row...))
	}
	return values
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
