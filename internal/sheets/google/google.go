package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pdptracker/internal/core"
	"pdptracker/internal/log"
	ports "pdptracker/internal/sheets"
)

var (
	_ ports.EntryMirror     = (*Client)(nil)
	_ ports.MirrorRebuilder = (*Client)(nil)
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Roster          []core.Person
}

// Client mirrors entries into a single sheet: a header row followed by one
// row per entry with the id in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	roster        []core.Person
	agg           core.Aggregator
	log           *log.Logger

	// mu serializes writes so row numbers stay valid between read and write.
	mu      sync.Mutex
	sheetID *int64
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, cfg.Roster), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, roster []core.Person) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Registros"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheetName:     strings.TrimSpace(sheetName),
		roster:        roster,
		agg:           core.NewAggregator(roster, core.DefaultPrices),
		log:           log.ForComponent(log.ComponentSheets),
	}
}

func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var data []byte
	switch {
	case credentialsJSON != "":
		data = []byte(credentialsJSON)
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		data = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(data),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// UpsertEntry rewrites the row holding e.ID, or appends one.
func (c *Client) UpsertEntry(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}

	if len(ids) == 0 {
		if err := c.writeRows(ctx, 1, [][]any{Header(c.roster)}); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		ids = [][]any{{"id"}}
	}

	row := findRowByID(ids, e.ID)
	if row == 0 {
		row = len(ids) + 1
	}
	if err := c.writeRows(ctx, row, [][]any{RowValues(e, c.roster, c.agg)}); err != nil {
		return "", fmt.Errorf("write entry %s: %w", e.ID, err)
	}

	ref := a1Range(c.sheetName, fmt.Sprintf("A%d", row))
	c.log.DebugContext(ctx, "Mirrored entry", log.FieldEntryID, e.ID, "row", row)
	return ref, nil
}

// DeleteEntry removes the row holding id.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRowByID(ids, id)
	if row == 0 {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	return nil
}

// ReplaceAll clears the sheet and writes the header plus every entry.
func (c *Client) ReplaceAll(ctx context.Context, entries []core.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rng := a1Range(c.sheetName, "A:ZZ")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	rows := make([][]any, 0, len(entries)+1)
	rows = append(rows, Header(c.roster))
	for _, e := range entries {
		rows = append(rows, RowValues(e, c.roster, c.agg))
	}
	if err := c.writeRows(ctx, 1, rows); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	c.log.InfoContext(ctx, "Rebuilt entry mirror", log.FieldCount, len(entries))
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := a1Range(c.sheetName, "A:A")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRows(ctx context.Context, firstRow int, rows [][]any) error {
	rng := a1Range(c.sheetName, fmt.Sprintf("A%d", firstRow))
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
