package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ErrSpreadsheetNotFound is returned when a spreadsheet name matches no file
// visible to the service account.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// Size of a newly created worksheet.
const (
	newSheetRows = 1000
	newSheetCols = 20
)

// spreadsheetAPI is the subset of the Sheets and Drive APIs GoogleSink needs.
type spreadsheetAPI interface {
	FindByName(ctx context.Context, name string) (string, error)
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) error
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
}

// GoogleSink writes tables into worksheets of one Google spreadsheet.
type GoogleSink struct {
	api             spreadsheetAPI
	spreadsheetID   string
	spreadsheetName string

	mu     sync.Mutex
	titles map[string]bool
}

// NewGoogleSink authenticates with a service account key. Either spreadsheetID
// or spreadsheetName must be set; the ID wins when both are.
func NewGoogleSink(ctx context.Context, credentials []byte, spreadsheetID, spreadsheetName string) (*GoogleSink, error) {
	opts := []option.ClientOption{
		option.WithCredentialsJSON(credentials),
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	files, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return newGoogleSink(&googleAPI{sheets: svc, drive: files}, spreadsheetID, spreadsheetName), nil
}

func newGoogleSink(api spreadsheetAPI, spreadsheetID, spreadsheetName string) *GoogleSink {
	return &GoogleSink{api: api, spreadsheetID: spreadsheetID, spreadsheetName: spreadsheetName}
}

func (s *GoogleSink) Name() string { return "google-sheets" }

// Write replaces the contents of the destination tab, creating it when missing.
func (s *GoogleSink) Write(ctx context.Context, destination string, table Table) error {
	id, err := s.ensureSheet(ctx, destination, int64(table.Len()+1), int64(len(table.Header)))
	if err != nil {
		return err
	}
	rng := quoteTitle(destination)
	if err := s.api.Clear(ctx, id, rng); err != nil {
		return fmt.Errorf("clear %s: %w", destination, err)
	}
	if err := s.api.Update(ctx, id, rng+"!A1", values(table)); err != nil {
		return fmt.Errorf("update %s: %w", destination, err)
	}
	log.Printf("[INFO] wrote %d rows to sheet %q", table.Len(), destination)
	return nil
}

// ensureSheet resolves the spreadsheet and creates the tab if it does not exist.
// Calls are serialised so concurrent writers never add the same tab twice.
func (s *GoogleSink) ensureSheet(ctx context.Context, title string, rows, cols int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spreadsheetID == "" {
		id, err := s.api.FindByName(ctx, s.spreadsheetName)
		if err != nil {
			return "", fmt.Errorf("open spreadsheet %q: %w", s.spreadsheetName, err)
		}
		s.spreadsheetID = id
	}
	if s.titles == nil {
		titles, err := s.api.SheetTitles(ctx, s.spreadsheetID)
		if err != nil {
			return "", fmt.Errorf("list worksheets: %w", err)
		}
		s.titles = make(map[string]bool, len(titles))
		for _, t := range titles {
			s.titles[t] = true
		}
	}
	if s.titles[title] {
		return s.spreadsheetID, nil
	}

	if err := s.api.AddSheet(ctx, s.spreadsheetID, title, max(rows, newSheetRows), max(cols, newSheetCols)); err != nil {
		return "", fmt.Errorf("add worksheet %s: %w", title, err)
	}
	s.titles[title] = true
	log.Printf("[INFO] created worksheet %q", title)
	return s.spreadsheetID, nil
}

// Columns always written as text, even when a cell looks numeric.
var textColumns = map[string]bool{"Symbol": true, "Date": true, "Datetime": true}

// values converts rendered cells back to numbers where possible so the sheet
// stores them as numeric values under RAW input.
func values(table Table) [][]interface{} {
	out := make([][]interface{}, 0, table.Len()+1)
	header := make([]interface{}, len(table.Header))
	text := make([]bool, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
		text[i] = textColumns[h]
	}
	out = append(out, header)
	for _, row := range table.Rows {
		rec := make([]interface{}, len(row))
		for i, c := range row {
			if i < len(text) && text[i] {
				rec[i] = c
			} else if d, err := decimal.NewFromString(c); err == nil {
				rec[i] = d.InexactFloat64()
			} else {
				rec[i] = c
			}
		}
		out = append(out, rec)
	}
	return out
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

type googleAPI struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

func (g *googleAPI) FindByName(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(name, "'", "\\'"))
	list, err := g.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", ErrSpreadsheetNotFound
	}
	return list.Files[0].Id, nil
}

func (g *googleAPI) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := g.sheets.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (g *googleAPI) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    rows,
						ColumnCount: cols,
					},
				},
			},
		}},
	}
	_, err := g.sheets.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (g *googleAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.sheets.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	_, err := g.sheets.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}
