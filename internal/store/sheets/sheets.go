// Package sheets stores league sheets as tabs of one Google spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

const valueInput = "RAW"

type Store struct {
	srv           *gsheets.Service
	spreadsheetID string

	sheetIDs map[string]int64
	mu       sync.Mutex
}

// New connects to the spreadsheet. An empty credentialsFile falls back to
// application default credentials.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Store{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Sheet(ctx context.Context, name string, headers []string) (store.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadSheetIDs(ctx); err != nil {
		return nil, err
	}

	sh := &sheet{s: s, name: name}

	if _, ok := s.sheetIDs[name]; !ok {
		resp, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheets.Request{{
				AddSheet: &gsheets.AddSheetRequest{
					Properties: &gsheets.SheetProperties{Title: name},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("adding sheet %s: %w", name, err)
		}
		s.sheetIDs[name] = resp.Replies[0].AddSheet.Properties.SheetId

		if err := sh.writeRow(ctx, 0, headers); err != nil {
			return nil, err
		}
		return sh, nil
	}

	rows, err := sh.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var current []string
	if len(rows) > 0 {
		current = rows[0]
	}
	repairs := store.HeaderRepairs(current, headers)
	if len(repairs) == 0 {
		return sh, nil
	}
	for col, h := range repairs {
		current = store.SetCell(current, col, h)
	}
	if err := sh.writeRow(ctx, 0, current); err != nil {
		return nil, fmt.Errorf("repairing %s header: %w", name, err)
	}
	return sh, nil
}

func (s *Store) loadSheetIDs(ctx context.Context) error {
	if len(s.sheetIDs) > 0 {
		return nil
	}
	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading spreadsheet %s: %w", s.spreadsheetID, err)
	}
	for _, tab := range ss.Sheets {
		s.sheetIDs[tab.Properties.Title] = tab.Properties.SheetId
	}
	return nil
}

func (s *Store) sheetID(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", store.ErrSheetNotFound, name)
	}
	return id, nil
}

type sheet struct {
	s    *Store
	name string
}

func (sh *sheet) Name() string {
	return sh.name
}

func (sh *sheet) values() *gsheets.SpreadsheetsValuesService {
	return sh.s.srv.Spreadsheets.Values
}

func (sh *sheet) Rows(ctx context.Context) ([][]string, error) {
	vr, err := sh.values().Get(sh.s.spreadsheetID, quoteSheet(sh.name)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sh.name, err)
	}
	return toRows(vr.Values), nil
}

func (sh *sheet) Append(ctx context.Context, row []string) error {
	_, err := sh.values().Append(sh.s.spreadsheetID, cellRange(sh.name, 0, 0), &gsheets.ValueRange{
		Values: fromRows([][]string{row}),
	}).ValueInputOption(valueInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", sh.name, err)
	}
	return nil
}

func (sh *sheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	rows, err := sh.Rows(ctx)
	if err != nil {
		return err
	}
	if err := store.CheckRow(row, len(rows)); err != nil {
		return err
	}

	_, err = sh.values().Update(sh.s.spreadsheetID, cellRange(sh.name, row, col), &gsheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", sh.name, err)
	}
	return nil
}

func (sh *sheet) DeleteRow(ctx context.Context, row int) error {
	rows, err := sh.Rows(ctx)
	if err != nil {
		return err
	}
	if err := store.CheckDataRow(row, len(rows)); err != nil {
		return err
	}
	id, err := sh.s.sheetID(sh.name)
	if err != nil {
		return err
	}

	_, err = sh.s.srv.Spreadsheets.BatchUpdate(sh.s.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{DeleteDimension: deleteRowRequest(id, row)}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("deleting row %d of %s: %w", row, sh.name, err)
	}
	return nil
}

func (sh *sheet) Replace(ctx context.Context, rows [][]string) error {
	_, err := sh.values().Clear(sh.s.spreadsheetID, dataRange(sh.name), &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing %s: %w", sh.name, err)
	}
	if len(rows) == 0 {
		return nil
	}

	_, err = sh.values().Update(sh.s.spreadsheetID, cellRange(sh.name, 1, 0), &gsheets.ValueRange{
		Values: fromRows(rows),
	}).ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rewriting %s: %w", sh.name, err)
	}
	return nil
}

func (sh *sheet) writeRow(ctx context.Context, row int, cells []string) error {
	_, err := sh.values().Update(sh.s.spreadsheetID, cellRange(sh.name, row, 0), &gsheets.ValueRange{
		Values: fromRows([][]string{cells}),
	}).ValueInputOption(valueInput).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing row %d of %s: %w", row, sh.name, err)
	}
	return nil
}

// deleteRowRequest forces SheetId onto the wire since the first tab has id 0.
func deleteRowRequest(sheetID int64, row int) *gsheets.DeleteDimensionRequest {
	return &gsheets.DeleteDimensionRequest{
		Range: &gsheets.DimensionRange{
			SheetId:         sheetID,
			Dimension:       "ROWS",
			StartIndex:      int64(row),
			EndIndex:        int64(row + 1),
			ForceSendFields: []string{"SheetId", "StartIndex"},
		},
	}
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnName converts a 0-based column index to its A1 letters.
func columnName(col int) string {
	name := ""
	for col++; col > 0; col = (col - 1) / 26 {
		name = string(rune('A'+(col-1)%26)) + name
	}
	return name
}

// cellRange returns the A1 reference of a 0-based cell.
func cellRange(name string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(name), columnName(col), row+1)
}

// dataRange covers every row below the header.
func dataRange(name string) string {
	return quoteSheet(name) + "!2:1000000"
}

func toRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, vs := range values {
		row := make([]string, len(vs))
		for j, v := range vs {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}
	return rows
}

func fromRows(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		vs := make([]interface{}, len(row))
		for j, cell := range row {
			vs[j] = cell
		}
		values[i] = vs
	}
	return values
}
