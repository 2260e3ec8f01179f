// Package store defines the row/column contract every persistence backend of
// the league implements. A store holds named sheets; row 0 of every sheet is
// its header row.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrRowOutOfRange = errors.New("row out of range")
	ErrHeaderRow     = errors.New("header row cannot be modified this way")
)

type Store interface {
	// Sheet returns the named sheet, creating it with headers when missing. An
	// existing sheet whose header row differs gets its header row repaired.
	Sheet(ctx context.Context, name string, headers []string) (Sheet, error)
	Close() error
}

type Sheet interface {
	Name() string
	Rows(ctx context.Context) ([][]string, error)
	Append(ctx context.Context, row []string) error
	// UpdateCell writes one cell. Indices are 0-based; writing past the end of
	// a row extends it with empty cells.
	UpdateCell(ctx context.Context, row, col int, value string) error
	DeleteRow(ctx context.Context, row int) error
	// Replace rewrites every data row, keeping the header.
	Replace(ctx context.Context, rows [][]string) error
}

// HeaderRepairs returns the cells of current that must change to match want.
func HeaderRepairs(current, want []string) map[int]string {
	repairs := make(map[int]string)
	for i, h := range want {
		if i >= len(current) || current[i] != h {
			repairs[i] = h
		}
	}
	return repairs
}

// SetCell returns row with col set to value, growing the row when needed.
func SetCell(row []string, col int, value string) []string {
	if col >= len(row) {
		grown := make([]string, col+1)
		copy(grown, row)
		row = grown
	}
	row[col] = value
	return row
}

// CheckDataRow validates a row index that addresses a data row.
func CheckDataRow(row, total int) error {
	if row == 0 {
		return ErrHeaderRow
	}
	if row < 0 || row >= total {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, total)
	}
	return nil
}

// CheckRow validates a row index that may address the header.
func CheckRow(row, total int) error {
	if row < 0 || row >= total {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, total)
	}
	return nil
}

// Cell returns row[col] or "" when the row is short.
func Cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// CloneRows deep-copies rows so callers never share backing arrays with a backend.
func CloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
