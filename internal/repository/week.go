package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Week tracks the current league week in a single-cell sheet.
type Week struct {
	sheet store.Sheet
}

func NewWeek(ctx context.Context, s store.Store) (*Week, error) {
	sh, err := open(ctx, s, SheetLeagueWeek)
	if err != nil {
		return nil, err
	}
	return &Week{sheet: sh}, nil
}

// Current returns the recorded week, or 0 before the first week is generated.
func (w *Week) Current(ctx context.Context) (int, error) {
	rows, err := w.sheet.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading league week: %w", err)
	}
	if len(rows) < 2 {
		return 0, nil
	}
	return atoi(SheetLeagueWeek, "League Week", store.Cell(rows[1], 0)), nil
}

func (w *Week) Set(ctx context.Context, week int) error {
	if err := w.sheet.Replace(ctx, [][]string{{strconv.Itoa(week)}}); err != nil {
		return fmt.Errorf("recording league week: %w", err)
	}
	return nil
}
