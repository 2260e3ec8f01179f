package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/store"
)

const maxMaps = 3

// History appends the permanent scoring and match history records.
type History struct {
	scoring store.Sheet
	history store.Sheet
	clock   clockwork.Clock
}

func NewHistory(ctx context.Context, s store.Store, clock clockwork.Clock) (*History, error) {
	scoring, err := open(ctx, s, SheetScoring)
	if err != nil {
		return nil, err
	}
	history, err := open(ctx, s, SheetHistory)
	if err != nil {
		return nil, err
	}
	return &History{scoring: scoring, history: history, clock: clock}, nil
}

// Record appends a match history row. Entries carrying a score breakdown also
// get a scoring row.
func (h *History) Record(ctx context.Context, e models.HistoryEntry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = h.clock.Now()
	}

	if e.Breakdown != nil {
		row := concat([]string{e.MatchID, e.TeamA, e.TeamB}, breakdownCells(e.Breakdown, e.Winner))
		if err := h.scoring.Append(ctx, row); err != nil {
			return fmt.Errorf("recording score of %s: %w", e.MatchID, err)
		}
	}

	var scoreCells []string
	if e.Breakdown != nil {
		scoreCells = breakdownCells(e.Breakdown, e.Winner)
	} else {
		scoreCells = make([]string, 3*maxMaps+4)
		scoreCells = append(scoreCells, e.Winner)
	}

	row := concat(
		[]string{strconv.Itoa(e.Week), e.MatchID, e.TeamA, e.TeamB, e.ProposedDate, e.ScheduledDate},
		scoreCells,
		[]string{e.Reason, e.RecordedAt.UTC().Format(time.RFC3339)},
	)
	if err := h.history.Append(ctx, row); err != nil {
		return fmt.Errorf("recording history of %s: %w", e.MatchID, err)
	}
	return nil
}

// breakdownCells renders the map columns, totals, maps won and winner.
func breakdownCells(b *models.ScoreBreakdown, winner string) []string {
	cells := make([]string, 0, 3*maxMaps+5)
	for i := 0; i < maxMaps; i++ {
		if i < len(b.Maps) {
			m := b.Maps[i]
			cells = append(cells, m.Gamemode, strconv.Itoa(m.TeamAScore), strconv.Itoa(m.TeamBScore))
		} else {
			cells = append(cells, "", "", "")
		}
	}
	return append(cells,
		strconv.Itoa(b.TotalA), strconv.Itoa(b.TotalB),
		strconv.Itoa(b.MapsWonA), strconv.Itoa(b.MapsWonB),
		winner,
	)
}

// Entries returns the match history in the order it was recorded.
func (h *History) Entries(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := h.history.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	const (
		colMaps   = 6
		colTotals = colMaps + 3*maxMaps
	)

	var entries []models.HistoryEntry
	for _, row := range rows[1:] {
		e := models.HistoryEntry{
			Week:          atoi(SheetHistory, "Week", store.Cell(row, 0)),
			MatchID:       store.Cell(row, 1),
			TeamA:         store.Cell(row, 2),
			TeamB:         store.Cell(row, 3),
			ProposedDate:  store.Cell(row, 4),
			ScheduledDate: store.Cell(row, 5),
			Winner:        store.Cell(row, colTotals+4),
			Reason:        store.Cell(row, colTotals+5),
		}
		if t, err := time.Parse(time.RFC3339, store.Cell(row, colTotals+6)); err == nil {
			e.RecordedAt = t
		}

		if strings.TrimSpace(store.Cell(row, colTotals)) != "" {
			b := &models.ScoreBreakdown{
				TotalA:   atoi(SheetHistory, "Total A", store.Cell(row, colTotals)),
				TotalB:   atoi(SheetHistory, "Total B", store.Cell(row, colTotals+1)),
				MapsWonA: atoi(SheetHistory, "Maps Won A", store.Cell(row, colTotals+2)),
				MapsWonB: atoi(SheetHistory, "Maps Won B", store.Cell(row, colTotals+3)),
			}
			for i := 0; i < maxMaps; i++ {
				col := colMaps + 3*i
				mode := store.Cell(row, col)
				if mode == "" {
					continue
				}
				b.Maps = append(b.Maps, models.MapScore{
					Gamemode:   mode,
					TeamAScore: atoi(SheetHistory, "Map A", store.Cell(row, col+1)),
					TeamBScore: atoi(SheetHistory, "Map B", store.Cell(row, col+2)),
				})
			}
			switch {
			case e.Winner != "" && e.Winner == e.TeamA:
				b.Winner = models.SideA
			case e.Winner != "" && e.Winner == e.TeamB:
				b.Winner = models.SideB
			}
			e.Breakdown = b
		}

		entries = append(entries, e)
	}
	return entries, nil
}
