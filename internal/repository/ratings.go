package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Ratings is the leaderboard. Records live in memory, always sorted by rating
// descending, and reach the sheet only on Flush.
type Ratings struct {
	sheet          store.Sheet
	startingRating int

	records []models.RatingRecord
	dirty   bool
	mu      sync.RWMutex
}

func NewRatings(ctx context.Context, s store.Store, startingRating int) (*Ratings, error) {
	sh, err := open(ctx, s, SheetLeaderboard)
	if err != nil {
		return nil, err
	}
	r := &Ratings{sheet: sh, startingRating: startingRating}
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Load replaces the in-memory records with the sheet contents, dropping any
// unflushed changes.
func (r *Ratings) Load(ctx context.Context) error {
	rows, err := r.sheet.Rows(ctx)
	if err != nil {
		return fmt.Errorf("reading leaderboard: %w", err)
	}

	var records []models.RatingRecord
	for _, row := range rows[1:] {
		name := strings.TrimSpace(store.Cell(row, 0))
		if name == "" {
			continue
		}
		records = append(records, models.RatingRecord{
			TeamName:      name,
			Rating:        atoi(SheetLeaderboard, "Rating", store.Cell(row, 1)),
			Wins:          atoi(SheetLeaderboard, "Wins", store.Cell(row, 2)),
			Losses:        atoi(SheetLeaderboard, "Losses", store.Cell(row, 3)),
			MatchesPlayed: atoi(SheetLeaderboard, "Matches Played", store.Cell(row, 4)),
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = records
	r.sortLocked()
	r.dirty = false
	return nil
}

// Get finds a record by exact team name.
func (r *Ratings) Get(name string) (models.RatingRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexLocked(name)
	if i < 0 {
		return models.RatingRecord{}, false
	}
	return r.records[i], true
}

func (r *Ratings) indexLocked(name string) int {
	for i, rec := range r.records {
		if rec.TeamName == name {
			return i
		}
	}
	return -1
}

// ApplyResult records one win or loss for a team, creating its record from the
// starting rating when it has none.
func (r *Ratings) ApplyResult(name string, won bool, winPoints, lossPoints int) models.RatingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	delta := lossPoints
	if won {
		delta = winPoints
	}

	i := r.indexLocked(name)
	if i < 0 {
		r.records = append(r.records, models.RatingRecord{TeamName: name, Rating: r.startingRating})
		i = len(r.records) - 1
	}

	rec := &r.records[i]
	rec.Rating += delta
	if won {
		rec.Wins++
	} else {
		rec.Losses++
	}
	rec.MatchesPlayed = rec.Wins + rec.Losses
	updated := *rec

	r.sortLocked()
	r.dirty = true
	return updated
}

// Ensure creates empty records for the named teams that have none and returns
// the names it created.
func (r *Ratings) Ensure(names []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created []string
	for _, name := range names {
		if r.indexLocked(name) >= 0 {
			continue
		}
		r.records = append(r.records, models.RatingRecord{TeamName: name, Rating: r.startingRating})
		created = append(created, name)
	}
	if len(created) > 0 {
		r.sortLocked()
		r.dirty = true
	}
	return created
}

// All returns every record, highest rating first.
func (r *Ratings) All() []models.RatingRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.RatingRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Orphans returns records whose team is not in teamNames.
func (r *Ratings) Orphans(teamNames []string) []models.RatingRecord {
	known := make(map[string]bool, len(teamNames))
	for _, n := range teamNames {
		known[n] = true
	}

	var orphans []models.RatingRecord
	for _, rec := range r.All() {
		if !known[rec.TeamName] {
			orphans = append(orphans, rec)
		}
	}
	return orphans
}

func (r *Ratings) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Flush rewrites the leaderboard sheet when records changed since the last load
// or flush.
func (r *Ratings) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}

	rows := make([][]string, len(r.records))
	for i, rec := range r.records {
		rows[i] = []string{
			rec.TeamName,
			strconv.Itoa(rec.Rating),
			strconv.Itoa(rec.Wins),
			strconv.Itoa(rec.Losses),
			strconv.Itoa(rec.MatchesPlayed),
		}
	}
	if err := r.sheet.Replace(ctx, rows); err != nil {
		return fmt.Errorf("writing leaderboard: %w", err)
	}
	r.dirty = false
	return nil
}

func (r *Ratings) sortLocked() {
	sort.SliceStable(r.records, func(i, j int) bool {
		return r.records[i].Rating > r.records[j].Rating
	})
}
