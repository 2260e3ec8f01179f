package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

type Store struct {
	sheets map[string]*sheet
	mu     sync.RWMutex
}

func New() *Store {
	return &Store{sheets: make(map[string]*sheet)}
}

func (s *Store) Sheet(_ context.Context, name string, headers []string) (store.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.sheets[name]
	if !ok {
		sh = &sheet{name: name, rows: [][]string{slices.Clone(headers)}}
		s.sheets[name] = sh
		return sh, nil
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	for col, h := range store.HeaderRepairs(sh.rows[0], headers) {
		sh.rows[0] = store.SetCell(sh.rows[0], col, h)
	}
	return sh, nil
}

func (s *Store) Close() error {
	return nil
}

type sheet struct {
	name string
	rows [][]string
	mu   sync.RWMutex
}

func (sh *sheet) Name() string {
	return sh.name
}

func (sh *sheet) Rows(_ context.Context) ([][]string, error) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return store.CloneRows(sh.rows), nil
}

func (sh *sheet) Append(_ context.Context, row []string) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.rows = append(sh.rows, slices.Clone(row))
	return nil
}

func (sh *sheet) UpdateCell(_ context.Context, row, col int, value string) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if err := store.CheckRow(row, len(sh.rows)); err != nil {
		return err
	}
	sh.rows[row] = store.SetCell(sh.rows[row], col, value)
	return nil
}

func (sh *sheet) DeleteRow(_ context.Context, row int) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if err := store.CheckDataRow(row, len(sh.rows)); err != nil {
		return err
	}
	sh.rows = slices.Delete(sh.rows, row, row+1)
	return nil
}

func (sh *sheet) Replace(_ context.Context, rows [][]string) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.rows = append(sh.rows[:1], store.CloneRows(rows)...)
	return nil
}
