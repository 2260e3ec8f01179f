// Package postgres keeps every league sheet in a single Postgres table. Each row
// is stored with its sheet name, its 0-based position and its cells as text[].
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Store wraps a Postgres connection.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using the given connection string and
// creates the backing table.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{DB: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the necessary tables if they do not exist. Positions are not
// unique while DeleteRow shifts the rows below it, so there is no primary key.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			sheet    TEXT   NOT NULL,
			position INT    NOT NULL,
			cells    TEXT[] NOT NULL DEFAULT '{}'
		);`,
		`CREATE INDEX IF NOT EXISTS sheet_rows_sheet_position ON sheet_rows (sheet, position);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Sheet(ctx context.Context, name string, headers []string) (store.Sheet, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sheet tx: %w", err)
	}
	defer tx.Rollback()

	var current pq.StringArray
	err = tx.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = $1 AND position = 0`, name,
	).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, position, cells) VALUES ($1, 0, $2)`,
			name, cellArray(headers),
		); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading %s header: %w", name, err)
	default:
		repairs := store.HeaderRepairs(current, headers)
		if len(repairs) > 0 {
			row := []string(current)
			for col, h := range repairs {
				row = store.SetCell(row, col, h)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE sheet_rows SET cells = $2 WHERE sheet = $1 AND position = 0`,
				name, pq.StringArray(row),
			); err != nil {
				return nil, fmt.Errorf("repairing %s header: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sheet tx: %w", err)
	}
	return &sheet{db: s.DB, name: name}, nil
}

type sheet struct {
	db   *sql.DB
	name string
}

func (sh *sheet) Name() string {
	return sh.name
}

func (sh *sheet) Rows(ctx context.Context) ([][]string, error) {
	rs, err := sh.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = $1 ORDER BY position`, sh.name,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", sh.name, err)
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var cells pq.StringArray
		if err := rs.Scan(&cells); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", sh.name, err)
		}
		if cells == nil {
			cells = pq.StringArray{}
		}
		rows = append(rows, []string(cells))
	}
	return rows, rs.Err()
}

func (sh *sheet) Append(ctx context.Context, row []string) error {
	_, err := sh.db.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, position, cells)
		SELECT $1, COALESCE(MAX(position) + 1, 0), $2 FROM sheet_rows WHERE sheet = $1
	`, sh.name, cellArray(row))
	if err != nil {
		return fmt.Errorf("appending to %s: %w", sh.name, err)
	}
	return nil
}

func (sh *sheet) count(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sheet_rows WHERE sheet = $1`, sh.name,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s rows: %w", sh.name, err)
	}
	return n, nil
}

func (sh *sheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	tx, err := sh.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer tx.Rollback()

	n, err := sh.count(ctx, tx)
	if err != nil {
		return err
	}
	if err := store.CheckRow(row, n); err != nil {
		return err
	}

	var cells pq.StringArray
	if err := tx.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = $1 AND position = $2`, sh.name, row,
	).Scan(&cells); err != nil {
		return fmt.Errorf("reading %s row %d: %w", sh.name, row, err)
	}

	updated := store.SetCell([]string(cells), col, value)
	if _, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET cells = $3 WHERE sheet = $1 AND position = $2`,
		sh.name, row, cellArray(updated),
	); err != nil {
		return fmt.Errorf("updating %s row %d: %w", sh.name, row, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tx: %w", err)
	}
	return nil
}

func (sh *sheet) DeleteRow(ctx context.Context, row int) error {
	tx, err := sh.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	n, err := sh.count(ctx, tx)
	if err != nil {
		return err
	}
	if err := store.CheckDataRow(row, n); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet = $1 AND position = $2`, sh.name, row,
	); err != nil {
		return fmt.Errorf("deleting %s row %d: %w", sh.name, row, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET position = position - 1 WHERE sheet = $1 AND position > $2`, sh.name, row,
	); err != nil {
		return fmt.Errorf("shifting %s rows: %w", sh.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

func (sh *sheet) Replace(ctx context.Context, rows [][]string) error {
	tx, err := sh.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet = $1 AND position > 0`, sh.name,
	); err != nil {
		return fmt.Errorf("clearing %s: %w", sh.name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sheet_rows (sheet, position, cells) VALUES ($1, $2, $3)`,
	)
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", sh.name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, sh.name, i+1, cellArray(row)); err != nil {
			return fmt.Errorf("inserting %s row %d: %w", sh.name, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

// cellArray keeps empty rows out of the NOT NULL column as '{}'.
func cellArray(row []string) pq.StringArray {
	if row == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(row)
}
