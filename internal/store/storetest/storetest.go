// Package storetest holds the behavior every store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("create sheet writes headers", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sh, err := s.Sheet(ctx, "Teams", []string{"Team Name", "Captain"})
		require.NoError(t, err)
		assert.Equal(t, "Teams", sh.Name())

		rows, err := sh.Rows(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Team Name", "Captain"}}, rows)
	})

	t.Run("get or create is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		headers := []string{"A", "B"}

		sh, err := s.Sheet(ctx, "Data", headers)
		require.NoError(t, err)
		require.NoError(t, sh.Append(ctx, []string{"1", "2"}))

		again, err := s.Sheet(ctx, "Data", headers)
		require.NoError(t, err)
		rows, err := again.Rows(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, rows)
	})

	t.Run("header repair keeps data", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sh, err := s.Sheet(ctx, "Data", []string{"A", "B"})
		require.NoError(t, err)
		require.NoError(t, sh.Append(ctx, []string{"1", "2"}))

		repaired, err := s.Sheet(ctx, "Data", []string{"A", "Bee", "C"})
		require.NoError(t, err)
		rows, err := repaired.Rows(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "Bee", "C"}, rows[0])
		assert.Equal(t, []string{"1", "2"}, rows[1])
	})

	t.Run("append update delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sh, err := s.Sheet(ctx, "Matches", []string{"ID", "Status"})
		require.NoError(t, err)
		for _, id := range []string{"1", "2", "3"} {
			require.NoError(t, sh.Append(ctx, []string{id, "Proposed"}))
		}

		require.NoError(t, sh.UpdateCell(ctx, 2, 1, "Finished"))
		require.NoError(t, sh.UpdateCell(ctx, 3, 3, "extended"))
		require.NoError(t, sh.DeleteRow(ctx, 1))

		rows, err := sh.Rows(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"2", "Finished"}, rows[1])
		assert.Equal(t, []string{"3", "Proposed", "", "extended"}, rows[2])
	})

	t.Run("delete rejects header and out of range", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sh, err := s.Sheet(ctx, "Matches", []string{"ID"})
		require.NoError(t, err)
		require.NoError(t, sh.Append(ctx, []string{"1"}))

		assert.ErrorIs(t, sh.DeleteRow(ctx, 0), store.ErrHeaderRow)
		assert.ErrorIs(t, sh.DeleteRow(ctx, 5), store.ErrRowOutOfRange)
		assert.ErrorIs(t, sh.UpdateCell(ctx, 9, 0, "x"), store.ErrRowOutOfRange)
	})

	t.Run("replace keeps header", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sh, err := s.Sheet(ctx, "Leaderboard", []string{"Team Name", "Rating"})
		require.NoError(t, err)
		require.NoError(t, sh.Append(ctx, []string{"Old", "1"}))

		require.NoError(t, sh.Replace(ctx, [][]string{{"B", "900"}, {"A", "800"}}))
		rows, err := sh.Rows(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Team Name", "Rating"}, {"B", "900"}, {"A", "800"}}, rows)

		require.NoError(t, sh.Replace(ctx, nil))
		rows, err = sh.Rows(ctx)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Team Name", "Rating"}}, rows)
	})

	t.Run("rows are copies", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		sh, err := s.Sheet(ctx, "Data", []string{"A"})
		require.NoError(t, err)
		require.NoError(t, sh.Append(ctx, []string{"1"}))

		rows, err := sh.Rows(ctx)
		require.NoError(t, err)
		rows[1][0] = "mutated"

		rows, err = sh.Rows(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1", rows[1][0])
	})
}
