package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/leaguebot/internal/repository"
	"github.com/omarshaarawi/leaguebot/internal/store/bolt"
)

func seedLeague(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "league.db")

	s, err := bolt.NewBoltStorage(path)
	require.NoError(t, err)
	teams, err := s.Sheet(ctx, repository.SheetTeams, repository.Headers[repository.SheetTeams])
	require.NoError(t, err)
	for _, row := range [][]string{
		{"AAA Team", "A1 (1)", "A2 (2)", "A3 (3)"},
		{"BBB Team", "B1 (4)", "B2 (5)", "B3 (6)"},
	} {
		require.NoError(t, teams.Append(ctx, row))
	}
	require.NoError(t, s.Close())

	t.Setenv("STORE_BACKEND", "bolt")
	t.Setenv("BOLT_PATH", path)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAdvanceWeekAndResolve(t *testing.T) {
	seedLeague(t)

	out, err := execute(t, "advance-week")
	require.NoError(t, err)
	assert.Contains(t, out, "Week 1: 1 matches created.")
	assert.Contains(t, out, "Week1-AAA-BBB\tAAA Team vs BBB Team")

	out, err = execute(t, "unscheduled")
	require.NoError(t, err)
	assert.Contains(t, out, "Week1-AAA-BBB")

	out, err = execute(t, "resolve-score", "Week1-AAA-BBB", "Payload:3-1", "Control_Point:2-1")
	require.NoError(t, err)
	assert.Contains(t, out, "AAA Team 5 - 2 BBB Team")
	assert.Contains(t, out, "winner: AAA Team")

	_, err = execute(t, "resolve-score", "Week1-AAA-BBB", "Payload:3-1", "Control_Point:2-1")
	assert.Error(t, err)

	out, err = execute(t, "leaderboard")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tAAA Team\t825\tSilver\t1-0")
	assert.Contains(t, out, "2\tBBB Team\t775\tSilver\t0-1")
}

func TestAdvanceWeekFailure(t *testing.T) {
	seedLeague(t)

	_, err := execute(t, "advance-week", "--week", "-1")
	assert.Error(t, err)
}

func TestResolveScoreBadArgs(t *testing.T) {
	seedLeague(t)

	_, err := execute(t, "resolve-score", "Week1-AAA-BBB", "Payload:3-1")
	assert.Error(t, err)

	_, err = execute(t, "resolve-score", "Week1-AAA-BBB", "Payload", "Control:1-0")
	assert.ErrorContains(t, err, "Mode:A-B")
}

func TestMaintenance(t *testing.T) {
	seedLeague(t)

	out, err := execute(t, "repair-schema")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ok")

	out, err = execute(t, "rosters", "lock")
	require.NoError(t, err)
	assert.Equal(t, "2 teams changed\n", out)

	out, err = execute(t, "orphans")
	require.NoError(t, err)
	assert.Empty(t, out)
}
