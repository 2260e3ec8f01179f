package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/store"
	"github.com/omarshaarawi/leaguebot/internal/store/memory"
)

func seedTeams(t *testing.T, s store.Store, rows ...[]string) {
	t.Helper()
	sh, err := s.Sheet(context.Background(), SheetTeams, Headers[SheetTeams])
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, sh.Append(context.Background(), row))
	}
}

func newTestRoster(t *testing.T) (*Roster, store.Store) {
	t.Helper()
	s := memory.New()
	seedTeams(t, s,
		[]string{"Alpha", "Ann (1)", "Ben (2)", "Cid (3)", "", "", "", "FALSE"},
		[]string{"Bravo", "Dee (4)", "", "Eve (5)"},
		[]string{"", "Ghost (9)"},
		[]string{"Charlie Squad", "Fay (6)", "Gus (7)", "", "", "", "", "TRUE"},
	)
	r, err := NewRoster(context.Background(), s)
	require.NoError(t, err)
	return r, s
}

func TestRoster_Teams(t *testing.T) {
	r, _ := newTestRoster(t)

	teams, err := r.Teams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 3)

	assert.Equal(t, "Alpha", teams[0].Name)
	assert.Equal(t, []models.RosterEntry{
		{DisplayName: "Ann", MemberID: "1"},
		{DisplayName: "Ben", MemberID: "2"},
		{DisplayName: "Cid", MemberID: "3"},
	}, teams[0].Roster)
	assert.False(t, teams[0].Locked)

	assert.Equal(t, 2, teams[1].MemberCount())
	assert.True(t, teams[2].Locked)
}

func TestRoster_Eligibility(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)

	n, err := r.MemberCount(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ok, err := r.IsEligible(ctx, "Bravo", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.IsEligible(ctx, "Nobody", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := r.EligibleTeams(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie Squad"}, names)

	names, err = r.EligibleTeams(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, names)
}

func TestRoster_FindAndSuggest(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)

	team, ok, err := r.Find(ctx, "  CHARLIE squad ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Charlie Squad", team.Name)

	team, ok, err = r.FindByMember(ctx, "5")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bravo", team.Name)

	_, ok, err = r.Find(ctx, "Charlie")
	require.NoError(t, err)
	assert.False(t, ok)

	suggestions, err := r.Suggest(ctx, "charlie")
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie Squad"}, suggestions)
}

func TestRoster_SetLocked(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRoster(t)

	changed, err := r.SetLocked(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	teams, err := r.Teams(ctx)
	require.NoError(t, err)
	for _, team := range teams {
		assert.True(t, team.Locked, team.Name)
	}

	changed, err = r.SetLocked(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, changed)
}
