package league

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/repository"
	repomemory "github.com/omarshaarawi/leaguebot/internal/repository/memory"
	"github.com/omarshaarawi/leaguebot/internal/store"
	"github.com/omarshaarawi/leaguebot/internal/store/memory"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) WeekAdvanced(week int, kind FailureKind) { m.Called(week, kind) }
func (m *mockRecorder) MatchCreated(origin models.MatchOrigin) { m.Called(origin) }
func (m *mockRecorder) MatchReconciled(outcome models.MatchStatus) { m.Called(outcome) }
func (m *mockRecorder) ScoreResolved(tie bool) { m.Called(tie) }

type fixture struct {
	engine  *Engine
	store   store.Store
	ratings *repository.Ratings
	ledger  *repository.Ledger
	history *repository.History
	clock   clockwork.FakeClock
}

var defaultTeams = [][]string{
	{"AAA Team", "Ann (1)", "Abe (2)", "Amy (3)"},
	{"BBB Team", "Bea (4)", "Bob (5)", "Bo (6)"},
	{"CCC Team", "Cat (7)", "Cy (8)", "Cal (9)"},
	{"DDD Team", "Dot (10)", "Dan (11)", "Di (12)"},
}

var defaultRatings = [][]string{
	{"AAA Team", "1000", "0", "0", "0"},
	{"BBB Team", "950", "0", "0", "0"},
	{"CCC Team", "900", "0", "0", "0"},
	{"DDD Team", "850", "0", "0", "0"},
}

func appendRows(t *testing.T, s store.Store, sheet string, rows [][]string) {
	t.Helper()
	sh, err := s.Sheet(context.Background(), sheet, repository.Headers[sheet])
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, sh.Append(context.Background(), row))
	}
}

func newFixture(t *testing.T, settings Settings, teams, ratings [][]string, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, repository.EnsureSchema(ctx, s))
	appendRows(t, s, repository.SheetTeams, teams)
	appendRows(t, s, repository.SheetLeaderboard, ratings)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC))

	roster, err := repository.NewRoster(ctx, s)
	require.NoError(t, err)
	r, err := repository.NewRatings(ctx, s, settings.StartingRating)
	require.NoError(t, err)
	ledger, err := repository.NewLedger(ctx, s)
	require.NoError(t, err)
	history, err := repository.NewHistory(ctx, s, clock)
	require.NoError(t, err)
	week, err := repository.NewWeek(ctx, s)
	require.NoError(t, err)

	deps := Deps{
		Roster:    roster,
		Ratings:   r,
		Ledger:    ledger,
		History:   history,
		Week:      week,
		Proposals: repomemory.NewRepository(clock),
	}
	opts = append([]Option{WithClock(clock)}, opts...)

	return &fixture{
		engine:  NewEngine(settings, deps, opts...),
		store:   s,
		ratings: r,
		ledger:  ledger,
		history: history,
		clock:   clock,
	}
}

func (f *fixture) rating(t *testing.T, team string) models.RatingRecord {
	t.Helper()
	require.NoError(t, f.ratings.Load(context.Background()))
	rec, ok := f.ratings.Get(team)
	require.True(t, ok, "no rating for %s", team)
	return rec
}

func (f *fixture) match(t *testing.T, id string) models.Match {
	t.Helper()
	m, found, err := f.ledger.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found, "no match %s", id)
	return m
}

func (f *fixture) rows(t *testing.T, sheet string) [][]string {
	t.Helper()
	sh, err := f.store.Sheet(context.Background(), sheet, repository.Headers[sheet])
	require.NoError(t, err)
	rows, err := sh.Rows(context.Background())
	require.NoError(t, err)
	return rows[1:]
}

// benchTeam empties every roster slot but the captain.
func (f *fixture) benchTeam(t *testing.T, row int) {
	t.Helper()
	sh, err := f.store.Sheet(context.Background(), repository.SheetTeams, repository.Headers[repository.SheetTeams])
	require.NoError(t, err)
	for col := 2; col <= 6; col++ {
		require.NoError(t, sh.UpdateCell(context.Background(), row, col, ""))
	}
}

func matchIDs(matches []models.Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}

func TestAdvanceWeek_GeneratesPairings(t *testing.T) {
	ctx := context.Background()
	rec := &mockRecorder{}
	rec.On("MatchCreated", models.OriginWeekly).Times(4)
	rec.On("WeekAdvanced", 1, FailureNone).Once()

	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings, WithRecorder(rec))

	res, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t,
		[]string{"Week1-AAA-BBB", "Week1-CCC-DDD", "Week1-AAA-CCC", "Week1-BBB-DDD"},
		matchIDs(res.Matches))
	assert.Empty(t, res.ShortTeams)
	assert.Empty(t, res.Reconciled)

	for _, m := range res.Matches {
		stored := f.match(t, m.ID)
		assert.Equal(t, models.StatusAutoProposed, stored.Status)
		assert.Equal(t, models.OriginWeekly, stored.Origin)
		assert.Equal(t, 1, stored.Week)
		assert.Equal(t, repository.SystemProposer, stored.ProposedBy)
	}
	assert.Len(t, f.rows(t, repository.SheetWeekly), 4)

	week, err := f.engine.CurrentWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, week)
	rec.AssertExpectations(t)
}

func TestAdvanceWeek_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)
	b := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	resA, err := a.engine.AdvanceWeek(ctx, 3, false)
	require.NoError(t, err)
	resB, err := b.engine.AdvanceWeek(ctx, 3, false)
	require.NoError(t, err)
	assert.Equal(t, matchIDs(resA.Matches), matchIDs(resB.Matches))
}

func TestAdvanceWeek_CreatesMissingRatings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, nil)

	res, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	require.True(t, res.OK)

	for _, team := range defaultTeams {
		rec := f.rating(t, team[0])
		assert.Equal(t, 800, rec.Rating)
		assert.Zero(t, rec.MatchesPlayed)
	}
	assert.Equal(t,
		[]string{"Week1-AAA-BBB", "Week1-CCC-DDD", "Week1-AAA-CCC", "Week1-BBB-DDD"},
		matchIDs(res.Matches))
}

func TestAdvanceWeek_Failures(t *testing.T) {
	oneEligible := [][]string{
		{"AAA Team", "Ann (1)", "Abe (2)", "Amy (3)"},
		{"BBB Team", "Bea (4)"},
		{"CCC Team", "Cat (7)", "Cy (8)"},
	}

	tests := []struct {
		name     string
		teams    [][]string
		settings func(*Settings)
		week     int
		expected FailureKind
	}{
		{
			name:     "week zero",
			teams:    defaultTeams,
			week:     0,
			expected: FailureInvalidWeek,
		},
		{
			name:     "single team",
			teams:    defaultTeams[:1],
			week:     1,
			expected: FailureNotEnoughTeams,
		},
		{
			name:     "minimum start above pool",
			teams:    defaultTeams,
			settings: func(s *Settings) { s.MinimumTeamsStart = 5 },
			week:     1,
			expected: FailureNotEnoughTeams,
		},
		{
			name:     "one eligible team",
			teams:    oneEligible,
			week:     1,
			expected: FailureNotEnoughEligibleTeams,
		},
		{
			name:     "roster minimum raised",
			teams:    defaultTeams,
			settings: func(s *Settings) { s.TeamMinPlayers = 4 },
			week:     1,
			expected: FailureNotEnoughEligibleTeams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			settings := DefaultSettings()
			if tt.settings != nil {
				tt.settings(&settings)
			}
			rec := &mockRecorder{}
			rec.On("WeekAdvanced", tt.week, tt.expected).Once()
			f := newFixture(t, settings, tt.teams, defaultRatings, WithRecorder(rec))

			res, err := f.engine.AdvanceWeek(ctx, tt.week, true)
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tt.expected, res.Kind)
			assert.NotEmpty(t, res.Message)

			assert.Empty(t, f.rows(t, repository.SheetMatches))
			assert.Empty(t, f.rows(t, repository.SheetLeagueWeek))
			rec.AssertExpectations(t)
		})
	}
}

func TestAdvanceWeek_ForceReconciles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	_, err = f.engine.ScheduleMatch(ctx, "Week1-CCC-DDD", "2026-10-21")
	require.NoError(t, err)

	f.benchTeam(t, 2)

	res, err := f.engine.AdvanceWeek(ctx, 2, true)
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)

	require.Len(t, res.Reconciled, 4)
	outcomes := map[string]Reconciliation{}
	for _, r := range res.Reconciled {
		outcomes[r.Match.ID] = r
	}

	ab := outcomes["Week1-AAA-BBB"]
	assert.Equal(t, models.StatusForfeited, ab.Outcome)
	assert.Equal(t, "AAA Team", ab.Winner)
	assert.Equal(t, "BBB Team", ab.Loser)
	assert.True(t, ab.RatingApplied)

	bd := outcomes["Week1-BBB-DDD"]
	assert.Equal(t, models.StatusForfeited, bd.Outcome)
	assert.Equal(t, "DDD Team", bd.Winner)

	assert.Equal(t, models.StatusDoubleForfeit, outcomes["Week1-CCC-DDD"].Outcome)
	assert.Equal(t, models.StatusDoubleForfeit, outcomes["Week1-AAA-CCC"].Outcome)

	assert.Equal(t, models.StatusForfeited, f.match(t, "Week1-AAA-BBB").Status)
	assert.Equal(t, "AAA Team", f.match(t, "Week1-AAA-BBB").Winner)
	assert.Equal(t, models.StatusDoubleForfeit, f.match(t, "Week1-CCC-DDD").Status)
	assert.Empty(t, f.rows(t, repository.SheetScheduled))

	assert.Equal(t, 1025, f.rating(t, "AAA Team").Rating)
	bbb := f.rating(t, "BBB Team")
	assert.Equal(t, 900, bbb.Rating)
	assert.Equal(t, 2, bbb.Losses)
	assert.Equal(t, 2, bbb.MatchesPlayed)
	assert.Equal(t, 900, f.rating(t, "CCC Team").Rating)
	assert.Equal(t, 875, f.rating(t, "DDD Team").Rating)

	entries, err := f.history.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, 1, e.Week)
		assert.Contains(t, []string{ReasonForfeit, ReasonDoubleForfeit}, e.Reason)
	}

	assert.Equal(t,
		[]string{"Week2-AAA-CCC", "Week2-AAA-DDD", "Week2-CCC-DDD"},
		matchIDs(res.Matches))
	for _, a := range f.rows(t, repository.SheetWeekly) {
		assert.Equal(t, "2", a[0])
	}
}

func TestAdvanceWeek_ForfeitWithoutRatingChange(t *testing.T) {
	ctx := context.Background()
	settings := DefaultSettings()
	settings.ForfeitAffectsElo = false
	f := newFixture(t, settings, defaultTeams, defaultRatings)

	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	f.benchTeam(t, 2)

	res, err := f.engine.AdvanceWeek(ctx, 2, true)
	require.NoError(t, err)
	require.True(t, res.OK)

	for _, r := range res.Reconciled {
		assert.False(t, r.RatingApplied)
	}
	assert.Equal(t, 1000, f.rating(t, "AAA Team").Rating)
	assert.Equal(t, 950, f.rating(t, "BBB Team").Rating)
	assert.Equal(t, models.StatusForfeited, f.match(t, "Week1-AAA-BBB").Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	f.benchTeam(t, 2)

	eligible := map[string]bool{
		foldKey("AAA Team"): true,
		foldKey("CCC Team"): true,
		foldKey("DDD Team"): true,
	}
	require.NoError(t, f.ratings.Load(ctx))
	first, err := f.engine.reconcile(ctx, eligible)
	require.NoError(t, err)
	require.NoError(t, f.ratings.Flush(ctx))
	assert.Len(t, first, 4)

	before := f.ratings.All()
	second, err := f.engine.reconcile(ctx, eligible)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, before, f.ratings.All())

	entries, err := f.history.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

// flakyHistory fails the failAt-th Record call.
type flakyHistory struct {
	HistoryLog
	calls  int
	failAt int
}

func (h *flakyHistory) Record(ctx context.Context, e models.HistoryEntry) error {
	h.calls++
	if h.calls == h.failAt {
		return errors.New("history sheet unavailable")
	}
	return h.HistoryLog.Record(ctx, e)
}

func TestReconcile_FailureKeepsRatingChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	f.benchTeam(t, 2)
	f.engine.deps.History = &flakyHistory{HistoryLog: f.history, failAt: 4}

	_, err = f.engine.AdvanceWeek(ctx, 2, true)
	require.Error(t, err)

	assert.Equal(t, models.StatusForfeited, f.match(t, "Week1-AAA-BBB").Status)
	assert.Equal(t, models.StatusForfeited, f.match(t, "Week1-BBB-DDD").Status)
	assert.Equal(t, 1025, f.rating(t, "AAA Team").Rating)
	bbb := f.rating(t, "BBB Team")
	assert.Equal(t, 900, bbb.Rating)
	assert.Equal(t, 2, bbb.Losses)
	assert.Equal(t, 875, f.rating(t, "DDD Team").Rating)
}

func TestResolveScore_Winner(t *testing.T) {
	ctx := context.Background()
	rec := &mockRecorder{}
	rec.On("MatchCreated", mock.Anything)
	rec.On("WeekAdvanced", mock.Anything, mock.Anything)
	rec.On("ScoreResolved", false).Once()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings, WithRecorder(rec))

	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)

	res, err := f.engine.ResolveScore(ctx, "week1-aaa-bbb", []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 3}})
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "AAA Team", res.Winner)
	assert.Equal(t, "BBB Team", res.Loser)
	assert.False(t, res.Tie)
	assert.Equal(t, 5, res.Breakdown.TotalA)
	assert.Equal(t, 4, res.Breakdown.TotalB)

	m := f.match(t, "Week1-AAA-BBB")
	assert.Equal(t, models.StatusFinished, m.Status)
	assert.Equal(t, "AAA Team", m.Winner)
	assert.Equal(t, "BBB Team", m.Loser)

	winner := f.rating(t, "AAA Team")
	assert.Equal(t, 1025, winner.Rating)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.MatchesPlayed)
	loser := f.rating(t, "BBB Team")
	assert.Equal(t, 925, loser.Rating)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 1, loser.MatchesPlayed)

	scoring := f.rows(t, repository.SheetScoring)
	require.Len(t, scoring, 1)
	assert.Equal(t, "Week1-AAA-BBB", scoring[0][0])

	entries, err := f.history.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonScored, entries[0].Reason)
	assert.Equal(t, "AAA Team", entries[0].Winner)
	rec.AssertExpectations(t)
}

func TestResolveScore_Tie(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"labelled", "Tie", "Tie"},
		{"blank", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			settings := DefaultSettings()
			settings.TieLabel = tt.label
			f := newFixture(t, settings, defaultTeams, defaultRatings)
			_, err := f.engine.AdvanceWeek(ctx, 1, false)
			require.NoError(t, err)
			before := f.ratings.All()

			res, err := f.engine.ResolveScore(ctx, "Week1-AAA-BBB", []models.MapScore{{Gamemode: "Payload", TeamAScore: 2, TeamBScore: 2}, {Gamemode: "Control", TeamAScore: 1, TeamBScore: 1}})
			require.NoError(t, err)
			require.True(t, res.OK, res.Message)
			assert.True(t, res.Tie)

			m := f.match(t, "Week1-AAA-BBB")
			assert.Equal(t, models.StatusFinished, m.Status)
			assert.Equal(t, tt.expected, m.Winner)
			assert.Empty(t, m.Loser)

			require.NoError(t, f.ratings.Load(ctx))
			assert.Equal(t, before, f.ratings.All())
		})
	}
}

func TestResolveScore_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)
	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)

	valid := []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 3}}

	res, err := f.engine.ResolveScore(ctx, "Week1-AAA-BBX", valid)
	require.NoError(t, err)
	assert.Equal(t, FailureMatchNotFound, res.Kind)
	assert.Contains(t, res.Suggestions, "Week1-AAA-BBB")

	res, err = f.engine.ResolveScore(ctx, "Week1-AAA-BBB", valid[:1])
	require.NoError(t, err)
	assert.Equal(t, FailureInvalidScores, res.Kind)
	assert.Equal(t, models.StatusAutoProposed, f.match(t, "Week1-AAA-BBB").Status)

	res, err = f.engine.ResolveScore(ctx, "Week1-AAA-BBB", valid)
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = f.engine.ResolveScore(ctx, "Week1-AAA-BBB", valid)
	require.NoError(t, err)
	assert.Equal(t, FailureAlreadyResolved, res.Kind)
	assert.Equal(t, 1025, f.rating(t, "AAA Team").Rating)
	assert.Equal(t, 1, f.rating(t, "AAA Team").MatchesPlayed)
}

func TestScoreProposalFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)
	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)

	maps := []models.MapScore{{Gamemode: "Payload", TeamAScore: 1, TeamBScore: 3}, {Gamemode: "Control", TeamAScore: 0, TeamBScore: 2}}

	res, err := f.engine.ProposeScore(ctx, "Week1-AAA-BBB", "7", maps)
	require.NoError(t, err)
	assert.Equal(t, FailureNotParticipant, res.Kind)

	res, err = f.engine.AcceptScore(ctx, "Week1-AAA-BBB", "4")
	require.NoError(t, err)
	assert.Equal(t, FailureNoPendingProposal, res.Kind)

	res, err = f.engine.ProposeScore(ctx, "Week1-AAA-BBB", "2", maps)
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, models.StatusScoreProposed, f.match(t, "Week1-AAA-BBB").Status)

	res, err = f.engine.AcceptScore(ctx, "Week1-AAA-BBB", "3")
	require.NoError(t, err)
	assert.Equal(t, FailureNotParticipant, res.Kind)

	res, err = f.engine.AcceptScore(ctx, "Week1-AAA-BBB", "5")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "BBB Team", res.Winner)
	assert.Equal(t, models.StatusFinished, f.match(t, "Week1-AAA-BBB").Status)
	assert.Equal(t, 975, f.rating(t, "BBB Team").Rating)

	res, err = f.engine.AcceptScore(ctx, "Week1-AAA-BBB", "5")
	require.NoError(t, err)
	assert.Equal(t, FailureNoPendingProposal, res.Kind)
}

func TestDenyScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)
	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)

	maps := []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 1}}
	_, err = f.engine.ProposeScore(ctx, "Week1-CCC-DDD", "7", maps)
	require.NoError(t, err)

	res, err := f.engine.DenyScore(ctx, "Week1-CCC-DDD", "10")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, models.StatusDisputed, f.match(t, "Week1-CCC-DDD").Status)

	res, err = f.engine.ProposeScore(ctx, "Week1-CCC-DDD", "7", maps)
	require.NoError(t, err)
	assert.Equal(t, FailureInvalidTransition, res.Kind)

	scored, err := f.engine.ResolveScore(ctx, "Week1-CCC-DDD", maps)
	require.NoError(t, err)
	assert.True(t, scored.OK)
	assert.Equal(t, models.StatusFinished, f.match(t, "Week1-CCC-DDD").Status)
}

func TestExpireScoreProposals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)
	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)

	_, err = f.engine.ProposeScore(ctx, "Week1-AAA-BBB", "1", []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 1}})
	require.NoError(t, err)

	assert.Empty(t, f.engine.ExpireScoreProposals(24*time.Hour))
	f.clock.Advance(25 * time.Hour)
	expired := f.engine.ExpireScoreProposals(24 * time.Hour)
	require.Len(t, expired, 1)
	assert.Equal(t, "Week1-AAA-BBB", expired[0].MatchID)

	res, err := f.engine.AcceptScore(ctx, "Week1-AAA-BBB", "4")
	require.NoError(t, err)
	assert.Equal(t, FailureNoPendingProposal, res.Kind)
	assert.Equal(t, models.StatusScoreProposed, f.match(t, "Week1-AAA-BBB").Status)
}

func TestChallenge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)
	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)

	res, err := f.engine.Challenge(ctx, "aaa team", "DDD TEAM", "1", "2026-10-24")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "1", res.Match.ID)
	assert.Equal(t, "AAA Team", res.Match.TeamA)
	assert.Equal(t, "DDD Team", res.Match.TeamB)
	assert.Equal(t, models.StatusProposed, res.Match.Status)
	assert.Equal(t, 1, res.Match.Week)
	assert.Len(t, f.rows(t, repository.SheetProposed), 1)

	scored, err := f.engine.ResolveScore(ctx, "1", []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 1}})
	require.NoError(t, err)
	require.True(t, scored.OK, scored.Message)

	challenges := f.rows(t, repository.SheetChallenges)
	require.Len(t, challenges, 1)
	assert.Equal(t, "2026-10-19", challenges[0][6])
	assert.Empty(t, f.rows(t, repository.SheetProposed))
}

func TestCreateMatch_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	res, err := f.engine.ProposeMatch(ctx, "AAA Tem", "BBB Team", "1", "")
	require.NoError(t, err)
	assert.Equal(t, FailureTeamNotFound, res.Kind)
	assert.Contains(t, res.Suggestions, "AAA Team")

	res, err = f.engine.ProposeMatch(ctx, "AAA Team", " aaa team ", "1", "")
	require.NoError(t, err)
	assert.Equal(t, FailureSameTeam, res.Kind)

	assert.Empty(t, f.rows(t, repository.SheetMatches))
}

func TestScheduleMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	created, err := f.engine.ProposeMatch(ctx, "AAA Team", "CCC Team", "1", "Friday")
	require.NoError(t, err)
	require.True(t, created.OK)

	res, err := f.engine.ScheduleMatch(ctx, created.Match.ID, " 2026-10-23 20:00 ")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, models.StatusScheduled, res.Match.Status)
	assert.Equal(t, "2026-10-23 20:00", f.match(t, created.Match.ID).ScheduledDate)
	assert.Empty(t, f.rows(t, repository.SheetProposed))
	assert.Len(t, f.rows(t, repository.SheetScheduled), 1)

	unscheduled, err := f.engine.Unscheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, unscheduled)

	_, err = f.engine.ResolveScore(ctx, created.Match.ID, []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 1}})
	require.NoError(t, err)
	res, err = f.engine.ScheduleMatch(ctx, created.Match.ID, "2026-10-30")
	require.NoError(t, err)
	assert.Equal(t, FailureAlreadyResolved, res.Kind)

	res, err = f.engine.ScheduleMatch(ctx, "404", "2026-10-30")
	require.NoError(t, err)
	assert.Equal(t, FailureMatchNotFound, res.Kind)
}

// vanishingLedger deletes a match just before scheduling it.
type vanishingLedger struct {
	*repository.Ledger
}

func (l vanishingLedger) Schedule(ctx context.Context, id, date string) (models.Match, bool, error) {
	if _, err := l.Ledger.Delete(ctx, id); err != nil {
		return models.Match{}, false, err
	}
	return l.Ledger.Schedule(ctx, id, date)
}

func TestScheduleMatch_RowGone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	created, err := f.engine.ProposeMatch(ctx, "AAA Team", "CCC Team", "1", "Friday")
	require.NoError(t, err)
	require.True(t, created.OK)
	f.engine.deps.Ledger = vanishingLedger{f.ledger}

	res, err := f.engine.ScheduleMatch(ctx, created.Match.ID, "2026-10-23")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, FailureMatchNotFound, res.Kind)
	assert.Empty(t, res.Match.ID)
}

func TestClearProposals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	for _, pair := range [][2]string{{"AAA Team", "BBB Team"}, {"CCC Team", "DDD Team"}, {"BBB Team", "DDD Team"}} {
		res, err := f.engine.ProposeMatch(ctx, pair[0], pair[1], "1", "")
		require.NoError(t, err)
		require.True(t, res.OK)
	}

	res, err := f.engine.ClearProposals(ctx, "bbb")
	require.NoError(t, err)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, []string{"1", "3"}, matchIDs(res.Cleared))
	assert.Equal(t, models.StatusCancelled, f.match(t, "1").Status)
	assert.Equal(t, models.StatusCancelled, f.match(t, "3").Status)
	assert.Equal(t, models.StatusProposed, f.match(t, "2").Status)
	assert.Len(t, f.rows(t, repository.SheetProposed), 1)

	res, err = f.engine.ClearProposals(ctx, "zzz")
	require.NoError(t, err)
	assert.Equal(t, FailureMatchNotFound, res.Kind)

	res, err = f.engine.ClearProposals(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, FailureTeamNotFound, res.Kind)
}

func TestSetRostersLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultSettings(), defaultTeams, defaultRatings)

	n, err := f.engine.SetRostersLocked(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	card, err := f.engine.Team(ctx, "ccc team")
	require.NoError(t, err)
	assert.True(t, card.Team.Locked)

	n, err = f.engine.SetRostersLocked(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	ratings := append([][]string{{"Gone Team", "1300", "9", "1", "10"}}, defaultRatings...)
	f := newFixture(t, DefaultSettings(), defaultTeams, ratings)

	_, err := f.engine.AdvanceWeek(ctx, 1, false)
	require.NoError(t, err)
	_, err = f.engine.ResolveScore(ctx, "Week1-AAA-BBB", []models.MapScore{{Gamemode: "Payload", TeamAScore: 3, TeamBScore: 1}, {Gamemode: "Control", TeamAScore: 2, TeamBScore: 1}})
	require.NoError(t, err)

	board, err := f.engine.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 5)
	assert.Equal(t, "Gone Team", board[0].TeamName)
	assert.Equal(t, "AAA Team", board[1].TeamName)

	matchups, err := f.engine.Matchups(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, matchups, 4)
	none, err := f.engine.Matchups(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	unscheduled, err := f.engine.Unscheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Week1-CCC-DDD", "Week1-AAA-CCC", "Week1-BBB-DDD"}, matchIDs(unscheduled))

	card, err := f.engine.Team(ctx, "aaa team")
	require.NoError(t, err)
	require.True(t, card.OK)
	assert.Equal(t, "AAA Team", card.Team.Name)
	assert.True(t, card.Rated)
	assert.Equal(t, 1025, card.Rating.Rating)
	assert.Equal(t, []string{"Week1-AAA-CCC"}, matchIDs(card.Matches))

	card, err = f.engine.Team(ctx, "Nobody")
	require.NoError(t, err)
	assert.Equal(t, FailureTeamNotFound, card.Kind)

	orphans, err := f.engine.Orphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "Gone Team", orphans[0].TeamName)
}
