package league

import (
	"context"
	"sort"

	"github.com/omarshaarawi/leaguebot/internal/models"
)

type TeamCard struct {
	Result
	Team    models.Team
	Rating  models.RatingRecord
	Rated   bool
	Matches []models.Match
}

// Leaderboard returns ratings sorted from highest to lowest.
func (e *Engine) Leaderboard(ctx context.Context) ([]models.RatingRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.deps.Ratings.Load(ctx); err != nil {
		return nil, err
	}
	return e.deps.Ratings.All(), nil
}

func (e *Engine) CurrentWeek(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deps.Week.Current(ctx)
}

// Matchups returns the weekly matches generated for week in ledger order.
func (e *Engine) Matchups(ctx context.Context, week int) ([]models.Match, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.filterMatches(ctx, func(m models.Match) bool {
		return m.Origin == models.OriginWeekly && m.Week == week
	})
}

// Unscheduled returns open matches that have no play date yet.
func (e *Engine) Unscheduled(ctx context.Context) ([]models.Match, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.filterMatches(ctx, models.Match.Unscheduled)
}

func (e *Engine) filterMatches(ctx context.Context, keep func(models.Match) bool) ([]models.Match, error) {
	all, err := e.deps.Ledger.Matches(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Match
	for _, m := range all {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Team looks up one team with its rating and open matches.
func (e *Engine) Team(ctx context.Context, name string) (*TeamCard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	card := &TeamCard{}
	teams, err := e.deps.Roster.Teams(ctx)
	if err != nil {
		return nil, err
	}
	t, ok, err := e.findTeam(ctx, teams, name, &card.Result)
	if err != nil || !ok {
		return card, err
	}
	card.Team = t

	if err := e.deps.Ratings.Load(ctx); err != nil {
		return nil, err
	}
	card.Rating, card.Rated = e.deps.Ratings.Get(t.Name)

	card.Matches, err = e.filterMatches(ctx, func(m models.Match) bool {
		return m.Involves(t.Name) && !m.Status.Terminal()
	})
	if err != nil {
		return nil, err
	}
	card.Result = succeed("")
	return card, nil
}

// Orphans lists rating records whose team is no longer in the directory.
func (e *Engine) Orphans(ctx context.Context) ([]models.RatingRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.deps.Ratings.Load(ctx); err != nil {
		return nil, err
	}
	teams, err := e.deps.Roster.Teams(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}

	orphans := e.deps.Ratings.Orphans(names)
	sort.SliceStable(orphans, func(i, j int) bool { return orphans[i].TeamName < orphans[j].TeamName })
	return orphans, nil
}

// Teams returns the roster directory in directory order.
func (e *Engine) Teams(ctx context.Context) ([]models.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deps.Roster.Teams(ctx)
}
