package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/repository"
)

// findTeam looks a team up by case-insensitive name. A miss fills r with a
// not-found failure and close names.
func (e *Engine) findTeam(ctx context.Context, teams []models.Team, name string, r *Result) (models.Team, bool, error) {
	for _, t := range teams {
		if foldKey(t.Name) == foldKey(name) {
			return t, true, nil
		}
	}
	suggestions, err := e.deps.Roster.Suggest(ctx, name)
	if err != nil {
		return models.Team{}, false, err
	}
	*r = fail(FailureTeamNotFound, fmt.Sprintf("Team %q not found.", strings.TrimSpace(name)))
	r.Suggestions = suggestions
	return models.Team{}, false, nil
}

// ProposeMatch records a manual match between two teams for the current week.
func (e *Engine) ProposeMatch(ctx context.Context, teamA, teamB, proposedBy, date string) (*MatchResult, error) {
	return e.createMatch(ctx, models.OriginManual, teamA, teamB, proposedBy, date)
}

// Challenge records a challenge match outside the weekly pairings.
func (e *Engine) Challenge(ctx context.Context, teamA, teamB, proposedBy, date string) (*MatchResult, error) {
	return e.createMatch(ctx, models.OriginChallenge, teamA, teamB, proposedBy, date)
}

func (e *Engine) createMatch(ctx context.Context, origin models.MatchOrigin, teamA, teamB, proposedBy, date string) (*MatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &MatchResult{}
	teams, err := e.deps.Roster.Teams(ctx)
	if err != nil {
		return nil, err
	}
	a, ok, err := e.findTeam(ctx, teams, teamA, &res.Result)
	if err != nil || !ok {
		return res, err
	}
	b, ok, err := e.findTeam(ctx, teams, teamB, &res.Result)
	if err != nil || !ok {
		return res, err
	}
	if foldKey(a.Name) == foldKey(b.Name) {
		res.Result = fail(FailureSameTeam, fmt.Sprintf("%s cannot play against itself.", a.Name))
		return res, nil
	}

	week, err := e.deps.Week.Current(ctx)
	if err != nil {
		return nil, err
	}

	m, err := e.deps.Ledger.Create(ctx, repository.NewMatch{
		TeamA:        a.Name,
		TeamB:        b.Name,
		Week:         week,
		Origin:       origin,
		ProposedDate: strings.TrimSpace(date),
		ProposedBy:   proposedBy,
	})
	if err != nil {
		return nil, err
	}
	e.recorder.MatchCreated(origin)
	slog.Info("Created match", "match_id", m.ID, "origin", origin, "team_a", m.TeamA, "team_b", m.TeamB)

	res.Match = m
	res.Result = succeed(fmt.Sprintf("%s match %s created: %s vs %s.", origin, m.ID, m.TeamA, m.TeamB))
	return res, nil
}

// ScheduleMatch sets the agreed play date of an open match.
func (e *Engine) ScheduleMatch(ctx context.Context, matchID, date string) (*MatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &MatchResult{}
	m, found, err := e.lookupMatch(ctx, matchID, &res.Result)
	if err != nil || !found {
		return res, err
	}
	res.Match = m

	if m.Status.Terminal() {
		res.Result = fail(FailureAlreadyResolved, fmt.Sprintf("Match %s is already %s.", m.ID, m.Status))
		return res, nil
	}

	date = strings.TrimSpace(date)
	scheduled, found, err := e.deps.Ledger.Schedule(ctx, m.ID, date)
	if errors.Is(err, models.ErrInvalidTransition) {
		res.Result = fail(FailureInvalidTransition, fmt.Sprintf("Match %s cannot be scheduled while %s.", m.ID, m.Status))
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	if !found {
		res.Match = models.Match{}
		res.Result = fail(FailureMatchNotFound, fmt.Sprintf("Match %q not found.", m.ID))
		return res, nil
	}

	res.Match = scheduled
	res.Result = succeed(fmt.Sprintf("Match %s scheduled for %s.", m.ID, date))
	return res, nil
}

// ClearProposals removes pending match proposals involving any team whose
// name contains query. Matches still waiting in Proposed are cancelled.
func (e *Engine) ClearProposals(ctx context.Context, query string) (*ClearResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &ClearResult{}
	needle := foldKey(query)
	if needle == "" {
		res.Result = fail(FailureTeamNotFound, "Give part of a team name to clear its proposals.")
		return res, nil
	}

	cleared, err := e.deps.Ledger.DeleteProposalsWhere(ctx, func(m models.Match) bool {
		return strings.Contains(foldKey(m.TeamA), needle) || strings.Contains(foldKey(m.TeamB), needle)
	})
	if err != nil {
		return nil, err
	}

	for i, m := range cleared {
		if m.Status != models.StatusProposed {
			continue
		}
		found, err := e.deps.Ledger.Transition(ctx, m.ID, models.StatusCancelled, "", "")
		if err != nil {
			return nil, err
		}
		if found {
			cleared[i].Status = models.StatusCancelled
		}
	}

	res.Cleared = cleared
	if len(cleared) == 0 {
		res.Result = fail(FailureMatchNotFound, fmt.Sprintf("No proposed matches involve %q.", strings.TrimSpace(query)))
		return res, nil
	}
	slog.Info("Cleared match proposals", "query", query, "count", len(cleared))
	res.Result = succeed(fmt.Sprintf("Cleared %d proposed matches.", len(cleared)))
	return res, nil
}

// SetRostersLocked locks or unlocks every roster and reports how many changed.
func (e *Engine) SetRostersLocked(ctx context.Context, locked bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.deps.Roster.SetLocked(ctx, locked)
	if err != nil {
		return 0, fmt.Errorf("setting roster lock: %w", err)
	}
	slog.Info("Updated roster lock", "locked", locked, "changed", n)
	return n, nil
}
