package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Roster is the team directory. Roster cells are parsed into structured
// entries when a row is read, so callers never see the "Name (id)" encoding.
type Roster struct {
	sheet store.Sheet
}

func NewRoster(ctx context.Context, s store.Store) (*Roster, error) {
	sh, err := open(ctx, s, SheetTeams)
	if err != nil {
		return nil, err
	}
	return &Roster{sheet: sh}, nil
}

// Teams returns every team in directory order.
func (r *Roster) Teams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.sheet.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading teams: %w", err)
	}

	var teams []models.Team
	for _, row := range rows[1:] {
		name := strings.TrimSpace(store.Cell(row, colTeamName))
		if name == "" {
			continue
		}
		teams = append(teams, parseTeam(name, row))
	}
	return teams, nil
}

func parseTeam(name string, row []string) models.Team {
	team := models.Team{Name: name, Locked: parseBool(store.Cell(row, colLocked))}
	for col := colFirstPlayer; col <= colLastPlayer; col++ {
		cell := strings.TrimSpace(store.Cell(row, col))
		if cell == "" {
			continue
		}
		team.Roster = append(team.Roster, models.ParseRosterEntry(cell))
	}
	return team
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "locked":
		return true
	}
	return false
}

// Find looks a team up by name, ignoring case and surrounding space.
func (r *Roster) Find(ctx context.Context, name string) (models.Team, bool, error) {
	teams, err := r.Teams(ctx)
	if err != nil {
		return models.Team{}, false, err
	}
	for _, t := range teams {
		if sameKey(t.Name, name) {
			return t, true, nil
		}
	}
	return models.Team{}, false, nil
}

// FindByMember returns the team whose roster lists memberID.
func (r *Roster) FindByMember(ctx context.Context, memberID string) (models.Team, bool, error) {
	teams, err := r.Teams(ctx)
	if err != nil {
		return models.Team{}, false, err
	}
	for _, t := range teams {
		if t.HasMember(memberID) {
			return t, true, nil
		}
	}
	return models.Team{}, false, nil
}

// MemberCount counts the filled roster slots of a team. Unknown teams have none.
func (r *Roster) MemberCount(ctx context.Context, name string) (int, error) {
	t, _, err := r.Find(ctx, name)
	if err != nil {
		return 0, err
	}
	return t.MemberCount(), nil
}

func (r *Roster) IsEligible(ctx context.Context, name string, minPlayers int) (bool, error) {
	n, err := r.MemberCount(ctx, name)
	if err != nil {
		return false, err
	}
	return n >= minPlayers, nil
}

// EligibleTeams returns the names of teams meeting minPlayers, in directory order.
func (r *Roster) EligibleTeams(ctx context.Context, minPlayers int) ([]string, error) {
	teams, err := r.Teams(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, t := range teams {
		if t.Eligible(minPlayers) {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

// Suggest returns team names resembling query.
func (r *Roster) Suggest(ctx context.Context, query string) ([]string, error) {
	teams, err := r.Teams(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return suggest(query, names), nil
}

// SetLocked sets the lock flag of every team and returns how many changed.
func (r *Roster) SetLocked(ctx context.Context, locked bool) (int, error) {
	rows, err := r.sheet.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading teams: %w", err)
	}

	value := "FALSE"
	if locked {
		value = "TRUE"
	}

	changed := 0
	for i, row := range rows {
		if i == 0 || strings.TrimSpace(store.Cell(row, colTeamName)) == "" {
			continue
		}
		if parseBool(store.Cell(row, colLocked)) == locked {
			continue
		}
		if err := r.sheet.UpdateCell(ctx, i, colLocked, value); err != nil {
			return changed, fmt.Errorf("locking %s: %w", store.Cell(row, colTeamName), err)
		}
		changed++
	}
	return changed, nil
}
