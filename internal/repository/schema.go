// Package repository maps league records onto the sheets of a tabular store.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/omarshaarawi/leaguebot/internal/store"
)

const (
	SheetTeams       = "Teams"
	SheetMatches     = "Matches"
	SheetScoring     = "Scoring"
	SheetProposed    = "Match Proposed"
	SheetScheduled   = "Match Scheduled"
	SheetLeaderboard = "Leaderboard"
	SheetWeekly      = "Weekly Matches"
	SheetChallenges  = "Challenge Matches"
	SheetHistory     = "Match History"
	SheetLeagueWeek  = "LeagueWeek"
)

var mapHeaders = []string{
	"Map 1 Mode", "Map 1 A", "Map 1 B",
	"Map 2 Mode", "Map 2 A", "Map 2 B",
	"Map 3 Mode", "Map 3 A", "Map 3 B",
}

// Headers holds the header row of every sheet the league owns.
var Headers = map[string][]string{
	SheetTeams:       {"Team Name", "Captain", "Player 2", "Player 3", "Player 4", "Player 5", "Player 6", "Locked"},
	SheetMatches:     {"Match ID", "Team A", "Team B", "Proposed Date", "Scheduled Date", "Status", "Winner", "Loser", "Proposed By", "Week", "Origin"},
	SheetScoring:     concat([]string{"Match ID", "Team A", "Team B"}, mapHeaders, []string{"Total A", "Total B", "Maps Won A", "Maps Won B", "Winner"}),
	SheetProposed:    {"Match ID", "Team A", "Team B", "Proposer ID", "Proposed Date"},
	SheetScheduled:   {"Match ID", "Team A", "Team B", "Scheduled Date"},
	SheetLeaderboard: {"Team Name", "Rating", "Wins", "Losses", "Matches Played"},
	SheetWeekly:      {"Week", "Team A", "Team B", "Match ID", "Scheduled Date"},
	SheetChallenges:  {"Match ID", "Week", "Team A", "Team B", "Proposer ID", "Proposed Date", "Completion Date"},
	SheetHistory: concat([]string{"Week", "Match ID", "Team A", "Team B", "Proposed Date", "Scheduled Date"}, mapHeaders,
		[]string{"Total A", "Total B", "Maps Won A", "Maps Won B", "Winner", "Reason", "Recorded At"}),
	SheetLeagueWeek: {"League Week"},
}

// SheetNames lists the league sheets in the order they are created.
var SheetNames = []string{
	SheetTeams, SheetMatches, SheetScoring, SheetProposed, SheetScheduled,
	SheetLeaderboard, SheetWeekly, SheetChallenges, SheetHistory, SheetLeagueWeek,
}

// Matches sheet columns.
const (
	colMatchID = iota
	colTeamA
	colTeamB
	colProposedDate
	colScheduledDate
	colStatus
	colWinner
	colLoser
	colProposedBy
	colWeek
	colOrigin
)

// Teams sheet columns.
const (
	colTeamName    = 0
	colFirstPlayer = 1
	colLastPlayer  = 6
	colLocked      = 7
)

// EnsureSchema creates every missing sheet and repairs header rows that drifted.
func EnsureSchema(ctx context.Context, s store.Store) error {
	for _, name := range SheetNames {
		if _, err := open(ctx, s, name); err != nil {
			return err
		}
	}
	return nil
}

func open(ctx context.Context, s store.Store, name string) (store.Sheet, error) {
	sh, err := s.Sheet(ctx, name, Headers[name])
	if err != nil {
		return nil, fmt.Errorf("opening %s sheet: %w", name, err)
	}
	return sh, nil
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// foldKey normalizes names and ids for case-insensitive comparison.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func sameKey(a, b string) bool {
	return foldKey(a) == foldKey(b)
}

func atoi(sheet, field, value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring non-numeric cell", "sheet", sheet, "field", field, "value", value)
		return 0
	}
	return n
}
