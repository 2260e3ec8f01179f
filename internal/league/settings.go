// Package league runs the weekly matchmaking and match lifecycle of the league:
// pairing, reconciliation of stale matches and score resolution.
package league

// Settings is the league configuration an Engine is built with. It is copied
// in at construction and never re-read while an operation runs.
type Settings struct {
	TeamMinPlayers    int
	MinimumTeamsStart int
	EloWinPoints      int
	EloLossPoints     int
	ForfeitAffectsElo bool
	MatchPingFullTeam bool
	StartingRating    int
	// TieLabel is written as the winner of a tied match. Empty leaves it blank.
	TieLabel string
}

func DefaultSettings() Settings {
	return Settings{
		TeamMinPlayers:    3,
		MinimumTeamsStart: 2,
		EloWinPoints:      25,
		EloLossPoints:     -25,
		ForfeitAffectsElo: true,
		StartingRating:    800,
		TieLabel:          "Tie",
	}
}

// poolThreshold is the smallest pool a week can be generated from.
func (s Settings) poolThreshold() int {
	return max(s.MinimumTeamsStart, 2)
}
