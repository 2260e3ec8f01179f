package league

import "github.com/omarshaarawi/leaguebot/internal/models"

// FailureKind names an expected business failure. Store errors are returned
// as errors instead.
type FailureKind string

const (
	FailureNone                   FailureKind = ""
	FailureInvalidWeek            FailureKind = "invalid_week"
	FailureNotEnoughTeams         FailureKind = "not_enough_teams"
	FailureNotEnoughEligibleTeams FailureKind = "not_enough_eligible_teams"
	FailureMatchNotFound          FailureKind = "match_not_found"
	FailureTeamNotFound           FailureKind = "team_not_found"
	FailureSameTeam               FailureKind = "same_team"
	FailureAlreadyResolved        FailureKind = "already_resolved"
	FailureInvalidScores          FailureKind = "invalid_scores"
	FailureInvalidTransition      FailureKind = "invalid_transition"
	FailureNotParticipant         FailureKind = "not_participant"
	FailureNoPendingProposal      FailureKind = "no_pending_proposal"
)

type Result struct {
	OK      bool
	Kind    FailureKind
	Message string
	// Suggestions holds close names or ids when a lookup failed.
	Suggestions []string
}

func succeed(msg string) Result {
	return Result{OK: true, Message: msg}
}

func fail(kind FailureKind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}

// Reconciliation is the outcome of closing one stale match.
type Reconciliation struct {
	Match         models.Match
	Outcome       models.MatchStatus
	Winner        string
	Loser         string
	Reason        string
	RatingApplied bool
}

type WeekResult struct {
	Result
	Week       int
	Forced     bool
	Matches    []models.Match
	Reconciled []Reconciliation
	// ShortTeams lists eligible teams that got fewer than PairingQuota matches.
	ShortTeams []string
}

type ScoreResult struct {
	Result
	Match     models.Match
	Breakdown models.ScoreBreakdown
	Winner    string
	Loser     string
	Tie       bool
	Proposal  *models.ScoreProposal
}

type MatchResult struct {
	Result
	Match models.Match
}

type ClearResult struct {
	Result
	Cleared []models.Match
}
