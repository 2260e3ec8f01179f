package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/cases"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/repository"
)

type RosterDirectory interface {
	Teams(ctx context.Context) ([]models.Team, error)
	SetLocked(ctx context.Context, locked bool) (int, error)
	Suggest(ctx context.Context, query string) ([]string, error)
}

type RatingStore interface {
	Load(ctx context.Context) error
	Get(name string) (models.RatingRecord, bool)
	ApplyResult(name string, won bool, winPoints, lossPoints int) models.RatingRecord
	Ensure(names []string) []string
	All() []models.RatingRecord
	Orphans(teamNames []string) []models.RatingRecord
	Flush(ctx context.Context) error
}

type MatchLedger interface {
	Create(ctx context.Context, nm repository.NewMatch) (models.Match, error)
	Get(ctx context.Context, id string) (models.Match, bool, error)
	Matches(ctx context.Context) ([]models.Match, error)
	Transition(ctx context.Context, id string, status models.MatchStatus, winner, loser string) (bool, error)
	Unresolved(ctx context.Context) ([]models.Match, error)
	Schedule(ctx context.Context, id, date string) (models.Match, bool, error)
	Assignments(ctx context.Context, week int) ([]models.WeeklyAssignment, error)
	ClearAssignments(ctx context.Context) error
	DeleteProposalsWhere(ctx context.Context, pred func(models.Match) bool) ([]models.Match, error)
	RemoveFromWorkingLists(ctx context.Context, id string) error
	CompleteChallenge(ctx context.Context, id, date string) error
	Suggest(ctx context.Context, query string) ([]string, error)
}

type HistoryLog interface {
	Record(ctx context.Context, e models.HistoryEntry) error
}

type WeekTracker interface {
	Current(ctx context.Context) (int, error)
	Set(ctx context.Context, week int) error
}

type ProposalStore interface {
	SaveProposal(p models.ScoreProposal) models.ScoreProposal
	GetProposal(matchID string) (models.ScoreProposal, bool)
	DeleteProposal(matchID string) bool
	ExpireProposals(ttl time.Duration) []models.ScoreProposal
}

// Deps are the collaborators an Engine reads and writes.
type Deps struct {
	Roster    RosterDirectory
	Ratings   RatingStore
	Ledger    MatchLedger
	History   HistoryLog
	Week      WeekTracker
	Proposals ProposalStore
}

// Engine serializes every league operation. Each entry point holds the engine
// lock from its first read to its last write, so at most one mutation of the
// ledger and ratings is in flight.
type Engine struct {
	settings Settings
	deps     Deps
	clock    clockwork.Clock
	recorder Recorder
	mu       sync.Mutex
}

type Option func(*Engine)

func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func NewEngine(settings Settings, deps Deps, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		deps:     deps,
		clock:    clockwork.NewRealClock(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Settings() Settings {
	return e.settings
}

func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// AdvanceWeek generates the pairings of week. With force set, every unresolved
// match is reconciled and the weekly assignments are cleared first. Nothing is
// written when the pool is too small.
func (e *Engine) AdvanceWeek(ctx context.Context, week int, force bool) (*WeekResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.advanceWeek(ctx, week, force)
	if err != nil {
		return nil, err
	}
	e.recorder.WeekAdvanced(week, res.Kind)
	return res, nil
}

func (e *Engine) advanceWeek(ctx context.Context, week int, force bool) (*WeekResult, error) {
	res := &WeekResult{Week: week, Forced: force}

	if week < 1 {
		res.Result = fail(FailureInvalidWeek, fmt.Sprintf("Week must be 1 or later, got %d.", week))
		return res, nil
	}

	if err := e.deps.Ratings.Load(ctx); err != nil {
		return nil, err
	}
	teams, err := e.deps.Roster.Teams(ctx)
	if err != nil {
		return nil, err
	}

	threshold := e.settings.poolThreshold()
	if len(teams) < threshold {
		res.Result = fail(FailureNotEnoughTeams,
			fmt.Sprintf("Not enough teams to generate matchups: %d registered, %d needed.", len(teams), threshold))
		return res, nil
	}

	eligible := make(map[string]bool, len(teams))
	var pool []models.Team
	for _, t := range teams {
		if t.Eligible(e.settings.TeamMinPlayers) {
			eligible[foldKey(t.Name)] = true
			pool = append(pool, t)
		}
	}
	if len(pool) < threshold {
		res.Result = fail(FailureNotEnoughEligibleTeams,
			fmt.Sprintf("Not enough eligible teams (%d+ players required): %d eligible, %d needed.",
				e.settings.TeamMinPlayers, len(pool), threshold))
		return res, nil
	}

	if force {
		res.Reconciled, err = e.reconcile(ctx, eligible)
		if err != nil {
			return nil, err
		}
		if err := e.deps.Ratings.Flush(ctx); err != nil {
			return nil, err
		}
		if err := e.deps.Ledger.ClearAssignments(ctx); err != nil {
			return nil, err
		}
	}

	names := make([]string, len(pool))
	for i, t := range pool {
		names[i] = t.Name
	}
	if created := e.deps.Ratings.Ensure(names); len(created) > 0 {
		slog.Info("Created rating records", "teams", created)
	}

	rated := make([]RatedTeam, len(pool))
	for i, t := range pool {
		rating := e.settings.StartingRating
		if rec, ok := e.deps.Ratings.Get(t.Name); ok {
			rating = rec.Rating
		}
		rated[i] = RatedTeam{Name: t.Name, Rating: rating}
	}

	pairs := Pair(rated, PairingQuota)
	counts := make(map[string]int, len(pool))
	for _, p := range pairs {
		m, err := e.deps.Ledger.Create(ctx, repository.NewMatch{
			TeamA:  p.TeamA,
			TeamB:  p.TeamB,
			Week:   week,
			Origin: models.OriginWeekly,
		})
		if err != nil {
			return nil, err
		}
		res.Matches = append(res.Matches, m)
		counts[p.TeamA]++
		counts[p.TeamB]++
		e.recorder.MatchCreated(models.OriginWeekly)
	}
	for _, name := range names {
		if counts[name] < PairingQuota {
			res.ShortTeams = append(res.ShortTeams, name)
		}
	}

	if err := e.deps.Week.Set(ctx, week); err != nil {
		return nil, err
	}
	if err := e.deps.Ratings.Flush(ctx); err != nil {
		return nil, err
	}

	slog.Info("Generated weekly matches", "week", week, "force", force,
		"matches", len(res.Matches), "reconciled", len(res.Reconciled))

	msg := fmt.Sprintf("Week %d: %d matches created.", week, len(res.Matches))
	if force {
		msg += fmt.Sprintf(" %d unresolved matches closed.", len(res.Reconciled))
	}
	res.Result = succeed(msg)
	return res, nil
}

// ResolveScore finalizes a match from its map scores and applies the rating
// change unless the result is a tie.
func (e *Engine) ResolveScore(ctx context.Context, matchID string, maps []models.MapScore) (*ScoreResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveScore(ctx, matchID, maps)
}

func (e *Engine) resolveScore(ctx context.Context, matchID string, maps []models.MapScore) (*ScoreResult, error) {
	res := &ScoreResult{}

	m, found, err := e.lookupMatch(ctx, matchID, &res.Result)
	if err != nil || !found {
		return res, err
	}
	res.Match = m

	if m.Status.Terminal() {
		res.Result = fail(FailureAlreadyResolved, fmt.Sprintf("Match %s is already %s.", m.ID, m.Status))
		return res, nil
	}

	b, err := Tally(maps)
	if err != nil {
		res.Result = fail(FailureInvalidScores, err.Error())
		return res, nil
	}
	res.Breakdown = b

	if err := e.deps.Ratings.Load(ctx); err != nil {
		return nil, err
	}

	switch b.Winner {
	case models.SideA:
		res.Winner, res.Loser = m.TeamA, m.TeamB
	case models.SideB:
		res.Winner, res.Loser = m.TeamB, m.TeamA
	default:
		res.Tie = true
		res.Winner = e.settings.TieLabel
	}

	if !res.Tie {
		e.deps.Ratings.ApplyResult(res.Winner, true, e.settings.EloWinPoints, e.settings.EloLossPoints)
		e.deps.Ratings.ApplyResult(res.Loser, false, e.settings.EloWinPoints, e.settings.EloLossPoints)
	}

	if err := e.deps.History.Record(ctx, models.HistoryEntry{
		Week:          m.Week,
		MatchID:       m.ID,
		TeamA:         m.TeamA,
		TeamB:         m.TeamB,
		ProposedDate:  m.ProposedDate,
		ScheduledDate: m.ScheduledDate,
		Breakdown:     &b,
		Winner:        res.Winner,
		Reason:        ReasonScored,
	}); err != nil {
		return nil, err
	}

	if _, err := e.deps.Ledger.Transition(ctx, m.ID, models.StatusFinished, res.Winner, res.Loser); err != nil {
		return nil, err
	}
	if err := e.deps.Ledger.RemoveFromWorkingLists(ctx, m.ID); err != nil {
		return nil, err
	}
	if m.Origin == models.OriginChallenge {
		if err := e.deps.Ledger.CompleteChallenge(ctx, m.ID, e.clock.Now().Format("2006-01-02")); err != nil {
			return nil, err
		}
	}
	e.deps.Proposals.DeleteProposal(m.ID)

	if err := e.deps.Ratings.Flush(ctx); err != nil {
		return nil, err
	}

	res.Match.Status = models.StatusFinished
	res.Match.Winner, res.Match.Loser = res.Winner, res.Loser
	e.recorder.ScoreResolved(res.Tie)
	slog.Info("Resolved match score", "match_id", m.ID, "winner", res.Winner, "tie", res.Tie)

	if res.Tie {
		res.Result = succeed(fmt.Sprintf("Match %s finished in a tie (%d-%d).", m.ID, b.TotalA, b.TotalB))
	} else {
		res.Result = succeed(fmt.Sprintf("Match %s finished: %s beat %s (%d-%d).", m.ID, res.Winner, res.Loser, b.TotalA, b.TotalB))
	}
	return res, nil
}

// lookupMatch resolves an id, filling r with a not-found failure and fuzzy
// suggestions when the match does not exist.
func (e *Engine) lookupMatch(ctx context.Context, matchID string, r *Result) (models.Match, bool, error) {
	m, found, err := e.deps.Ledger.Get(ctx, matchID)
	if err != nil {
		return models.Match{}, false, err
	}
	if found {
		return m, true, nil
	}

	suggestions, err := e.deps.Ledger.Suggest(ctx, matchID)
	if err != nil {
		return models.Match{}, false, err
	}
	*r = fail(FailureMatchNotFound, fmt.Sprintf("Match %q not found.", strings.TrimSpace(matchID)))
	r.Suggestions = suggestions
	return models.Match{}, false, nil
}

// teamOf returns the name of the match team memberID plays for, or "".
func (e *Engine) teamOf(ctx context.Context, m models.Match, memberID string) (string, error) {
	teams, err := e.deps.Roster.Teams(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range teams {
		if (foldKey(t.Name) == foldKey(m.TeamA) || foldKey(t.Name) == foldKey(m.TeamB)) && t.HasMember(memberID) {
			return t.Name, nil
		}
	}
	return "", nil
}

// ProposeScore stores one captain's score for the other side to accept or deny.
func (e *Engine) ProposeScore(ctx context.Context, matchID, proposerID string, maps []models.MapScore) (*ScoreResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &ScoreResult{}
	m, found, err := e.lookupMatch(ctx, matchID, &res.Result)
	if err != nil || !found {
		return res, err
	}
	res.Match = m

	if m.Status.Terminal() {
		res.Result = fail(FailureAlreadyResolved, fmt.Sprintf("Match %s is already %s.", m.ID, m.Status))
		return res, nil
	}
	b, err := Tally(maps)
	if err != nil {
		res.Result = fail(FailureInvalidScores, err.Error())
		return res, nil
	}
	res.Breakdown = b

	team, err := e.teamOf(ctx, m, proposerID)
	if err != nil {
		return nil, err
	}
	if team == "" {
		res.Result = fail(FailureNotParticipant, fmt.Sprintf("Only players of %s or %s can propose a score.", m.TeamA, m.TeamB))
		return res, nil
	}

	if _, err := e.deps.Ledger.Transition(ctx, m.ID, models.StatusScoreProposed, "", ""); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			res.Result = fail(FailureInvalidTransition, fmt.Sprintf("Match %s cannot take a score while %s.", m.ID, m.Status))
			return res, nil
		}
		return nil, err
	}

	p := e.deps.Proposals.SaveProposal(models.ScoreProposal{MatchID: m.ID, Maps: b.Maps, ProposedBy: proposerID})
	res.Proposal = &p
	res.Match.Status = models.StatusScoreProposed
	res.Result = succeed(fmt.Sprintf("Score proposed for %s by %s (%d-%d). Waiting for %s.",
		m.ID, team, b.TotalA, b.TotalB, m.Opponent(team)))
	return res, nil
}

// AcceptScore resolves a match with its pending proposal. Only the side that
// did not propose may accept.
func (e *Engine) AcceptScore(ctx context.Context, matchID, accepterID string) (*ScoreResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, p, err := e.pendingAnswer(ctx, matchID, accepterID)
	if err != nil || !res.OK {
		return res, err
	}
	return e.resolveScore(ctx, p.MatchID, p.Maps)
}

// DenyScore drops a pending proposal and marks the match disputed.
func (e *Engine) DenyScore(ctx context.Context, matchID, denierID string) (*ScoreResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, p, err := e.pendingAnswer(ctx, matchID, denierID)
	if err != nil || !res.OK {
		return res, err
	}

	e.deps.Proposals.DeleteProposal(p.MatchID)
	if _, err := e.deps.Ledger.Transition(ctx, p.MatchID, models.StatusDisputed, "", ""); err != nil {
		return nil, err
	}
	res.Match.Status = models.StatusDisputed
	res.Result = succeed(fmt.Sprintf("Score for %s denied. The match is now disputed.", p.MatchID))
	return res, nil
}

// pendingAnswer checks that a proposal exists and that responderID plays for
// the opposing side. The returned result is OK when the answer may proceed.
func (e *Engine) pendingAnswer(ctx context.Context, matchID, responderID string) (*ScoreResult, models.ScoreProposal, error) {
	res := &ScoreResult{}
	m, found, err := e.lookupMatch(ctx, matchID, &res.Result)
	if err != nil || !found {
		return res, models.ScoreProposal{}, err
	}
	res.Match = m

	p, ok := e.deps.Proposals.GetProposal(m.ID)
	if !ok {
		res.Result = fail(FailureNoPendingProposal, fmt.Sprintf("No score is waiting for an answer on %s.", m.ID))
		return res, p, nil
	}
	res.Proposal = &p

	proposerTeam, err := e.teamOf(ctx, m, p.ProposedBy)
	if err != nil {
		return nil, p, err
	}
	responderTeam, err := e.teamOf(ctx, m, responderID)
	if err != nil {
		return nil, p, err
	}
	if responderTeam == "" || foldKey(responderTeam) == foldKey(proposerTeam) {
		res.Result = fail(FailureNotParticipant, fmt.Sprintf("Only the opposing team can answer the score for %s.", m.ID))
		return res, p, nil
	}

	res.Result = succeed("")
	return res, p, nil
}

// ExpireScoreProposals drops proposals nobody answered within ttl. Their
// matches stay in Score Proposed so a new score can be proposed.
func (e *Engine) ExpireScoreProposals(ttl time.Duration) []models.ScoreProposal {
	e.mu.Lock()
	defer e.mu.Unlock()

	expired := e.deps.Proposals.ExpireProposals(ttl)
	for _, p := range expired {
		slog.Info("Expired score proposal", "match_id", p.MatchID, "proposal_id", p.ID)
	}
	return expired
}
