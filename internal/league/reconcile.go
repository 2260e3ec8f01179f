package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omarshaarawi/leaguebot/internal/models"
)

// History reasons.
const (
	ReasonScored        = "Score"
	ReasonForfeit       = "Forfeit"
	ReasonDoubleForfeit = "Double Forfeit"
	ReasonCancelled     = "Cancelled"
)

// outcome picks the reconciliation result for a stale match from the current
// eligibility of its teams.
func outcome(m models.Match, eligible map[string]bool) Reconciliation {
	a, b := eligible[foldKey(m.TeamA)], eligible[foldKey(m.TeamB)]
	switch {
	case a && !b:
		return Reconciliation{Match: m, Outcome: models.StatusForfeited, Winner: m.TeamA, Loser: m.TeamB, Reason: ReasonForfeit}
	case b && !a:
		return Reconciliation{Match: m, Outcome: models.StatusForfeited, Winner: m.TeamB, Loser: m.TeamA, Reason: ReasonForfeit}
	default:
		return Reconciliation{Match: m, Outcome: models.StatusDoubleForfeit, Reason: ReasonDoubleForfeit}
	}
}

// reconcile closes every unresolved match in ledger row order. Terminal
// matches are never revisited, so a second pass finds nothing to do.
// On failure the rating changes of matches already closed are still flushed.
func (e *Engine) reconcile(ctx context.Context, eligible map[string]bool) (out []Reconciliation, err error) {
	open, err := e.deps.Ledger.Unresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading unresolved matches: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if ferr := e.deps.Ratings.Flush(ctx); ferr != nil {
			err = errors.Join(err, fmt.Errorf("flushing ratings: %w", ferr))
		}
	}()

	out = make([]Reconciliation, 0, len(open))
	for _, m := range open {
		r := outcome(m, eligible)

		if _, err := e.deps.Ledger.Transition(ctx, m.ID, r.Outcome, r.Winner, r.Loser); err != nil {
			return out, err
		}
		if r.Outcome == models.StatusForfeited && e.settings.ForfeitAffectsElo {
			e.deps.Ratings.ApplyResult(r.Winner, true, e.settings.EloWinPoints, e.settings.EloLossPoints)
			e.deps.Ratings.ApplyResult(r.Loser, false, e.settings.EloWinPoints, e.settings.EloLossPoints)
			r.RatingApplied = true
		}
		if err := e.deps.History.Record(ctx, models.HistoryEntry{
			Week:          m.Week,
			MatchID:       m.ID,
			TeamA:         m.TeamA,
			TeamB:         m.TeamB,
			ProposedDate:  m.ProposedDate,
			ScheduledDate: m.ScheduledDate,
			Winner:        r.Winner,
			Reason:        r.Reason,
		}); err != nil {
			return out, err
		}
		if err := e.deps.Ledger.RemoveFromWorkingLists(ctx, m.ID); err != nil {
			return out, err
		}
		e.deps.Proposals.DeleteProposal(m.ID)

		r.Match.Status = r.Outcome
		r.Match.Winner, r.Match.Loser = r.Winner, r.Loser
		out = append(out, r)
		e.recorder.MatchReconciled(r.Outcome)
		slog.Info("Reconciled match", "match_id", m.ID, "outcome", r.Outcome, "winner", r.Winner)
	}
	return out, nil
}
