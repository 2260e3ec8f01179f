package league

import "github.com/omarshaarawi/leaguebot/internal/models"

// Recorder observes engine outcomes, typically for metrics.
type Recorder interface {
	WeekAdvanced(week int, kind FailureKind)
	MatchCreated(origin models.MatchOrigin)
	MatchReconciled(outcome models.MatchStatus)
	ScoreResolved(tie bool)
}

type nopRecorder struct{}

func (nopRecorder) WeekAdvanced(int, FailureKind) {}
func (nopRecorder) MatchCreated(models.MatchOrigin) {}
func (nopRecorder) MatchReconciled(models.MatchStatus) {}
func (nopRecorder) ScoreResolved(bool) {}
