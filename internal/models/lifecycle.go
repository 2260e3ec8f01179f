package models

import "errors"

var ErrInvalidTransition = errors.New("invalid match status transition")

var terminalStatuses = []MatchStatus{StatusFinished, StatusForfeited, StatusDoubleForfeit, StatusCancelled}

type transitions map[MatchStatus][]MatchStatus

func (t transitions) allow(from MatchStatus, to ...MatchStatus) transitions {
	t[from] = append(t[from], to...)
	return t
}

// Statuses only move forward. A non-terminal status may be re-entered, which
// covers rescheduling and replacing a score proposal.
var matchTransitions = transitions{}.
	allow(StatusAutoProposed, StatusAutoProposed, StatusProposed, StatusScheduled, StatusScoreProposed, StatusDisputed).
	allow(StatusAutoProposed, terminalStatuses...).
	allow(StatusProposed, StatusProposed, StatusScheduled, StatusScoreProposed, StatusDisputed).
	allow(StatusProposed, terminalStatuses...).
	allow(StatusScheduled, StatusScheduled, StatusScoreProposed, StatusDisputed).
	allow(StatusScheduled, terminalStatuses...).
	allow(StatusScoreProposed, StatusScoreProposed, StatusDisputed).
	allow(StatusScoreProposed, terminalStatuses...).
	allow(StatusDisputed, terminalStatuses...)

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseMatchStatus maps a stored status cell to a known status.
func ParseMatchStatus(s string) (MatchStatus, bool) {
	for _, status := range []MatchStatus{
		StatusAutoProposed, StatusProposed, StatusScheduled, StatusScoreProposed,
		StatusFinished, StatusForfeited, StatusDoubleForfeit, StatusCancelled, StatusDisputed,
	} {
		if string(status) == s {
			return status, true
		}
	}
	return MatchStatus(s), false
}
