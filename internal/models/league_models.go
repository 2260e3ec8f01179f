package models

import (
	"strings"
	"time"
)

type RosterEntry struct {
	DisplayName string
	MemberID    string
}

// ParseRosterEntry splits a "Display Name (memberID)" cell. Cells without an
// identifier keep the whole text as the display name.
func ParseRosterEntry(cell string) RosterEntry {
	cell = strings.TrimSpace(cell)
	open := strings.LastIndex(cell, "(")
	if open < 0 || !strings.HasSuffix(cell, ")") {
		return RosterEntry{DisplayName: cell}
	}
	return RosterEntry{
		DisplayName: strings.TrimSpace(cell[:open]),
		MemberID:    strings.TrimSpace(cell[open+1 : len(cell)-1]),
	}
}

func (r RosterEntry) String() string {
	if r.MemberID == "" {
		return r.DisplayName
	}
	return r.DisplayName + " (" + r.MemberID + ")"
}

type Team struct {
	Name   string
	Roster []RosterEntry
	Locked bool
}

func (t Team) Captain() (RosterEntry, bool) {
	if len(t.Roster) == 0 {
		return RosterEntry{}, false
	}
	return t.Roster[0], true
}

// MemberCount counts the filled roster slots.
func (t Team) MemberCount() int {
	return len(t.Roster)
}

func (t Team) Eligible(minPlayers int) bool {
	return t.MemberCount() >= minPlayers
}

func (t Team) HasMember(memberID string) bool {
	for _, m := range t.Roster {
		if m.MemberID != "" && m.MemberID == memberID {
			return true
		}
	}
	return false
}

type RatingRecord struct {
	TeamName      string
	Rating        int
	Wins          int
	Losses        int
	MatchesPlayed int
}

type Tier string

const (
	TierMaster   Tier = "Master"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
	TierGold     Tier = "Gold"
	TierSilver   Tier = "Silver"
	TierBronze   Tier = "Bronze"
)

// Tiers lists every tier from highest to lowest.
var Tiers = []Tier{TierMaster, TierPlatinum, TierDiamond, TierGold, TierSilver, TierBronze}

func TierFor(rating int) Tier {
	switch {
	case rating >= 1400:
		return TierMaster
	case rating >= 1200:
		return TierPlatinum
	case rating >= 1050:
		return TierDiamond
	case rating >= 900:
		return TierGold
	case rating >= 750:
		return TierSilver
	default:
		return TierBronze
	}
}

type MatchStatus string

const (
	StatusAutoProposed  MatchStatus = "Auto Proposed"
	StatusProposed      MatchStatus = "Proposed"
	StatusScheduled     MatchStatus = "Scheduled"
	StatusScoreProposed MatchStatus = "Score Proposed"
	StatusFinished      MatchStatus = "Finished"
	StatusForfeited     MatchStatus = "Forfeited"
	StatusDoubleForfeit MatchStatus = "Double Forfeit"
	StatusCancelled     MatchStatus = "Cancelled"
	StatusDisputed      MatchStatus = "Disputed"
)

func (s MatchStatus) Terminal() bool {
	switch s {
	case StatusFinished, StatusCancelled, StatusForfeited, StatusDoubleForfeit:
		return true
	}
	return false
}

type MatchOrigin string

const (
	OriginWeekly    MatchOrigin = "Weekly"
	OriginChallenge MatchOrigin = "Challenge"
	OriginManual    MatchOrigin = "Manual"
)

// InitialStatus is the status a freshly created match of this origin starts in.
func (o MatchOrigin) InitialStatus() MatchStatus {
	if o == OriginWeekly {
		return StatusAutoProposed
	}
	return StatusProposed
}

const DateTBD = "TBD"

type Match struct {
	ID            string
	TeamA         string
	TeamB         string
	ProposedDate  string
	ScheduledDate string
	Status        MatchStatus
	Winner        string
	Loser         string
	ProposedBy    string
	Week          int
	Origin        MatchOrigin
}

func (m Match) Involves(team string) bool {
	return strings.EqualFold(m.TeamA, team) || strings.EqualFold(m.TeamB, team)
}

func (m Match) Opponent(team string) string {
	if strings.EqualFold(m.TeamA, team) {
		return m.TeamB
	}
	return m.TeamA
}

func (m Match) Unscheduled() bool {
	d := strings.TrimSpace(m.ScheduledDate)
	return (d == "" || d == DateTBD) && !m.Status.Terminal()
}

type WeeklyAssignment struct {
	Week          int
	TeamA         string
	TeamB         string
	MatchID       string
	ScheduledDate string
}

type MapScore struct {
	Gamemode   string
	TeamAScore int
	TeamBScore int
}

type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

type ScoreBreakdown struct {
	Maps     []MapScore
	TotalA   int
	TotalB   int
	MapsWonA int
	MapsWonB int
	Winner   Side
}

func (b ScoreBreakdown) Tie() bool {
	return b.Winner == SideNone
}

// ScoreProposal is a map-by-map score submitted by one captain and waiting for
// the other captain's answer.
type ScoreProposal struct {
	ID         string
	MatchID    string
	Maps       []MapScore
	ProposedBy string
	ProposedAt time.Time
}

type HistoryEntry struct {
	Week          int
	MatchID       string
	TeamA         string
	TeamB         string
	ProposedDate  string
	ScheduledDate string
	Breakdown     *ScoreBreakdown
	Winner        string
	Reason        string
	RecordedAt    time.Time
}
