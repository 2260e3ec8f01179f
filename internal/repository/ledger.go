package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/store"
)

var ErrSameTeam = errors.New("a team cannot be matched against itself")

// SystemProposer marks matches created by the weekly pairing run.
const SystemProposer = "System"

// Weekly Matches sheet columns.
const (
	colAssignWeek = iota
	colAssignTeamA
	colAssignTeamB
	colAssignMatchID
	colAssignScheduled
)

// Ledger is the permanent record of every match plus the working lists that
// track proposals, schedules, weekly assignments and challenges.
type Ledger struct {
	matches    store.Sheet
	weekly     store.Sheet
	proposed   store.Sheet
	scheduled  store.Sheet
	challenges store.Sheet
}

func NewLedger(ctx context.Context, s store.Store) (*Ledger, error) {
	l := &Ledger{}
	for name, dst := range map[string]*store.Sheet{
		SheetMatches:    &l.matches,
		SheetWeekly:     &l.weekly,
		SheetProposed:   &l.proposed,
		SheetScheduled:  &l.scheduled,
		SheetChallenges: &l.challenges,
	} {
		sh, err := open(ctx, s, name)
		if err != nil {
			return nil, err
		}
		*dst = sh
	}
	return l, nil
}

type NewMatch struct {
	TeamA        string
	TeamB        string
	Week         int
	Origin       models.MatchOrigin
	ProposedDate string
	ProposedBy   string
}

// WeeklyMatchID derives the id of a weekly match from the week and the first
// three characters of each team name, names sorted first.
func WeeklyMatchID(week int, teamA, teamB string) string {
	names := []string{teamA, teamB}
	sort.Strings(names)
	return fmt.Sprintf("Week%d-%s-%s", week, namePrefix(names[0]), namePrefix(names[1]))
}

func namePrefix(name string) string {
	r := []rune(name)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// Create appends a match in its origin's initial status, along with the
// working-list rows that origin needs.
func (l *Ledger) Create(ctx context.Context, nm NewMatch) (models.Match, error) {
	if sameKey(nm.TeamA, nm.TeamB) {
		return models.Match{}, fmt.Errorf("%w: %s", ErrSameTeam, nm.TeamA)
	}
	if nm.Origin == "" {
		nm.Origin = models.OriginManual
	}
	if nm.ProposedDate == "" {
		nm.ProposedDate = models.DateTBD
	}
	if nm.ProposedBy == "" && nm.Origin == models.OriginWeekly {
		nm.ProposedBy = SystemProposer
	}

	rows, err := l.matches.Rows(ctx)
	if err != nil {
		return models.Match{}, fmt.Errorf("reading matches: %w", err)
	}

	var id string
	if nm.Origin == models.OriginWeekly {
		id = uniqueID(WeeklyMatchID(nm.Week, nm.TeamA, nm.TeamB), rows)
	} else {
		id = nextRunningID(rows)
	}

	m := models.Match{
		ID:           id,
		TeamA:        nm.TeamA,
		TeamB:        nm.TeamB,
		ProposedDate: nm.ProposedDate,
		Status:       nm.Origin.InitialStatus(),
		ProposedBy:   nm.ProposedBy,
		Week:         nm.Week,
		Origin:       nm.Origin,
	}
	if err := l.matches.Append(ctx, matchRow(m)); err != nil {
		return models.Match{}, fmt.Errorf("appending match %s: %w", id, err)
	}

	week := strconv.Itoa(nm.Week)
	switch nm.Origin {
	case models.OriginWeekly:
		err = l.weekly.Append(ctx, []string{week, m.TeamA, m.TeamB, id, models.DateTBD})
	case models.OriginChallenge:
		err = l.proposed.Append(ctx, []string{id, m.TeamA, m.TeamB, m.ProposedBy, m.ProposedDate})
		if err == nil {
			err = l.challenges.Append(ctx, []string{id, week, m.TeamA, m.TeamB, m.ProposedBy, m.ProposedDate, ""})
		}
	default:
		err = l.proposed.Append(ctx, []string{id, m.TeamA, m.TeamB, m.ProposedBy, m.ProposedDate})
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("recording match %s: %w", id, err)
	}

	return m, nil
}

// uniqueID suffixes id when a different pairing already produced it.
func uniqueID(id string, rows [][]string) string {
	taken := make(map[string]bool, len(rows))
	for _, row := range rows[1:] {
		taken[foldKey(store.Cell(row, colMatchID))] = true
	}
	candidate := id
	for n := 2; taken[foldKey(candidate)]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	return candidate
}

func nextRunningID(rows [][]string) string {
	highest := 0
	for _, row := range rows[1:] {
		if n, err := strconv.Atoi(strings.TrimSpace(store.Cell(row, colMatchID))); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

func matchRow(m models.Match) []string {
	return []string{
		m.ID, m.TeamA, m.TeamB, m.ProposedDate, m.ScheduledDate, string(m.Status),
		m.Winner, m.Loser, m.ProposedBy, strconv.Itoa(m.Week), string(m.Origin),
	}
}

func parseMatch(row []string) models.Match {
	id := strings.TrimSpace(store.Cell(row, colMatchID))
	status, _ := models.ParseMatchStatus(strings.TrimSpace(store.Cell(row, colStatus)))

	// Rows written before the Origin column existed.
	origin := models.MatchOrigin(strings.TrimSpace(store.Cell(row, colOrigin)))
	if origin == "" {
		origin = models.OriginManual
		if strings.HasPrefix(id, "Week") {
			origin = models.OriginWeekly
		}
	}
	return models.Match{
		ID:            id,
		TeamA:         store.Cell(row, colTeamA),
		TeamB:         store.Cell(row, colTeamB),
		ProposedDate:  store.Cell(row, colProposedDate),
		ScheduledDate: store.Cell(row, colScheduledDate),
		Status:        status,
		Winner:        store.Cell(row, colWinner),
		Loser:         store.Cell(row, colLoser),
		ProposedBy:    store.Cell(row, colProposedBy),
		Week:          atoi(SheetMatches, "Week", store.Cell(row, colWeek)),
		Origin:        origin,
	}
}

// Matches returns every match in ledger row order.
func (l *Ledger) Matches(ctx context.Context) ([]models.Match, error) {
	rows, err := l.matches.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	var matches []models.Match
	for _, row := range rows[1:] {
		if strings.TrimSpace(store.Cell(row, colMatchID)) == "" {
			continue
		}
		matches = append(matches, parseMatch(row))
	}
	return matches, nil
}

// find locates a match row by trimmed, case-insensitive id. The index is -1
// when there is no such match.
func (l *Ledger) find(ctx context.Context, id string) (int, models.Match, error) {
	rows, err := l.matches.Rows(ctx)
	if err != nil {
		return -1, models.Match{}, fmt.Errorf("reading matches: %w", err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if sameKey(store.Cell(row, colMatchID), id) {
			return i, parseMatch(row), nil
		}
	}
	return -1, models.Match{}, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (models.Match, bool, error) {
	i, m, err := l.find(ctx, id)
	return m, i > 0, err
}

// Transition moves a match to status, setting winner and loser when given. An
// unknown id is logged and reported through found.
func (l *Ledger) Transition(ctx context.Context, id string, status models.MatchStatus, winner, loser string) (found bool, err error) {
	return l.transition(ctx, id, status, winner, loser, true)
}

// Override sets the status without checking the lifecycle.
func (l *Ledger) Override(ctx context.Context, id string, status models.MatchStatus, winner, loser string) (found bool, err error) {
	return l.transition(ctx, id, status, winner, loser, false)
}

func (l *Ledger) transition(ctx context.Context, id string, status models.MatchStatus, winner, loser string, enforce bool) (bool, error) {
	i, m, err := l.find(ctx, id)
	if err != nil {
		return false, err
	}
	if i < 0 {
		slog.Warn("Status change for unknown match", "match_id", id, "status", status)
		return false, nil
	}
	if enforce && !m.Status.CanTransitionTo(status) {
		return true, fmt.Errorf("%w: %s from %q to %q", models.ErrInvalidTransition, m.ID, m.Status, status)
	}

	if err := l.matches.UpdateCell(ctx, i, colStatus, string(status)); err != nil {
		return true, fmt.Errorf("updating status of %s: %w", m.ID, err)
	}
	if winner != "" {
		if err := l.matches.UpdateCell(ctx, i, colWinner, winner); err != nil {
			return true, fmt.Errorf("updating winner of %s: %w", m.ID, err)
		}
	}
	if loser != "" {
		if err := l.matches.UpdateCell(ctx, i, colLoser, loser); err != nil {
			return true, fmt.Errorf("updating loser of %s: %w", m.ID, err)
		}
	}
	return true, nil
}

// Unresolved returns every non-terminal match in ledger row order.
func (l *Ledger) Unresolved(ctx context.Context) ([]models.Match, error) {
	matches, err := l.Matches(ctx)
	if err != nil {
		return nil, err
	}
	var open []models.Match
	for _, m := range matches {
		if !m.Status.Terminal() {
			open = append(open, m)
		}
	}
	return open, nil
}

// UnresolvedForWeek restricts Unresolved to the matches assigned to week.
func (l *Ledger) UnresolvedForWeek(ctx context.Context, week int) ([]models.Match, error) {
	assignments, err := l.Assignments(ctx, week)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		ids[foldKey(a.MatchID)] = true
	}

	open, err := l.Unresolved(ctx)
	if err != nil {
		return nil, err
	}
	var inWeek []models.Match
	for _, m := range open {
		if ids[foldKey(m.ID)] {
			inWeek = append(inWeek, m)
		}
	}
	return inWeek, nil
}

// Schedule sets the agreed date of a match and moves it from the proposal
// list to the scheduled list.
func (l *Ledger) Schedule(ctx context.Context, id, date string) (models.Match, bool, error) {
	i, m, err := l.find(ctx, id)
	if err != nil {
		return models.Match{}, false, err
	}
	if i < 0 {
		slog.Warn("Schedule for unknown match", "match_id", id)
		return models.Match{}, false, nil
	}
	if !m.Status.CanTransitionTo(models.StatusScheduled) {
		return m, true, fmt.Errorf("%w: %s from %q to %q", models.ErrInvalidTransition, m.ID, m.Status, models.StatusScheduled)
	}

	if err := l.matches.UpdateCell(ctx, i, colStatus, string(models.StatusScheduled)); err != nil {
		return m, true, fmt.Errorf("updating status of %s: %w", m.ID, err)
	}
	if err := l.matches.UpdateCell(ctx, i, colScheduledDate, date); err != nil {
		return m, true, fmt.Errorf("updating date of %s: %w", m.ID, err)
	}
	m.Status = models.StatusScheduled
	m.ScheduledDate = date

	if err := l.setAssignmentDate(ctx, m.ID, date); err != nil {
		return m, true, err
	}
	if err := l.RemoveFromWorkingLists(ctx, m.ID); err != nil {
		return m, true, err
	}
	if err := l.scheduled.Append(ctx, []string{m.ID, m.TeamA, m.TeamB, date}); err != nil {
		return m, true, fmt.Errorf("listing %s as scheduled: %w", m.ID, err)
	}
	return m, true, nil
}

func (l *Ledger) setAssignmentDate(ctx context.Context, id, date string) error {
	rows, err := l.weekly.Rows(ctx)
	if err != nil {
		return fmt.Errorf("reading weekly matches: %w", err)
	}
	for i, row := range rows {
		if i == 0 || !sameKey(store.Cell(row, colAssignMatchID), id) {
			continue
		}
		if err := l.weekly.UpdateCell(ctx, i, colAssignScheduled, date); err != nil {
			return fmt.Errorf("updating weekly date of %s: %w", id, err)
		}
	}
	return nil
}

// Assignments returns the weekly assignments of week, or all of them when week
// is not positive.
func (l *Ledger) Assignments(ctx context.Context, week int) ([]models.WeeklyAssignment, error) {
	rows, err := l.weekly.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading weekly matches: %w", err)
	}
	var out []models.WeeklyAssignment
	for _, row := range rows[1:] {
		a := models.WeeklyAssignment{
			Week:          atoi(SheetWeekly, "Week", store.Cell(row, colAssignWeek)),
			TeamA:         store.Cell(row, colAssignTeamA),
			TeamB:         store.Cell(row, colAssignTeamB),
			MatchID:       strings.TrimSpace(store.Cell(row, colAssignMatchID)),
			ScheduledDate: store.Cell(row, colAssignScheduled),
		}
		if a.MatchID == "" || (week > 0 && a.Week != week) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ClearAssignments empties the weekly assignment list.
func (l *Ledger) ClearAssignments(ctx context.Context) error {
	if err := l.weekly.Replace(ctx, nil); err != nil {
		return fmt.Errorf("clearing weekly matches: %w", err)
	}
	return nil
}

// OpponentsOf lists the teams assigned against team in week.
func (l *Ledger) OpponentsOf(ctx context.Context, team string, week int) ([]string, error) {
	assignments, err := l.Assignments(ctx, week)
	if err != nil {
		return nil, err
	}
	var opponents []string
	for _, a := range assignments {
		switch {
		case sameKey(a.TeamA, team):
			opponents = append(opponents, a.TeamB)
		case sameKey(a.TeamB, team):
			opponents = append(opponents, a.TeamA)
		}
	}
	return opponents, nil
}

// DeleteProposalsWhere removes pending match proposals matching pred and
// returns the matches they belonged to.
func (l *Ledger) DeleteProposalsWhere(ctx context.Context, pred func(models.Match) bool) ([]models.Match, error) {
	rows, err := l.proposed.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading proposals: %w", err)
	}

	var deleted []models.Match
	for i := len(rows) - 1; i > 0; i-- {
		row := rows[i]
		id := strings.TrimSpace(store.Cell(row, 0))
		m, found, err := l.Get(ctx, id)
		if err != nil {
			return deleted, err
		}
		if !found {
			m = models.Match{
				ID:           id,
				TeamA:        store.Cell(row, 1),
				TeamB:        store.Cell(row, 2),
				ProposedBy:   store.Cell(row, 3),
				ProposedDate: store.Cell(row, 4),
				Status:       models.StatusProposed,
			}
		}
		if !pred(m) {
			continue
		}
		if err := l.proposed.DeleteRow(ctx, i); err != nil {
			return deleted, fmt.Errorf("deleting proposal %s: %w", id, err)
		}
		deleted = append([]models.Match{m}, deleted...)
	}
	return deleted, nil
}

// RemoveFromWorkingLists drops a match from the proposal and scheduled lists.
// A match on neither list is not an error.
func (l *Ledger) RemoveFromWorkingLists(ctx context.Context, id string) error {
	for _, sh := range []store.Sheet{l.proposed, l.scheduled} {
		if _, err := deleteRowsWhere(ctx, sh, func(row []string) bool {
			return sameKey(store.Cell(row, 0), id)
		}); err != nil {
			return err
		}
	}
	return nil
}

// CompleteChallenge stamps the completion date of a challenge match.
func (l *Ledger) CompleteChallenge(ctx context.Context, id, date string) error {
	rows, err := l.challenges.Rows(ctx)
	if err != nil {
		return fmt.Errorf("reading challenges: %w", err)
	}
	for i, row := range rows {
		if i == 0 || !sameKey(store.Cell(row, 0), id) {
			continue
		}
		if err := l.challenges.UpdateCell(ctx, i, 6, date); err != nil {
			return fmt.Errorf("completing challenge %s: %w", id, err)
		}
	}
	return nil
}

// Delete removes a match and every working-list row that refers to it.
func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	i, m, err := l.find(ctx, id)
	if err != nil {
		return false, err
	}
	if i < 0 {
		slog.Warn("Delete of unknown match", "match_id", id)
		return false, nil
	}
	if err := l.matches.DeleteRow(ctx, i); err != nil {
		return true, fmt.Errorf("deleting match %s: %w", m.ID, err)
	}
	if err := l.RemoveFromWorkingLists(ctx, m.ID); err != nil {
		return true, err
	}
	if _, err := deleteRowsWhere(ctx, l.weekly, func(row []string) bool {
		return sameKey(store.Cell(row, colAssignMatchID), m.ID)
	}); err != nil {
		return true, err
	}
	if _, err := deleteRowsWhere(ctx, l.challenges, func(row []string) bool {
		return sameKey(store.Cell(row, 0), m.ID)
	}); err != nil {
		return true, err
	}
	return true, nil
}

// Suggest returns match ids resembling query.
func (l *Ledger) Suggest(ctx context.Context, query string) ([]string, error) {
	matches, err := l.Matches(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return suggest(query, ids), nil
}

// deleteRowsWhere deletes bottom-up so earlier indices stay valid.
func deleteRowsWhere(ctx context.Context, sh store.Sheet, pred func([]string) bool) (int, error) {
	rows, err := sh.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", sh.Name(), err)
	}
	n := 0
	for i := len(rows) - 1; i > 0; i-- {
		if !pred(rows[i]) {
			continue
		}
		if err := sh.DeleteRow(ctx, i); err != nil {
			return n, fmt.Errorf("deleting %s row %d: %w", sh.Name(), i, err)
		}
		n++
	}
	return n, nil
}
