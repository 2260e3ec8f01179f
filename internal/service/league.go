package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/leaguebot/internal/league"
	"github.com/omarshaarawi/leaguebot/internal/models"
)

type LeagueService struct {
	engine *league.Engine
}

func NewLeagueService(engine *league.Engine) *LeagueService {
	return &LeagueService{engine: engine}
}

// escape protects free text inside a legacy Markdown message.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// mention links a roster entry to its chat account when the id is numeric.
func mention(e models.RosterEntry) string {
	if _, err := strconv.ParseInt(e.MemberID, 10, 64); err != nil {
		return escape(e.DisplayName)
	}
	return fmt.Sprintf("[%s](tg://user?id=%s)", escape(e.DisplayName), e.MemberID)
}

func failure(r league.Result) string {
	var sb strings.Builder
	sb.WriteString("⚠️ " + escape(r.Message))
	if len(r.Suggestions) > 0 {
		quoted := make([]string, len(r.Suggestions))
		for i, s := range r.Suggestions {
			quoted[i] = "`" + s + "`"
		}
		sb.WriteString("\nDid you mean: " + strings.Join(quoted, ", ") + "?")
	}
	return sb.String()
}

func scheduleLabel(m models.Match) string {
	if d := strings.TrimSpace(m.ScheduledDate); d != "" && d != models.DateTBD {
		return escape(d)
	}
	return models.DateTBD
}

func (s *LeagueService) GetCurrentWeek(ctx context.Context) (int, error) {
	week, err := s.engine.CurrentWeek(ctx)
	if err != nil {
		return 0, fmt.Errorf("error fetching current week: %w", err)
	}
	slog.Info("Current week", "week", week)
	return week, nil
}

func (s *LeagueService) GetLeaderboard(ctx context.Context) (string, error) {
	records, err := s.engine.Leaderboard(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching leaderboard: %w", err)
	}

	byTier := make(map[models.Tier][]models.RatingRecord)
	for _, r := range records {
		if r.MatchesPlayed == 0 {
			continue
		}
		tier := models.TierFor(r.Rating)
		byTier[tier] = append(byTier[tier], r)
	}

	var sb strings.Builder
	sb.WriteString("🏆 *League Leaderboard*\n")
	if len(byTier) == 0 {
		sb.WriteString("\nNo matches have been played yet.")
		return sb.String(), nil
	}

	rank := 1
	for _, tier := range models.Tiers {
		teams := byTier[tier]
		if len(teams) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n*%s*\n", tier))
		for _, r := range teams {
			sb.WriteString(fmt.Sprintf("%d. *%s* %d (%d-%d)\n", rank, escape(r.TeamName), r.Rating, r.Wins, r.Losses))
			rank++
		}
	}
	return sb.String(), nil
}

// GetMatchups lists the weekly matches of week, or of the current week when
// week is not positive, pinging captains or whole rosters.
func (s *LeagueService) GetMatchups(ctx context.Context, week int) (string, error) {
	if week <= 0 {
		current, err := s.GetCurrentWeek(ctx)
		if err != nil {
			return "", err
		}
		week = current
	}
	if week == 0 {
		return "No weekly matchups have been generated yet.", nil
	}

	matches, err := s.engine.Matchups(ctx, week)
	if err != nil {
		return "", fmt.Errorf("error fetching matchups: %w", err)
	}
	teams, err := s.engine.Teams(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching teams: %w", err)
	}
	rosters := make(map[string]models.Team, len(teams))
	for _, t := range teams {
		rosters[strings.ToLower(t.Name)] = t
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎮 *Week %d Matchups*\n\n", week))
	if len(matches) == 0 {
		sb.WriteString("No matches this week.")
		return sb.String(), nil
	}

	fullTeam := s.engine.Settings().MatchPingFullTeam
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("*%s* vs *%s*\n", escape(m.TeamA), escape(m.TeamB)))
		sb.WriteString(fmt.Sprintf("`%s` | %s | %s\n", m.ID, m.Status, scheduleLabel(m)))
		if m.Status.Terminal() {
			if m.Winner != "" {
				sb.WriteString(fmt.Sprintf("Winner: %s\n", escape(m.Winner)))
			}
		} else {
			var pings []string
			for _, name := range []string{m.TeamA, m.TeamB} {
				pings = append(pings, teamPings(rosters[strings.ToLower(name)], fullTeam)...)
			}
			if len(pings) > 0 {
				sb.WriteString(strings.Join(pings, " ") + "\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func teamPings(t models.Team, fullTeam bool) []string {
	if !fullTeam {
		if c, ok := t.Captain(); ok {
			return []string{mention(c)}
		}
		return nil
	}
	pings := make([]string, 0, len(t.Roster))
	for _, e := range t.Roster {
		pings = append(pings, mention(e))
	}
	return pings
}

func (s *LeagueService) GetUnscheduled(ctx context.Context) (string, error) {
	matches, err := s.engine.Unscheduled(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching unscheduled matches: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("📅 *Unscheduled Matches*\n\n")
	if len(matches) == 0 {
		sb.WriteString("Every open match has a date.")
		return sb.String(), nil
	}
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("`%s` *%s* vs *%s* (%s)\n", m.ID, escape(m.TeamA), escape(m.TeamB), m.Status))
	}
	sb.WriteString("\nUse /schedule <match id> <date> once you agree on a time.")
	return sb.String(), nil
}

// UnscheduledReminder is GetUnscheduled for the daily reminder. It returns ""
// when nothing needs a date.
func (s *LeagueService) UnscheduledReminder(ctx context.Context) (string, error) {
	matches, err := s.engine.Unscheduled(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching unscheduled matches: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	return s.GetUnscheduled(ctx)
}

func (s *LeagueService) GetTeam(ctx context.Context, name string) (string, error) {
	card, err := s.engine.Team(ctx, name)
	if err != nil {
		return "", fmt.Errorf("error fetching team: %w", err)
	}
	if !card.OK {
		return failure(card.Result), nil
	}

	t := card.Team
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *%s*", escape(t.Name)))
	if t.Locked {
		sb.WriteString(" 🔒")
	}
	sb.WriteString("\n\n")

	if card.Rated {
		sb.WriteString(fmt.Sprintf("Rating: %d (%s)\nRecord: %d-%d\n\n",
			card.Rating.Rating, models.TierFor(card.Rating.Rating), card.Rating.Wins, card.Rating.Losses))
	} else {
		sb.WriteString("Unrated\n\n")
	}

	sb.WriteString("*Roster:*\n")
	for i, e := range t.Roster {
		role := "▫️"
		if i == 0 {
			role = "👑"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", role, escape(e.DisplayName)))
	}
	minPlayers := s.engine.Settings().TeamMinPlayers
	if !t.Eligible(minPlayers) {
		sb.WriteString(fmt.Sprintf("_Needs %d players to be paired (has %d)._\n", minPlayers, t.MemberCount()))
	}

	if len(card.Matches) > 0 {
		sb.WriteString("\n*Open matches:*\n")
		for _, m := range card.Matches {
			sb.WriteString(fmt.Sprintf("`%s` vs *%s* | %s | %s\n", m.ID, escape(m.Opponent(t.Name)), m.Status, scheduleLabel(m)))
		}
	}
	return sb.String(), nil
}

func (s *LeagueService) AdvanceWeek(ctx context.Context, week int, force bool) (string, error) {
	res, err := s.engine.AdvanceWeek(ctx, week, force)
	if err != nil {
		return "", fmt.Errorf("error advancing week: %w", err)
	}
	if !res.OK {
		return failure(res.Result), nil
	}
	return formatWeek(res), nil
}

// NextWeek generates the week after the current one.
func (s *LeagueService) NextWeek(ctx context.Context, force bool) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	return s.AdvanceWeek(ctx, week+1, force)
}

func formatWeek(res *league.WeekResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Week %d Matchups Generated*\n", res.Week))

	if len(res.Reconciled) > 0 {
		sb.WriteString("\n*Closed matches:*\n")
		for _, r := range res.Reconciled {
			line := fmt.Sprintf("`%s` %s vs %s: %s", r.Match.ID, escape(r.Match.TeamA), escape(r.Match.TeamB), r.Outcome)
			if r.Winner != "" {
				line += fmt.Sprintf(" (%s wins)", escape(r.Winner))
			}
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n*New matches:*\n")
	if len(res.Matches) == 0 {
		sb.WriteString("None\n")
	}
	for _, m := range res.Matches {
		sb.WriteString(fmt.Sprintf("`%s` *%s* vs *%s*\n", m.ID, escape(m.TeamA), escape(m.TeamB)))
	}

	if len(res.ShortTeams) > 0 {
		names := make([]string, len(res.ShortTeams))
		for i, n := range res.ShortTeams {
			names[i] = escape(n)
		}
		sb.WriteString(fmt.Sprintf("\nFewer than %d matches this week: %s\n", league.PairingQuota, strings.Join(names, ", ")))
	}
	return sb.String()
}

func (s *LeagueService) ResolveScore(ctx context.Context, matchID string, args []string) (string, error) {
	maps, err := league.ParseMapScores(args)
	if err != nil {
		return "⚠️ " + escape(err.Error()), nil
	}
	res, err := s.engine.ResolveScore(ctx, matchID, maps)
	if err != nil {
		return "", fmt.Errorf("error resolving score: %w", err)
	}
	return formatScore(res), nil
}

func formatScore(res *league.ScoreResult) string {
	if !res.OK {
		return failure(res.Result)
	}

	m, b := res.Match, res.Breakdown
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ *Match %s Final*\n\n", m.ID))
	sb.WriteString(fmt.Sprintf("*%s* %d - %d *%s*\n", escape(m.TeamA), b.TotalA, b.TotalB, escape(m.TeamB)))
	for _, mp := range b.Maps {
		sb.WriteString(fmt.Sprintf("  • %s: %d-%d\n", escape(mp.Gamemode), mp.TeamAScore, mp.TeamBScore))
	}
	sb.WriteString(fmt.Sprintf("Maps won: %d-%d\n\n", b.MapsWonA, b.MapsWonB))

	if res.Tie {
		sb.WriteString("🤝 Tie. Ratings are unchanged.")
	} else {
		sb.WriteString(fmt.Sprintf("🏆 Winner: *%s*", escape(res.Winner)))
	}
	return sb.String()
}

func (s *LeagueService) ProposeScore(ctx context.Context, matchID, memberID string, args []string) (string, error) {
	maps, err := league.ParseMapScores(args)
	if err != nil {
		return "⚠️ " + escape(err.Error()), nil
	}
	res, err := s.engine.ProposeScore(ctx, matchID, memberID, maps)
	if err != nil {
		return "", fmt.Errorf("error proposing score: %w", err)
	}
	if !res.OK {
		return failure(res.Result), nil
	}
	return fmt.Sprintf("📝 %s\nThe other team can reply with /acceptscore %s or /denyscore %s.",
		escape(res.Message), res.Match.ID, res.Match.ID), nil
}

func (s *LeagueService) AcceptScore(ctx context.Context, matchID, memberID string) (string, error) {
	res, err := s.engine.AcceptScore(ctx, matchID, memberID)
	if err != nil {
		return "", fmt.Errorf("error accepting score: %w", err)
	}
	return formatScore(res), nil
}

func (s *LeagueService) DenyScore(ctx context.Context, matchID, memberID string) (string, error) {
	res, err := s.engine.DenyScore(ctx, matchID, memberID)
	if err != nil {
		return "", fmt.Errorf("error denying score: %w", err)
	}
	if !res.OK {
		return failure(res.Result), nil
	}
	return "❌ " + escape(res.Message) + " An admin will settle it.", nil
}

func (s *LeagueService) Challenge(ctx context.Context, teamA, teamB, proposedBy, date string) (string, error) {
	res, err := s.engine.Challenge(ctx, teamA, teamB, proposedBy, date)
	if err != nil {
		return "", fmt.Errorf("error creating challenge: %w", err)
	}
	if !res.OK {
		return failure(res.Result), nil
	}
	m := res.Match
	return fmt.Sprintf("⚔️ *Challenge* `%s`\n*%s* vs *%s*\nProposed date: %s",
		m.ID, escape(m.TeamA), escape(m.TeamB), escape(m.ProposedDate)), nil
}

func (s *LeagueService) Schedule(ctx context.Context, matchID, date string) (string, error) {
	res, err := s.engine.ScheduleMatch(ctx, matchID, date)
	if err != nil {
		return "", fmt.Errorf("error scheduling match: %w", err)
	}
	if !res.OK {
		return failure(res.Result), nil
	}
	m := res.Match
	return fmt.Sprintf("🗓 `%s` *%s* vs *%s* is set for %s.", m.ID, escape(m.TeamA), escape(m.TeamB), escape(m.ScheduledDate)), nil
}

func (s *LeagueService) ClearProposals(ctx context.Context, query string) (string, error) {
	res, err := s.engine.ClearProposals(ctx, query)
	if err != nil {
		return "", fmt.Errorf("error clearing proposals: %w", err)
	}
	if !res.OK {
		return failure(res.Result), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧹 Cleared %d proposed matches:\n", len(res.Cleared)))
	for _, m := range res.Cleared {
		sb.WriteString(fmt.Sprintf("`%s` %s vs %s\n", m.ID, escape(m.TeamA), escape(m.TeamB)))
	}
	return sb.String(), nil
}

func (s *LeagueService) SetRostersLocked(ctx context.Context, locked bool) (string, error) {
	n, err := s.engine.SetRostersLocked(ctx, locked)
	if err != nil {
		return "", fmt.Errorf("error updating rosters: %w", err)
	}
	if locked {
		return fmt.Sprintf("🔒 Rosters locked (%d teams changed).", n), nil
	}
	return fmt.Sprintf("🔓 Rosters unlocked (%d teams changed).", n), nil
}

// ExpireScoreProposals returns a notice for dropped proposals, or "" when none
// expired.
func (s *LeagueService) ExpireScoreProposals(ttl time.Duration) string {
	expired := s.engine.ExpireScoreProposals(ttl)
	if len(expired) == 0 {
		return ""
	}

	ids := make([]string, len(expired))
	for i, p := range expired {
		ids[i] = "`" + p.MatchID + "`"
	}
	return fmt.Sprintf("⌛ Score proposals expired without an answer: %s\nPropose the score again with /score.", strings.Join(ids, ", "))
}

func (s *LeagueService) GetOrphans(ctx context.Context) (string, error) {
	orphans, err := s.engine.Orphans(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching orphaned ratings: %w", err)
	}
	if len(orphans) == 0 {
		return "No orphaned rating records.", nil
	}

	var sb strings.Builder
	sb.WriteString("Rating records without a team:\n")
	for _, r := range orphans {
		sb.WriteString(fmt.Sprintf("%s %d (%d-%d)\n", r.TeamName, r.Rating, r.Wins, r.Losses))
	}
	return sb.String(), nil
}
