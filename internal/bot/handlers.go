package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/leaguebot/internal/service"
)

const helpText = `Available commands:
/leaderboard - Ratings by tier
/week - Current week
/matchups [week] - Weekly matchups
/team <team> - Roster, rating and open matches
/unscheduled - Matches without a date
/challenge <team> | <team> [| date] - Challenge another team
/schedule <match id> <date> - Set the date of a match
/score <match id> <Mode:A-B>... - Report a score
/acceptscore <match id> - Confirm the opponent's score
/denyscore <match id> - Dispute the opponent's score

Admin:
/advanceweek [week] [force] - Generate a week of matchups
/lockrosters, /unlockrosters - Freeze or thaw rosters
/clearproposals <team> - Drop proposed matches of a team
/orphans - Ratings without a team`

type Handler struct {
	leagueService *service.LeagueService
	admins        map[int64]bool
}

func NewHandler(leagueService *service.LeagueService, adminIDs []int64) *Handler {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Handler{leagueService: leagueService, admins: admins}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = tgbotapi.ModeMarkdown

	var from int64
	if update.Message.From != nil {
		from = update.Message.From.ID
	}
	member := strconv.FormatInt(from, 10)

	switch command {
	case "start":
		msg.Text = "Welcome to LeagueBot! Use /help to see available commands."
	case "help":
		msg.Text = helpText
		msg.ParseMode = ""
	case "leaderboard":
		h.reply(&msg, "leaderboard", func() (string, error) { return h.leagueService.GetLeaderboard(ctx) })
	case "week":
		h.handleWeek(ctx, &msg)
	case "matchups":
		h.handleMatchups(ctx, &msg, args)
	case "team":
		h.handleTeam(ctx, &msg, args)
	case "unscheduled":
		h.reply(&msg, "unscheduled matches", func() (string, error) { return h.leagueService.GetUnscheduled(ctx) })
	case "challenge":
		h.handleChallenge(ctx, &msg, args, member)
	case "schedule":
		h.handleSchedule(ctx, &msg, args)
	case "score":
		h.handleScore(ctx, &msg, args, member, h.admins[from])
	case "acceptscore":
		h.handleAnswer(ctx, &msg, args, member, "acceptscore", h.leagueService.AcceptScore)
	case "denyscore":
		h.handleAnswer(ctx, &msg, args, member, "denyscore", h.leagueService.DenyScore)
	case "advanceweek", "lockrosters", "unlockrosters", "clearproposals", "orphans":
		if !h.admins[from] {
			msg.Text = "⛔ Only league admins can use /" + command + "."
			return msg
		}
		h.handleAdmin(ctx, &msg, command, args)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) handleAdmin(ctx context.Context, msg *tgbotapi.MessageConfig, command, args string) {
	switch command {
	case "advanceweek":
		h.handleAdvanceWeek(ctx, msg, args)
	case "lockrosters":
		h.reply(msg, "rosters", func() (string, error) { return h.leagueService.SetRostersLocked(ctx, true) })
	case "unlockrosters":
		h.reply(msg, "rosters", func() (string, error) { return h.leagueService.SetRostersLocked(ctx, false) })
	case "clearproposals":
		if args == "" {
			msg.Text = "Please provide a team name. Usage: /clearproposals <team>"
			return
		}
		h.reply(msg, "proposals", func() (string, error) { return h.leagueService.ClearProposals(ctx, args) })
	case "orphans":
		h.reply(msg, "orphaned ratings", func() (string, error) { return h.leagueService.GetOrphans(ctx) })
	}
}

// reply fills msg with the result of fn, or a short error naming what failed.
func (h *Handler) reply(msg *tgbotapi.MessageConfig, what string, fn func() (string, error)) {
	text, err := fn()
	if err != nil {
		msg.Text = fmt.Sprintf("Error fetching %s: %v", what, err)
		msg.ParseMode = ""
		return
	}
	msg.Text = text
}

func (h *Handler) handleWeek(ctx context.Context, msg *tgbotapi.MessageConfig) {
	week, err := h.leagueService.GetCurrentWeek(ctx)
	if err != nil {
		msg.Text = fmt.Sprintf("Error fetching current week: %v", err)
		return
	}
	if week == 0 {
		msg.Text = "The league has not started yet."
		return
	}
	msg.Text = fmt.Sprintf("📆 It is week *%d*.", week)
}

func (h *Handler) handleMatchups(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	week := 0
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			msg.Text = "Week must be a number of 1 or more. Usage: /matchups [week]"
			return
		}
		week = n
	}
	h.reply(msg, "matchups", func() (string, error) { return h.leagueService.GetMatchups(ctx, week) })
}

func (h *Handler) handleTeam(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a team name. Usage: /team <team name>"
		return
	}
	h.reply(msg, "team", func() (string, error) { return h.leagueService.GetTeam(ctx, args) })
}

func (h *Handler) handleAdvanceWeek(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	week, force := 0, false
	for _, f := range strings.Fields(args) {
		if strings.EqualFold(f, "force") {
			force = true
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			msg.Text = "Usage: /advanceweek [week] [force]"
			return
		}
		week = n
	}

	if week == 0 {
		h.reply(msg, "week", func() (string, error) { return h.leagueService.NextWeek(ctx, force) })
		return
	}
	h.reply(msg, "week", func() (string, error) { return h.leagueService.AdvanceWeek(ctx, week, force) })
}

func (h *Handler) handleChallenge(ctx context.Context, msg *tgbotapi.MessageConfig, args, member string) {
	parts := strings.Split(args, "|")
	if len(parts) < 2 || len(parts) > 3 {
		msg.Text = "Usage: /challenge <team> | <team> [| date]"
		return
	}
	teamA, teamB := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	date := ""
	if len(parts) == 3 {
		date = strings.TrimSpace(parts[2])
	}
	h.reply(msg, "challenge", func() (string, error) {
		return h.leagueService.Challenge(ctx, teamA, teamB, member, date)
	})
}

func (h *Handler) handleSchedule(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	id, date, _ := strings.Cut(args, " ")
	if id == "" || strings.TrimSpace(date) == "" {
		msg.Text = "Usage: /schedule <match id> <date>"
		return
	}
	h.reply(msg, "schedule", func() (string, error) { return h.leagueService.Schedule(ctx, id, date) })
}

// handleScore resolves the match at once for admins; anyone else proposes the
// score to the other team.
func (h *Handler) handleScore(ctx context.Context, msg *tgbotapi.MessageConfig, args, member string, admin bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		msg.Text = "Usage: /score <match id> <Mode:A-B> <Mode:A-B> [Mode:A-B]"
		return
	}
	id, maps := fields[0], fields[1:]
	if admin {
		h.reply(msg, "score", func() (string, error) { return h.leagueService.ResolveScore(ctx, id, maps) })
		return
	}
	h.reply(msg, "score", func() (string, error) { return h.leagueService.ProposeScore(ctx, id, member, maps) })
}

func (h *Handler) handleAnswer(ctx context.Context, msg *tgbotapi.MessageConfig, args, member, command string,
	answer func(ctx context.Context, matchID, memberID string) (string, error)) {
	if args == "" || strings.ContainsAny(args, " \t") {
		msg.Text = fmt.Sprintf("Usage: /%s <match id>", command)
		return
	}
	h.reply(msg, "score", func() (string, error) { return answer(ctx, args, member) })
}
