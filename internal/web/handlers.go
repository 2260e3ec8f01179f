package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/unrolled/render"

	"github.com/omarshaarawi/leaguebot/internal/models"
)

type handlers struct {
	league League
	render *render.Render
}

type ratingJSON struct {
	Team          string `json:"team"`
	Rating        int    `json:"rating"`
	Tier          string `json:"tier"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	MatchesPlayed int    `json:"matches_played"`
}

type matchJSON struct {
	ID            string `json:"id"`
	Week          int    `json:"week"`
	Origin        string `json:"origin"`
	TeamA         string `json:"team_a"`
	TeamB         string `json:"team_b"`
	Status        string `json:"status"`
	ProposedDate  string `json:"proposed_date,omitempty"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
	Winner        string `json:"winner,omitempty"`
	Loser         string `json:"loser,omitempty"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toMatchJSON(matches []models.Match) []matchJSON {
	out := make([]matchJSON, len(matches))
	for i, m := range matches {
		out[i] = matchJSON{
			ID:            m.ID,
			Week:          m.Week,
			Origin:        string(m.Origin),
			TeamA:         m.TeamA,
			TeamB:         m.TeamB,
			Status:        string(m.Status),
			ProposedDate:  m.ProposedDate,
			ScheduledDate: m.ScheduledDate,
			Winner:        m.Winner,
			Loser:         m.Loser,
		}
	}
	return out
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("API request failed", "path", r.URL.Path, "error", err)
	// The timeout middleware answers 504 once the deadline has passed.
	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		return
	}
	h.render.JSON(w, http.StatusInternalServerError, errorJSON{Error: "internal error"})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	h.render.Text(w, http.StatusOK, "ok")
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	records, err := h.league.Leaderboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]ratingJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, ratingJSON{
			Team:          rec.TeamName,
			Rating:        rec.Rating,
			Tier:          string(models.TierFor(rec.Rating)),
			Wins:          rec.Wins,
			Losses:        rec.Losses,
			MatchesPlayed: rec.MatchesPlayed,
		})
	}
	h.render.JSON(w, http.StatusOK, out)
}

func (h *handlers) unscheduled(w http.ResponseWriter, r *http.Request) {
	matches, err := h.league.Unscheduled(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, toMatchJSON(matches))
}

func (h *handlers) currentMatches(w http.ResponseWriter, r *http.Request) {
	week, err := h.league.CurrentWeek(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.matches(w, r, week)
}

func (h *handlers) weekMatches(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(mux.Vars(r)["week"])
	if err != nil || week < 1 {
		h.render.JSON(w, http.StatusBadRequest, errorJSON{Error: "week must be a positive number"})
		return
	}
	h.matches(w, r, week)
}

func (h *handlers) matches(w http.ResponseWriter, r *http.Request, week int) {
	matches, err := h.league.Matchups(r.Context(), week)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, toMatchJSON(matches))
}
