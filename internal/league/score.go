package league

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/omarshaarawi/leaguebot/internal/models"
)

const (
	MinMaps = 2
	MaxMaps = 3
)

var ErrInvalidScores = errors.New("invalid map scores")

// Tally totals per-map scores and picks the winning side: higher total first,
// then more maps won. A tie on both leaves the winner as models.SideNone.
func Tally(maps []models.MapScore) (models.ScoreBreakdown, error) {
	if len(maps) < MinMaps || len(maps) > MaxMaps {
		return models.ScoreBreakdown{}, fmt.Errorf("%w: need %d to %d maps, got %d", ErrInvalidScores, MinMaps, MaxMaps, len(maps))
	}

	b := models.ScoreBreakdown{Maps: append([]models.MapScore(nil), maps...)}
	for i, m := range maps {
		if strings.TrimSpace(m.Gamemode) == "" {
			return models.ScoreBreakdown{}, fmt.Errorf("%w: map %d has no gamemode", ErrInvalidScores, i+1)
		}
		if m.TeamAScore < 0 || m.TeamBScore < 0 {
			return models.ScoreBreakdown{}, fmt.Errorf("%w: map %d has a negative score", ErrInvalidScores, i+1)
		}

		b.TotalA += m.TeamAScore
		b.TotalB += m.TeamBScore
		switch {
		case m.TeamAScore > m.TeamBScore:
			b.MapsWonA++
		case m.TeamBScore > m.TeamAScore:
			b.MapsWonB++
		}
	}

	switch {
	case b.TotalA > b.TotalB:
		b.Winner = models.SideA
	case b.TotalB > b.TotalA:
		b.Winner = models.SideB
	case b.MapsWonA > b.MapsWonB:
		b.Winner = models.SideA
	case b.MapsWonB > b.MapsWonA:
		b.Winner = models.SideB
	}
	return b, nil
}

// ParseMapScore reads "Mode:A-B". Underscores in the mode stand for spaces.
func ParseMapScore(s string) (models.MapScore, error) {
	mode, score, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return models.MapScore{}, fmt.Errorf("%w: %q is not Mode:A-B", ErrInvalidScores, s)
	}
	a, b, ok := strings.Cut(score, "-")
	if !ok {
		return models.MapScore{}, fmt.Errorf("%w: %q is not Mode:A-B", ErrInvalidScores, s)
	}

	scoreA, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return models.MapScore{}, fmt.Errorf("%w: bad score %q", ErrInvalidScores, a)
	}
	scoreB, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return models.MapScore{}, fmt.Errorf("%w: bad score %q", ErrInvalidScores, b)
	}

	return models.MapScore{
		Gamemode:   strings.TrimSpace(strings.ReplaceAll(mode, "_", " ")),
		TeamAScore: scoreA,
		TeamBScore: scoreB,
	}, nil
}

func ParseMapScores(args []string) ([]models.MapScore, error) {
	maps := make([]models.MapScore, 0, len(args))
	for _, arg := range args {
		m, err := ParseMapScore(arg)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}
