package league

import (
	"context"
	"fmt"

	"github.com/omarshaarawi/leaguebot/internal/repository"
	"github.com/omarshaarawi/leaguebot/internal/repository/memory"
	"github.com/omarshaarawi/leaguebot/internal/store"
)

// Open ensures the league schema on s and returns an engine backed by it.
func Open(ctx context.Context, s store.Store, settings Settings, opts ...Option) (*Engine, error) {
	if err := repository.EnsureSchema(ctx, s); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	e := NewEngine(settings, Deps{}, opts...)

	roster, err := repository.NewRoster(ctx, s)
	if err != nil {
		return nil, err
	}
	ratings, err := repository.NewRatings(ctx, s, settings.StartingRating)
	if err != nil {
		return nil, err
	}
	ledger, err := repository.NewLedger(ctx, s)
	if err != nil {
		return nil, err
	}
	history, err := repository.NewHistory(ctx, s, e.clock)
	if err != nil {
		return nil, err
	}
	week, err := repository.NewWeek(ctx, s)
	if err != nil {
		return nil, err
	}

	e.deps = Deps{
		Roster:    roster,
		Ratings:   ratings,
		Ledger:    ledger,
		History:   history,
		Week:      week,
		Proposals: memory.NewRepository(e.clock),
	}
	return e, nil
}
