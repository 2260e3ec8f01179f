// Package app assembles the league engine from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omarshaarawi/leaguebot/internal/config"
	"github.com/omarshaarawi/leaguebot/internal/league"
	"github.com/omarshaarawi/leaguebot/internal/store"
	"github.com/omarshaarawi/leaguebot/internal/store/bolt"
	"github.com/omarshaarawi/leaguebot/internal/store/memory"
	"github.com/omarshaarawi/leaguebot/internal/store/postgres"
	"github.com/omarshaarawi/leaguebot/internal/store/sheets"
)

// OpenStore connects to the configured backend.
func OpenStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = memory.New()
	case config.BackendBolt:
		s, err = bolt.NewBoltStorage(cfg.BoltPath)
	case config.BackendSheets:
		s, err = sheets.New(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
	case config.BackendPostgres:
		s, err = postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}
	slog.Info("Store opened", "backend", cfg.Backend)
	return s, nil
}

// League is an engine together with the store it owns.
type League struct {
	Engine *league.Engine
	store  store.Store
}

func Open(ctx context.Context, storeCfg config.Store, leagueCfg config.League, opts ...league.Option) (*League, error) {
	s, err := OpenStore(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	engine, err := league.Open(ctx, s, leagueCfg.Settings(), opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return &League{Engine: engine, store: s}, nil
}

func (l *League) Store() store.Store {
	return l.store
}

func (l *League) Close() error {
	return l.store.Close()
}
