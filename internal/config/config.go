package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"github.com/omarshaarawi/leaguebot/internal/league"
)

const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
)

type Config struct {
	TelegramBot TelegramBot
	Store       Store
	League      League
	Schedule    Schedule
	HTTP        HTTP
}

// CLIConfig is the subset leaguectl needs; it runs without a chat connection.
type CLIConfig struct {
	Store  Store
	League League
}

type TelegramBot struct {
	Token    string  `envconfig:"TELEGRAM_TOKEN" required:"true"`
	ChatID   int64   `envconfig:"CHAT_ID" required:"true"`
	AdminIDs []int64 `envconfig:"ADMIN_IDS"`
}

type Store struct {
	Backend         string `envconfig:"STORE_BACKEND" default:"bolt"`
	BoltPath        string `envconfig:"BOLT_PATH" default:"leaguebot.db"`
	SpreadsheetID   string `envconfig:"SPREADSHEET_ID"`
	CredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`
	PostgresDSN     string `envconfig:"POSTGRES_DSN"`
}

type League struct {
	TeamMinPlayers    int    `envconfig:"TEAM_MIN_PLAYERS" default:"3"`
	MinimumTeamsStart int    `envconfig:"MINIMUM_TEAMS_START" default:"2"`
	EloWinPoints      int    `envconfig:"ELO_WIN_POINTS" default:"25"`
	EloLossPoints     int    `envconfig:"ELO_LOSS_POINTS" default:"-25"`
	ForfeitAffectsElo bool   `envconfig:"FORFEIT_AFFECTS_ELO" default:"true"`
	MatchPingFullTeam bool   `envconfig:"MATCH_PING_FULL_TEAM" default:"false"`
	StartingRating    int    `envconfig:"STARTING_RATING" default:"800"`
	TieLabel          string `envconfig:"TIE_LABEL" default:"Tie"`
}

type Schedule struct {
	Enabled      bool          `envconfig:"SCHEDULE_ENABLED" default:"true"`
	Timezone     string        `envconfig:"SCHEDULE_TIMEZONE" default:"America/Chicago"`
	AutoAdvance  string        `envconfig:"AUTO_ADVANCE_CRON" default:"0 18 * * 0"`
	ForceAdvance bool          `envconfig:"AUTO_ADVANCE_FORCE" default:"true"`
	Leaderboard  string        `envconfig:"LEADERBOARD_CRON" default:"30 7 * * 1"`
	Reminder     string        `envconfig:"UNSCHEDULED_REMINDER_CRON" default:"0 12 * * *"`
	ProposalTTL  time.Duration `envconfig:"SCORE_PROPOSAL_TTL" default:"24h"`
}

type HTTP struct {
	Addr string `envconfig:"HTTP_ADDR" default:":80"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func NewCLI() (*CLIConfig, error) {
	var c CLIConfig
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(c.Store.Validate(), c.League.Validate()); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	return errors.Join(c.Store.Validate(), c.League.Validate(), c.Schedule.Validate())
}

func (s Store) Validate() error {
	switch s.Backend {
	case BackendMemory:
	case BackendBolt:
		if s.BoltPath == "" {
			return errors.New("BOLT_PATH is required for the bolt backend")
		}
	case BackendSheets:
		if s.SpreadsheetID == "" {
			return errors.New("SPREADSHEET_ID is required for the sheets backend")
		}
	case BackendPostgres:
		if s.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", s.Backend)
	}
	return nil
}

func (l League) Validate() error {
	var errs []error
	if l.TeamMinPlayers < 1 || l.TeamMinPlayers > 6 {
		errs = append(errs, fmt.Errorf("TEAM_MIN_PLAYERS must be between 1 and 6, got %d", l.TeamMinPlayers))
	}
	if l.MinimumTeamsStart < 0 {
		errs = append(errs, fmt.Errorf("MINIMUM_TEAMS_START must not be negative, got %d", l.MinimumTeamsStart))
	}
	if l.EloWinPoints < 0 || l.EloLossPoints > 0 {
		errs = append(errs, fmt.Errorf("ELO_WIN_POINTS must be >= 0 and ELO_LOSS_POINTS <= 0, got %d/%d", l.EloWinPoints, l.EloLossPoints))
	}
	return errors.Join(errs...)
}

// Settings converts the league options into the engine's immutable settings.
func (l League) Settings() league.Settings {
	return league.Settings{
		TeamMinPlayers:    l.TeamMinPlayers,
		MinimumTeamsStart: l.MinimumTeamsStart,
		EloWinPoints:      l.EloWinPoints,
		EloLossPoints:     l.EloLossPoints,
		ForfeitAffectsElo: l.ForfeitAffectsElo,
		MatchPingFullTeam: l.MatchPingFullTeam,
		StartingRating:    l.StartingRating,
		TieLabel:          l.TieLabel,
	}
}

func (s Schedule) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULE_TIMEZONE: %w", err))
	}
	for name, expr := range map[string]string{
		"AUTO_ADVANCE_CRON":         s.AutoAdvance,
		"LEADERBOARD_CRON":          s.Leaderboard,
		"UNSCHEDULED_REMINDER_CRON": s.Reminder,
	} {
		if expr == "" {
			continue
		}
		if _, err := cron.ParseStandard(expr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if s.ProposalTTL <= 0 {
		errs = append(errs, fmt.Errorf("SCORE_PROPOSAL_TTL must be positive, got %s", s.ProposalTTL))
	}
	return errors.Join(errs...)
}

// Location is the scheduler's time zone. Validate has already loaded it.
func (s Schedule) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
