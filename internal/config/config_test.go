package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/leaguebot/internal/league"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("CHAT_ID", "-1001")
	t.Setenv("ADMIN_IDS", "11,22")

	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, int64(-1001), c.TelegramBot.ChatID)
	assert.Equal(t, []int64{11, 22}, c.TelegramBot.AdminIDs)
	assert.Equal(t, BackendBolt, c.Store.Backend)
	assert.Equal(t, ":80", c.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, c.Schedule.ProposalTTL)
	assert.Equal(t, "America/Chicago", c.Schedule.Location().String())
	assert.Equal(t, league.DefaultSettings(), c.League.Settings())
}

func TestNewMissingToken(t *testing.T) {
	t.Setenv("CHAT_ID", "1")
	_, err := New()
	assert.Error(t, err)
}

func TestNewCLI(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("TIE_LABEL", "")

	c, err := NewCLI()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, c.Store.Backend)
	assert.Empty(t, c.League.Settings().TieLabel)
}

func TestStoreValidate(t *testing.T) {
	tests := []struct {
		name    string
		store   Store
		wantErr bool
	}{
		{name: "memory", store: Store{Backend: BackendMemory}},
		{name: "bolt", store: Store{Backend: BackendBolt, BoltPath: "x.db"}},
		{name: "bolt without path", store: Store{Backend: BackendBolt}, wantErr: true},
		{name: "sheets", store: Store{Backend: BackendSheets, SpreadsheetID: "abc"}},
		{name: "sheets without id", store: Store{Backend: BackendSheets}, wantErr: true},
		{name: "postgres without dsn", store: Store{Backend: BackendPostgres}, wantErr: true},
		{name: "unknown", store: Store{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.store.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLeagueValidate(t *testing.T) {
	ok := League{TeamMinPlayers: 3, MinimumTeamsStart: 2, EloWinPoints: 25, EloLossPoints: -25}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.TeamMinPlayers = 7
	assert.Error(t, bad.Validate())

	bad = ok
	bad.EloLossPoints = 5
	assert.Error(t, bad.Validate())
}

func TestScheduleValidate(t *testing.T) {
	s := Schedule{Timezone: "UTC", AutoAdvance: "0 18 * * 0", ProposalTTL: time.Hour}
	assert.NoError(t, s.Validate())

	s.Leaderboard = "every monday"
	assert.ErrorContains(t, s.Validate(), "LEADERBOARD_CRON")

	s.Leaderboard = ""
	s.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, s.Validate(), "SCHEDULE_TIMEZONE")
	assert.Equal(t, time.UTC, s.Location())
}
