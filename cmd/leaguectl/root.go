package main

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/omarshaarawi/leaguebot/internal/app"
	"github.com/omarshaarawi/leaguebot/internal/config"
	"github.com/omarshaarawi/leaguebot/internal/league"
)

// cli holds the league opened for the running command.
type cli struct {
	league *app.League
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var envFile string

	root := &cobra.Command{
		Use:           "leaguectl",
		Short:         "leaguectl administers the league store",
		Long:          "leaguectl runs league operations against the configured store without the chat bot.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil {
				slog.Debug("No env file loaded", "file", envFile, "error", err)
			}
			cfg, err := config.NewCLI()
			if err != nil {
				return err
			}
			l, err := app.Open(cmd.Context(), cfg.Store, cfg.League)
			if err != nil {
				return err
			}
			c.league = l
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load before reading configuration")

	root.AddCommand(
		c.advanceWeekCmd(),
		c.resolveScoreCmd(),
		c.leaderboardCmd(),
		c.unscheduledCmd(),
		c.orphansCmd(),
		c.repairSchemaCmd(),
		c.rostersCmd(),
	)
	return root
}

// run wraps a command body so the store is closed even when it fails.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := c.league.Close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

// failed turns a business failure into a command error so the exit code
// reflects it.
func failed(r league.Result) error {
	if len(r.Suggestions) > 0 {
		return fmt.Errorf("%s (did you mean: %v)", r.Message, r.Suggestions)
	}
	return fmt.Errorf("%s", r.Message)
}
