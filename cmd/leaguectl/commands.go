package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omarshaarawi/leaguebot/internal/league"
	"github.com/omarshaarawi/leaguebot/internal/models"
	"github.com/omarshaarawi/leaguebot/internal/repository"
)

func (c *cli) advanceWeekCmd() *cobra.Command {
	var (
		week  int
		force bool
	)
	cmd := &cobra.Command{
		Use:   "advance-week",
		Short: "Generate the weekly matchups",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine := c.league.Engine
			if week == 0 {
				current, err := engine.CurrentWeek(ctx)
				if err != nil {
					return err
				}
				week = current + 1
			}

			res, err := engine.AdvanceWeek(ctx, week, force)
			if err != nil {
				return err
			}
			if !res.OK {
				return failed(res.Result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			for _, r := range res.Reconciled {
				fmt.Fprintf(out, "closed %s: %s %s\n", r.Match.ID, r.Outcome, r.Winner)
			}
			for _, m := range res.Matches {
				fmt.Fprintf(out, "%s\t%s vs %s\n", m.ID, m.TeamA, m.TeamB)
			}
			if len(res.ShortTeams) > 0 {
				fmt.Fprintf(out, "short of %d matches: %s\n", league.PairingQuota, strings.Join(res.ShortTeams, ", "))
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&week, "week", 0, "week to generate (defaults to the week after the current one)")
	cmd.Flags().BoolVar(&force, "force", false, "close unresolved matches and clear the weekly lists first")
	return cmd
}

func (c *cli) resolveScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve-score MATCH_ID MODE:A-B MODE:A-B [MODE:A-B]",
		Short:   "Record the final score of a match",
		Example: "leaguectl resolve-score Week3-AAA-BBB Payload:3-1 Control_Point:2-1",
		Args:    cobra.RangeArgs(3, 1+league.MaxMaps),
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			maps, err := league.ParseMapScores(args[1:])
			if err != nil {
				return err
			}
			res, err := c.league.Engine.ResolveScore(cmd.Context(), args[0], maps)
			if err != nil {
				return err
			}
			if !res.OK {
				return failed(res.Result)
			}

			out := cmd.OutOrStdout()
			b := res.Breakdown
			fmt.Fprintf(out, "%s: %s %d - %d %s\n", res.Match.ID, res.Match.TeamA, b.TotalA, b.TotalB, res.Match.TeamB)
			if res.Tie {
				fmt.Fprintln(out, "tie, ratings unchanged")
				return nil
			}
			fmt.Fprintf(out, "winner: %s\n", res.Winner)
			return nil
		}),
	}
}

func (c *cli) leaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print every rating record",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			records, err := c.league.Engine.Leaderboard(cmd.Context())
			if err != nil {
				return err
			}
			printRatings(cmd, records)
			return nil
		}),
	}
}

func (c *cli) orphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "Print rating records whose team no longer exists",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			records, err := c.league.Engine.Orphans(cmd.Context())
			if err != nil {
				return err
			}
			printRatings(cmd, records)
			return nil
		}),
	}
}

func printRatings(cmd *cobra.Command, records []models.RatingRecord) {
	out := cmd.OutOrStdout()
	for i, r := range records {
		fmt.Fprintf(out, "%d\t%s\t%d\t%s\t%d-%d\n", i+1, r.TeamName, r.Rating, models.TierFor(r.Rating), r.Wins, r.Losses)
	}
}

func (c *cli) unscheduledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unscheduled",
		Short: "Print open matches without a date",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			matches, err := c.league.Engine.Unscheduled(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range matches {
				fmt.Fprintf(out, "%s\t%s vs %s\t%s\n", m.ID, m.TeamA, m.TeamB, m.Status)
			}
			return nil
		}),
	}
}

func (c *cli) repairSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair-schema",
		Short: "Create missing sheets and fix header rows",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string) error {
			if err := repository.EnsureSchema(cmd.Context(), c.league.Store()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ok: %s\n", strings.Join(repository.SheetNames, ", "))
			return nil
		}),
	}
}

func (c *cli) rostersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rosters",
		Short: "Lock or unlock every roster",
	}
	for _, locked := range []bool{true, false} {
		name := "unlock"
		if locked {
			name = "lock"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: strings.ToUpper(name[:1]) + name[1:] + " every roster",
			Args:  cobra.NoArgs,
			RunE: c.run(func(cmd *cobra.Command, args []string) error {
				n, err := c.league.Engine.SetRostersLocked(cmd.Context(), locked)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d teams changed\n", n)
				return nil
			}),
		})
	}
	return cmd
}
