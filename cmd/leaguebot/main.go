package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/omarshaarawi/leaguebot/internal/app"
	"github.com/omarshaarawi/leaguebot/internal/bot"
	"github.com/omarshaarawi/leaguebot/internal/config"
	"github.com/omarshaarawi/leaguebot/internal/league"
	"github.com/omarshaarawi/leaguebot/internal/metrics"
	"github.com/omarshaarawi/leaguebot/internal/scheduler"
	"github.com/omarshaarawi/leaguebot/internal/service"
	"github.com/omarshaarawi/leaguebot/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder, err := metrics.NewRecorder()
	if err != nil {
		return err
	}

	lg, err := app.Open(ctx, cfg.Store, cfg.League, league.WithRecorder(recorder))
	if err != nil {
		return err
	}
	defer func() {
		if err := lg.Close(); err != nil {
			slog.Error("Error closing store", "error", err)
		}
	}()

	if week, err := lg.Engine.CurrentWeek(ctx); err == nil {
		recorder.SetCurrentWeek(week)
	}

	leagueService := service.NewLeagueService(lg.Engine)

	telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, cfg.TelegramBot.AdminIDs, leagueService)
	if err != nil {
		return err
	}

	if cfg.Schedule.Enabled {
		sched, err := scheduler.NewScheduler(leagueService, telegramBot.SendMessage, cfg.Schedule)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			err := sched.Stop()
			if err != nil {
				slog.Error("Error stopping scheduler", "error", err)
			}
		}()
	}

	server := web.NewServer(cfg.HTTP.Addr, lg.Engine, recorder.Handler())
	go func() {
		if err := server.Run(ctx); err != nil {
			slog.Error("Error running HTTP server", "error", err)
		}
	}()

	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			slog.Error("Error running telegram bot", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	return nil
}
