package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguebot/internal/config"
)

// LeagueService is the part of the league service the scheduled posts use.
type LeagueService interface {
	NextWeek(ctx context.Context, force bool) (string, error)
	GetLeaderboard(ctx context.Context) (string, error)
	UnscheduledReminder(ctx context.Context) (string, error)
	ExpireScoreProposals(ttl time.Duration) string
}

type Scheduler struct {
	s             gocron.Scheduler
	leagueService LeagueService
	sendMessage   func(string) error
	cfg           config.Schedule
}

type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock drives the scheduler from clock instead of the wall clock.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func NewScheduler(leagueService LeagueService, sendMessage func(string) error, cfg config.Schedule, opts ...Option) (*Scheduler, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	schedOpts := []gocron.SchedulerOption{gocron.WithLocation(cfg.Location())}
	if o.clock != nil {
		schedOpts = append(schedOpts, gocron.WithClock(o.clock))
	}

	s, err := gocron.NewScheduler(schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:             s,
		leagueService: leagueService,
		sendMessage:   sendMessage,
		cfg:           cfg,
	}, nil
}

func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		cron string
		task func()
	}{
		{name: "advance week", cron: s.cfg.AutoAdvance, task: s.sendNewWeek},
		{name: "leaderboard", cron: s.cfg.Leaderboard, task: s.sendLeaderboard},
		{name: "unscheduled reminder", cron: s.cfg.Reminder, task: s.sendUnscheduled},
	}

	for _, j := range jobs {
		// An empty expression turns the post off.
		if j.cron == "" {
			continue
		}
		_, err := s.s.NewJob(
			gocron.CronJob(j.cron, false),
			gocron.NewTask(j.task),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", j.name, err)
		}
	}

	// Score proposals - hourly
	_, err := s.s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.sendExpiredProposals),
		gocron.WithName("expire score proposals"),
	)
	if err != nil {
		return fmt.Errorf("failed to create proposal expiry job: %w", err)
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	jobs := s.s.Jobs()
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name()
	}
	return names
}

func (s *Scheduler) sendNewWeek() {
	report, err := s.leagueService.NextWeek(context.Background(), s.cfg.ForceAdvance)
	if err != nil {
		slog.Error("Failed to advance week", "error", err)
		return
	}
	s.send(report)
}

func (s *Scheduler) sendLeaderboard() {
	board, err := s.leagueService.GetLeaderboard(context.Background())
	if err != nil {
		slog.Error("Failed to get leaderboard", "error", err)
		return
	}
	s.send(board)
}

func (s *Scheduler) sendUnscheduled() {
	reminder, err := s.leagueService.UnscheduledReminder(context.Background())
	if err != nil {
		slog.Error("Failed to get unscheduled matches", "error", err)
		return
	}
	if reminder == "" {
		return
	}
	s.send(reminder)
}

func (s *Scheduler) sendExpiredProposals() {
	if notice := s.leagueService.ExpireScoreProposals(s.cfg.ProposalTTL); notice != "" {
		s.send(notice)
	}
}

func (s *Scheduler) send(text string) {
	if err := s.sendMessage(text); err != nil {
		slog.Error("Failed to send scheduled message", "error", err)
	}
}
