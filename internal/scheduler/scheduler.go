package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Doclaw-Tech-X4/MindEase/internal/calendar"
	"github.com/Doclaw-Tech-X4/MindEase/internal/service"
)

// Notifier delivers a fired reminder to the user. The transport (terminal,
// desktop notification, chat) is supplied from outside.
type Notifier interface {
	Notify(title, body string) error
}

// Scheduler drives the periodic work: firing due reminders every minute
// and refreshing the upcoming agenda from the calendar at a configured
// interval.
type Scheduler struct {
	cron      *cron.Cron
	reminders *service.ReminderService
	adapter   *calendar.Adapter
	interval  time.Duration
	notifier  Notifier
	logger    *slog.Logger
}

func New(tz *time.Location, reminders *service.ReminderService, adapter *calendar.Adapter, interval time.Duration, logger *slog.Logger) *Scheduler {
	if tz == nil {
		tz = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(tz)),
		reminders: reminders,
		adapter:   adapter,
		interval:  interval,
		logger:    logger,
	}
}

func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("* * * * *", s.checkReminders); err != nil {
		return fmt.Errorf("add reminder check: %w", err)
	}

	if s.interval > 0 {
		spec := fmt.Sprintf("@every %s", s.interval)
		if _, err := s.cron.AddFunc(spec, func() { s.refreshAgenda(ctx) }); err != nil {
			return fmt.Errorf("add agenda refresh: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "agenda_interval", s.interval)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) checkReminders() {
	due, err := s.reminders.Due()
	if err != nil {
		s.logger.Error("listing due reminders failed", "error", err)
		return
	}

	for _, r := range due {
		if s.notifier != nil {
			if err := s.notifier.Notify(r.Title, fmt.Sprintf("%s reminder", r.Kind)); err != nil {
				s.logger.Error("reminder delivery failed", "id", r.ID, "error", err)
				continue
			}
		}
		if err := s.reminders.MarkFired(r.ID); err != nil {
			s.logger.Error("marking reminder fired failed", "id", r.ID, "error", err)
		}
	}
}

// refreshAgenda pulls the next 24 hours of events so the adapter's handle
// stays warm and upcoming items are logged for the user.
func (s *Scheduler) refreshAgenda(ctx context.Context) {
	now := s.adapter.CurrentLocalTime(nil)
	events := s.adapter.ListEvents(ctx, now, now.Add(24*time.Hour))
	s.logger.Info("agenda refreshed", "upcoming", len(events))

	for _, ev := range events {
		s.logger.Debug("upcoming event",
			"title", ev.Title,
			"starts", s.adapter.FormatLocalDateTime(ev.Start, nil),
		)
	}
}
