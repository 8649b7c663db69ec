package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
	"github.com/Doclaw-Tech-X4/MindEase/internal/storage"
)

type ReminderService struct {
	storage  *storage.Storage
	timezone *time.Location
}

func NewReminderService(s *storage.Storage, tz *time.Location) *ReminderService {
	if tz == nil {
		tz = time.Local
	}
	return &ReminderService{
		storage:  s,
		timezone: tz,
	}
}

// Create registers a daily or weekly routine firing at the given local
// time ("HH:MM"); weekday is only consulted for weekly reminders.
func (s *ReminderService) Create(title string, kind domain.ReminderKind, at string, weekday time.Weekday) (*domain.Reminder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("reminder title cannot be empty")
	}

	schedule, err := buildCronSchedule(kind, at, weekday)
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	nextRun, err := s.calculateNextRun(schedule)
	if err != nil {
		return nil, fmt.Errorf("calculate next run: %w", err)
	}

	reminder := &domain.Reminder{
		Title:    title,
		Kind:     kind,
		Schedule: schedule,
		IsActive: true,
		NextRun:  &nextRun,
	}

	if err := s.storage.CreateReminder(reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	return reminder, nil
}

func buildCronSchedule(kind domain.ReminderKind, at string, weekday time.Weekday) (string, error) {
	if at == "" {
		at = "09:00"
	}
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format: %s", at)
	}
	hour, minute := parts[0], parts[1]

	switch kind {
	case domain.ReminderDaily:
		return fmt.Sprintf("%s %s * * *", minute, hour), nil
	case domain.ReminderWeekly:
		return fmt.Sprintf("%s %s * * %d", minute, hour, int(weekday)), nil
	default:
		return "", fmt.Errorf("unknown reminder kind: %s", kind)
	}
}

func (s *ReminderService) calculateNextRun(schedule string) (time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule: %w", err)
	}

	now := time.Now().In(s.timezone)
	return sched.Next(now), nil
}

func (s *ReminderService) List() ([]*domain.Reminder, error) {
	return s.storage.ListReminders()
}

func (s *ReminderService) Due() ([]*domain.Reminder, error) {
	now := time.Now().In(s.timezone)
	return s.storage.ListDueReminders(now)
}

// MarkFired records a delivery and advances the reminder to its next
// scheduled run.
func (s *ReminderService) MarkFired(reminderID int64) error {
	reminder, err := s.storage.GetReminder(reminderID)
	if err != nil {
		return fmt.Errorf("get reminder: %w", err)
	}
	if reminder == nil {
		return fmt.Errorf("reminder not found")
	}

	nextRun, err := s.calculateNextRun(reminder.Schedule)
	if err != nil {
		return fmt.Errorf("calculate next run: %w", err)
	}

	now := time.Now().In(s.timezone)
	return s.storage.UpdateReminderNextRun(reminderID, now, nextRun)
}

func (s *ReminderService) SetActive(reminderID int64, active bool) error {
	return s.storage.SetReminderActive(reminderID, active)
}

func (s *ReminderService) Delete(reminderID int64) error {
	reminder, err := s.storage.GetReminder(reminderID)
	if err != nil {
		return fmt.Errorf("get reminder: %w", err)
	}
	if reminder == nil {
		return fmt.Errorf("reminder not found")
	}

	return s.storage.DeleteReminder(reminderID)
}

func (s *ReminderService) FormatReminderList(reminders []*domain.Reminder) string {
	if len(reminders) == 0 {
		return "No reminders"
	}

	var sb strings.Builder
	for _, r := range reminders {
		status := "on"
		if !r.IsActive {
			status = "off"
		}
		nextStr := "-"
		if r.NextRun != nil {
			nextStr = r.NextRun.In(s.timezone).Format("Jan 02 15:04")
		}
		sb.WriteString(fmt.Sprintf("[%s] #%d %s (%s, next: %s)\n", status, r.ID, r.Title, r.Kind, nextStr))
	}
	return sb.String()
}
