package domain

import "time"

type ReminderKind string

const (
	ReminderDaily  ReminderKind = "daily"
	ReminderWeekly ReminderKind = "weekly"
)

// Reminder is a recurring wellness routine (hydration, stretch break,
// journaling) fired by the scheduler.
type Reminder struct {
	ID        int64
	Title     string
	Kind      ReminderKind
	Schedule  string // cron expression in the configured timezone
	IsActive  bool
	LastFired *time.Time
	NextRun   *time.Time
	CreatedAt time.Time
}
