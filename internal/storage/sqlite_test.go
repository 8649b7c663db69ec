package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingTaskReturnsNil(t *testing.T) {
	s := newTestStorage(t)

	task, err := s.GetTask(42)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestListTasksPriorityOrder(t *testing.T) {
	s := newTestStorage(t)

	for _, p := range []domain.Priority{domain.PrioritySomeday, domain.PriorityUrgent, domain.PriorityWeek} {
		require.NoError(t, s.CreateTask(&domain.Task{Title: string(p), Priority: p, Category: domain.CategoryOther}))
	}

	tasks, err := s.ListTasks(false)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, domain.PriorityUrgent, tasks[0].Priority)
	assert.Equal(t, domain.PriorityWeek, tasks[1].Priority)
	assert.Equal(t, domain.PrioritySomeday, tasks[2].Priority)
}

func TestListTasksForToday(t *testing.T) {
	s := newTestStorage(t)

	dayStart := domain.StartOfDay(time.Now().UTC())
	today := dayStart.Add(10 * time.Hour)
	tomorrow := dayStart.Add(34 * time.Hour)
	yesterday := dayStart.Add(-10 * time.Hour)

	mk := func(title string, priority domain.Priority, due *time.Time) int64 {
		task := &domain.Task{Title: title, Priority: priority, Category: domain.CategoryOther, DueDate: due}
		require.NoError(t, s.CreateTask(task))
		return task.ID
	}

	mk("due today", domain.PriorityWeek, &today)
	mk("due tomorrow", domain.PriorityWeek, &tomorrow)
	mk("overdue urgent", domain.PriorityUrgent, &yesterday)
	mk("undated urgent", domain.PriorityUrgent, nil)
	mk("undated someday", domain.PrioritySomeday, nil)
	doneID := mk("done today", domain.PriorityUrgent, &today)
	require.NoError(t, s.MarkTaskDone(doneID))

	tasks, err := s.ListTasksForToday(dayStart)
	require.NoError(t, err)

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"due today", "overdue urgent", "undated urgent"}, titles)
}

func TestReminderNextRunPersistence(t *testing.T) {
	s := newTestStorage(t)

	next := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	r := &domain.Reminder{
		Title:    "Drink water",
		Kind:     domain.ReminderDaily,
		Schedule: "00 10 * * *",
		IsActive: true,
		NextRun:  &next,
	}
	require.NoError(t, s.CreateReminder(r))
	require.NotZero(t, r.ID)

	got, err := s.GetReminder(r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.NextRun)
	assert.True(t, got.NextRun.Equal(next))
	assert.Nil(t, got.LastFired)
}

func TestListDueReminders(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due := &domain.Reminder{Title: "due", Kind: domain.ReminderDaily, Schedule: "0 9 * * *", IsActive: true, NextRun: &past}
	notYet := &domain.Reminder{Title: "not yet", Kind: domain.ReminderDaily, Schedule: "0 9 * * *", IsActive: true, NextRun: &future}
	paused := &domain.Reminder{Title: "paused", Kind: domain.ReminderDaily, Schedule: "0 9 * * *", IsActive: true, NextRun: &past}
	require.NoError(t, s.CreateReminder(due))
	require.NoError(t, s.CreateReminder(notYet))
	require.NoError(t, s.CreateReminder(paused))
	require.NoError(t, s.SetReminderActive(paused.ID, false))

	got, err := s.ListDueReminders(now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "due", got[0].Title)
}

func TestUpdateReminderNextRun(t *testing.T) {
	s := newTestStorage(t)

	first := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	r := &domain.Reminder{Title: "Stretch", Kind: domain.ReminderDaily, Schedule: "0 9 * * *", IsActive: true, NextRun: &first}
	require.NoError(t, s.CreateReminder(r))

	fired := time.Now().UTC().Truncate(time.Second)
	next := fired.Add(24 * time.Hour)
	require.NoError(t, s.UpdateReminderNextRun(r.ID, fired, next))

	got, err := s.GetReminder(r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastFired)
	assert.True(t, got.LastFired.Equal(fired))
	assert.True(t, got.NextRun.Equal(next))
}
