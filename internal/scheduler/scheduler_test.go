package scheduler

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
	"github.com/Doclaw-Tech-X4/MindEase/internal/service"
	"github.com/Doclaw-Tech-X4/MindEase/internal/storage"
)

type recordingNotifier struct {
	titles []string
	err    error
}

func (n *recordingNotifier) Notify(title, body string) error {
	if n.err != nil {
		return n.err
	}
	n.titles = append(n.titles, title)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *storage.Storage, *recordingNotifier) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reminders := service.NewReminderService(store, time.UTC)
	s := New(time.UTC, reminders, nil, 0, slog.New(slog.DiscardHandler))

	notifier := &recordingNotifier{}
	s.SetNotifier(notifier)
	return s, store, notifier
}

func dueReminder(t *testing.T, store *storage.Storage, title string) *domain.Reminder {
	t.Helper()
	past := time.Now().UTC().Add(-time.Minute)
	r := &domain.Reminder{
		Title:    title,
		Kind:     domain.ReminderDaily,
		Schedule: "0 9 * * *",
		IsActive: true,
		NextRun:  &past,
	}
	require.NoError(t, store.CreateReminder(r))
	return r
}

func TestCheckRemindersFiresAndAdvances(t *testing.T) {
	s, store, notifier := newTestScheduler(t)
	r := dueReminder(t, store, "Drink water")

	s.checkReminders()

	assert.Equal(t, []string{"Drink water"}, notifier.titles)

	got, err := store.GetReminder(r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastFired)
	require.NotNil(t, got.NextRun)
	assert.True(t, got.NextRun.After(time.Now()))

	// The reminder was advanced, so a second sweep delivers nothing.
	s.checkReminders()
	assert.Len(t, notifier.titles, 1)
}

func TestCheckRemindersKeepsDueOnDeliveryFailure(t *testing.T) {
	s, store, notifier := newTestScheduler(t)
	r := dueReminder(t, store, "Stretch")
	notifier.err = assert.AnError

	s.checkReminders()

	// Delivery failed, so the reminder stays due for the next sweep.
	got, err := store.GetReminder(r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastFired)

	notifier.err = nil
	s.checkReminders()
	assert.Equal(t, []string{"Stretch"}, notifier.titles)
}

func TestCheckRemindersSkipsInactive(t *testing.T) {
	s, store, notifier := newTestScheduler(t)
	r := dueReminder(t, store, "Paused routine")
	require.NoError(t, store.SetReminderActive(r.ID, false))

	s.checkReminders()
	assert.Empty(t, notifier.titles)
}
