package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"work", CategoryWork},
		{"personal", CategoryPersonal},
		{"health", CategoryHealth},
		{"other", CategoryOther},
		{"", CategoryOther},
		{"WORK", CategoryOther},
		{"gardening", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategory(tt.in), "input %q", tt.in)
	}
}

func TestEventOverlaps(t *testing.T) {
	day := func(h, m int) time.Time {
		return time.Date(2026, time.April, 10, h, m, 0, 0, time.UTC)
	}
	ev := Event{Start: day(9, 0), End: day(10, 0)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"fully inside", day(9, 15), day(9, 45), true},
		{"start inside", day(9, 30), day(10, 30), true},
		{"end inside", day(8, 30), day(9, 30), true},
		{"contains event", day(8, 0), day(11, 0), true},
		{"identical interval", day(9, 0), day(10, 0), true},
		{"ends exactly at event start", day(8, 0), day(9, 0), false},
		{"starts exactly at event end", day(10, 0), day(11, 0), false},
		{"well before", day(6, 0), day(7, 0), false},
		{"well after", day(12, 0), day(13, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ev.Overlaps(tt.start, tt.end))
		})
	}
}

func TestNormalizeAllDay(t *testing.T) {
	zone, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	t.Run("snaps to local day bounds", func(t *testing.T) {
		ev := Event{
			Start:  time.Date(2026, time.June, 15, 15, 23, 11, 0, zone),
			End:    time.Date(2026, time.June, 15, 16, 0, 0, 0, zone),
			AllDay: true,
		}
		ev.NormalizeAllDay(zone)

		assert.True(t, ev.Start.Equal(time.Date(2026, time.June, 15, 0, 0, 0, 0, zone)))
		assert.True(t, ev.End.Equal(time.Date(2026, time.June, 15, 23, 59, 59, 999999999, zone)))
	})

	t.Run("keeps multi-day span", func(t *testing.T) {
		ev := Event{
			Start:  time.Date(2026, time.June, 15, 10, 0, 0, 0, zone),
			End:    time.Date(2026, time.June, 17, 12, 0, 0, 0, zone),
			AllDay: true,
		}
		ev.NormalizeAllDay(zone)

		assert.True(t, ev.Start.Equal(time.Date(2026, time.June, 15, 0, 0, 0, 0, zone)))
		assert.True(t, ev.End.Equal(time.Date(2026, time.June, 17, 23, 59, 59, 999999999, zone)))
	})

	t.Run("zero end collapses to start day", func(t *testing.T) {
		ev := Event{
			Start:  time.Date(2026, time.June, 15, 10, 0, 0, 0, zone),
			AllDay: true,
		}
		ev.NormalizeAllDay(zone)
		assert.True(t, ev.End.Equal(time.Date(2026, time.June, 15, 23, 59, 59, 999999999, zone)))
	})

	t.Run("inverted end collapses to start day", func(t *testing.T) {
		ev := Event{
			Start:  time.Date(2026, time.June, 15, 10, 0, 0, 0, zone),
			End:    time.Date(2026, time.June, 14, 10, 0, 0, 0, zone),
			AllDay: true,
		}
		ev.NormalizeAllDay(zone)
		assert.True(t, ev.End.Equal(time.Date(2026, time.June, 15, 23, 59, 59, 999999999, zone)))
	})

	t.Run("converts across zones first", func(t *testing.T) {
		// 2026-06-16 02:00 UTC is still June 15 in New York.
		ev := Event{
			Start:  time.Date(2026, time.June, 16, 2, 0, 0, 0, time.UTC),
			AllDay: true,
		}
		ev.NormalizeAllDay(zone)
		assert.Equal(t, 15, ev.Start.Day())
	})

	t.Run("timed events untouched", func(t *testing.T) {
		start := time.Date(2026, time.June, 15, 15, 23, 0, 0, zone)
		end := start.Add(time.Hour)
		ev := Event{Start: start, End: end}
		ev.NormalizeAllDay(zone)

		assert.True(t, ev.Start.Equal(start))
		assert.True(t, ev.End.Equal(end))
	})

	t.Run("idempotent", func(t *testing.T) {
		ev := Event{Start: time.Date(2026, time.June, 15, 9, 0, 0, 0, zone), AllDay: true}
		ev.NormalizeAllDay(zone)
		first := ev
		ev.NormalizeAllDay(zone)
		assert.Equal(t, first, ev)
	})
}

func TestDayBounds(t *testing.T) {
	zone, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	at := time.Date(2026, time.December, 31, 18, 45, 12, 77, zone)

	start := StartOfDay(at)
	assert.True(t, start.Equal(time.Date(2026, time.December, 31, 0, 0, 0, 0, zone)))
	assert.Equal(t, zone.String(), start.Location().String())

	end := EndOfDay(at)
	assert.True(t, end.Equal(time.Date(2026, time.December, 31, 23, 59, 59, 999999999, zone)))

	// The very next nanosecond is the following day.
	assert.Equal(t, 1, end.Add(time.Nanosecond).Day())
}

func TestFormatClock(t *testing.T) {
	start := time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "all day", (&Event{AllDay: true}).FormatClock())
	assert.Equal(t, "09:00", (&Event{Start: start}).FormatClock())
	assert.Equal(t, "09:00-10:30", (&Event{Start: start, End: start.Add(90 * time.Minute)}).FormatClock())
}
