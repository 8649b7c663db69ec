package domain

import "time"

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

// ParseCategory maps a free-form string onto a known category.
// Calendar backends carry no category concept, so anything unknown
// (including the empty string) becomes CategoryOther.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryWork, CategoryPersonal, CategoryHealth:
		return Category(s)
	default:
		return CategoryOther
	}
}

// LocationInfo describes the user's resolved position and timezone.
// It is built once per session and never mutated afterwards; a nil
// *LocationInfo means "use the configured default timezone".
type LocationInfo struct {
	Latitude  float64
	Longitude float64
	Timezone  string // IANA name, e.g. "America/New_York"
	City      string
	Country   string
}

// Event is the provider-neutral calendar event shape.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
	AllDay      bool
	Category    Category
	Attendees   []string
}

// NormalizeAllDay snaps an all-day event to full local calendar days:
// start at midnight of its day, end at the last nanosecond of its own day,
// so multi-day events keep their span. A zero or inverted end collapses to
// the start's day. Timed events are left untouched.
func (e *Event) NormalizeAllDay(loc *time.Location) {
	if !e.AllDay {
		return
	}
	if loc == nil {
		loc = time.Local
	}
	e.Start = StartOfDay(e.Start.In(loc))
	if e.End.IsZero() || e.End.Before(e.Start) {
		e.End = EndOfDay(e.Start)
		return
	}
	e.End = EndOfDay(e.End.In(loc))
}

// Overlaps reports whether [start, end) collides with the event's own
// interval. The three cases are kept explicit: start inside the event,
// end inside the event, or the new range containing the event entirely.
func (e *Event) Overlaps(start, end time.Time) bool {
	startInside := !start.Before(e.Start) && start.Before(e.End)
	endInside := end.After(e.Start) && !end.After(e.End)
	contains := !start.After(e.Start) && !end.Before(e.End)
	return startInside || endInside || contains
}

// FormatClock returns the event's time-of-day range for display.
func (e *Event) FormatClock() string {
	if e.AllDay {
		return "all day"
	}
	if e.End.IsZero() {
		return e.Start.Format("15:04")
	}
	return e.Start.Format("15:04") + "-" + e.End.Format("15:04")
}

// IsToday reports whether the event starts on the current day in loc.
func (e *Event) IsToday(loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	now := time.Now().In(loc)
	start := e.Start.In(loc)
	return start.Year() == now.Year() && start.YearDay() == now.YearDay()
}

// StartOfDay returns midnight of t's calendar day, in t's own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
