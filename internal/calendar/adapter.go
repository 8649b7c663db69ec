package calendar

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
)

// displayLayout renders "Jan 30, 2026 9:00 AM": zero-padded day and
// minutes, no leading zero on the hour, 12-hour clock.
const displayLayout = "Jan 02, 2006 3:04 PM"

// WorkingHours bounds slot suggestions, in 24-hour local clock hours.
type WorkingHours struct {
	Start int
	End   int
}

var DefaultWorkingHours = WorkingHours{Start: 9, End: 17}

// Adapter is the single point of contact between the application and the
// location + calendar subsystems. All timezone-sensitive computation lives
// here so it stays deterministic under a fixed zone.
//
// Every operation fails soft: permission denials and backend failures
// surface as nil, false or empty results, never as errors. Callers are
// interactive surfaces that must not crash on a flaky provider.
type Adapter struct {
	store    Store
	location LocationProvider
	zone     *time.Location
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	calendarID string
}

// New creates an Adapter bound to a calendar store and location provider.
// zone is the host default timezone; nil means time.Local.
func New(store Store, location LocationProvider, zone *time.Location, logger *slog.Logger) *Adapter {
	if zone == nil {
		zone = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		store:    store,
		location: location,
		zone:     zone,
		logger:   logger,
		now:      time.Now,
	}
}

// Initialize requests calendar access and caches the primary calendar
// handle (falling back to the first calendar). Returns false when access
// is denied or no calendar exists; a later call retries from scratch.
func (a *Adapter) Initialize(ctx context.Context) bool {
	if err := a.store.RequestAccess(ctx); err != nil {
		a.logger.Warn("calendar access not granted", "error", err)
		return false
	}

	cals, err := a.store.Calendars(ctx)
	if err != nil {
		a.logger.Warn("listing calendars failed", "error", err)
		return false
	}
	if len(cals) == 0 {
		a.logger.Warn("account has no calendars")
		return false
	}

	chosen := cals[0]
	for _, c := range cals {
		if c.Primary {
			chosen = c
			break
		}
	}

	a.mu.Lock()
	a.calendarID = chosen.ID
	a.mu.Unlock()

	a.logger.Debug("calendar selected", "id", chosen.ID, "name", chosen.Name)
	return true
}

// ensureCalendar returns the cached handle, attempting initialization at
// most once per call when none is cached yet.
func (a *Adapter) ensureCalendar(ctx context.Context) (string, bool) {
	a.mu.Lock()
	id := a.calendarID
	a.mu.Unlock()
	if id != "" {
		return id, true
	}

	if !a.Initialize(ctx) {
		return "", false
	}

	a.mu.Lock()
	id = a.calendarID
	a.mu.Unlock()
	return id, id != ""
}

// ResolveLocation reads the device position and reverse-geocodes it.
// Returns nil when location permission is denied or the position cannot
// be read; callers fall back to the default timezone. City and country
// are best-effort and omitted when reverse geocoding fails.
func (a *Adapter) ResolveLocation(ctx context.Context) *domain.LocationInfo {
	if a.location == nil {
		return nil
	}

	pos, err := a.location.Position(ctx)
	if err != nil {
		a.logger.Warn("location unavailable", "error", err)
		return nil
	}

	info := &domain.LocationInfo{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Timezone:  a.zone.String(),
	}

	place, err := a.location.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		a.logger.Debug("reverse geocoding failed", "error", err)
		return info
	}
	info.City = place.City
	info.Country = place.Country
	return info
}

// CurrentLocalTime returns now expressed in the location's timezone, or
// the default zone when loc is nil.
func (a *Adapter) CurrentLocalTime(loc *domain.LocationInfo) time.Time {
	return a.now().In(a.zoneFor(loc))
}

// FormatLocalDateTime renders t in the target timezone, e.g.
// "Jan 30, 2026 9:00 AM". Deterministic for a fixed (instant, zone) pair.
func (a *Adapter) FormatLocalDateTime(t time.Time, loc *domain.LocationInfo) string {
	return t.In(a.zoneFor(loc)).Format(displayLayout)
}

// CreateEvent writes ev into the device calendar. All-day events are
// normalized to local day bounds first. Returns false, with no side
// effects, when the calendar is unavailable or the write fails.
func (a *Adapter) CreateEvent(ctx context.Context, ev domain.Event) bool {
	id, ok := a.ensureCalendar(ctx)
	if !ok {
		return false
	}

	ev.NormalizeAllDay(a.zone)

	if _, err := a.store.Create(ctx, id, ev, a.zone); err != nil {
		a.logger.Warn("event creation failed", "title", ev.Title, "error", err)
		return false
	}
	return true
}

// ListEvents returns events intersecting [start, end], sorted ascending
// by start time. Returns an empty list when the calendar is unavailable
// or the read fails.
func (a *Adapter) ListEvents(ctx context.Context, start, end time.Time) []domain.Event {
	id, ok := a.ensureCalendar(ctx)
	if !ok {
		return []domain.Event{}
	}

	events, err := a.store.Events(ctx, []string{id}, start, end)
	if err != nil {
		a.logger.Warn("event listing failed", "error", err)
		return []domain.Event{}
	}

	for i := range events {
		if events[i].Category == "" {
			events[i].Category = domain.CategoryOther
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// SuggestMeetingTimes proposes candidate start times inside working hours
// over the next seven days: three slots per day at the work start and two
// and four hours after it, keeping a slot only when a meeting of the given
// duration still ends by the working-hours close. Results are chronological
// and never consult existing events; pair with CheckTimeConflict.
func (a *Adapter) SuggestMeetingTimes(durationMinutes int, loc *domain.LocationInfo, hours WorkingHours) []time.Time {
	if hours == (WorkingHours{}) {
		hours = DefaultWorkingHours
	}
	zone := a.zoneFor(loc)
	now := a.now().In(zone)
	needHours := (durationMinutes + 59) / 60

	var suggestions []time.Time
	for day := 0; day < 7; day++ {
		d := now.AddDate(0, 0, day)
		anchor := time.Date(d.Year(), d.Month(), d.Day(), hours.Start, 0, 0, 0, zone)

		for slot := 0; slot < 3; slot++ {
			t := anchor.Add(time.Duration(slot) * 2 * time.Hour)
			if t.Hour()+needHours <= hours.End {
				suggestions = append(suggestions, t)
			}
		}
	}
	return suggestions
}

// CheckTimeConflict reports whether [start, end) overlaps any existing
// event on the calendar day(s) it spans. Best-effort: any failure to read
// events yields false.
func (a *Adapter) CheckTimeConflict(ctx context.Context, start, end time.Time) bool {
	dayStart := domain.StartOfDay(start.In(a.zone))
	dayEnd := domain.EndOfDay(end.In(a.zone))

	for _, ev := range a.ListEvents(ctx, dayStart, dayEnd) {
		if ev.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (a *Adapter) zoneFor(loc *domain.LocationInfo) *time.Location {
	if loc == nil || loc.Timezone == "" {
		return a.zone
	}
	zone, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		a.logger.Debug("unknown timezone, using default", "timezone", loc.Timezone)
		return a.zone
	}
	return zone
}
