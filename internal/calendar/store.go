package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
)

// ErrPermissionDenied is returned by capability implementations when the
// user has not granted access to the underlying subsystem. The adapter
// never propagates it; it is flattened into nil/false/empty results.
var ErrPermissionDenied = errors.New("permission denied")

// ErrNoCalendar is returned when the account has no usable calendar.
var ErrNoCalendar = errors.New("no calendar available")

// CalendarInfo identifies one calendar in the backing store.
type CalendarInfo struct {
	ID      string
	Name    string
	Primary bool
}

// Store is the calendar capability the adapter talks to. Implementations
// live in internal/clients (CalDAV, Google Calendar).
type Store interface {
	// RequestAccess verifies the store is reachable with the configured
	// credentials. ErrPermissionDenied signals a rejected login.
	RequestAccess(ctx context.Context) error

	// Calendars lists the calendars available to the account.
	Calendars(ctx context.Context) ([]CalendarInfo, error)

	// Create writes a new event into the given calendar, tagged with tz,
	// and returns the store-assigned event ID.
	Create(ctx context.Context, calendarID string, ev domain.Event, tz *time.Location) (string, error)

	// Events returns events whose interval intersects [start, end].
	Events(ctx context.Context, calendarIDs []string, start, end time.Time) ([]domain.Event, error)
}

// Position is a raw device coordinate pair.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Place is the best-effort reverse-geocoding result.
type Place struct {
	City    string
	Country string
}

// LocationProvider is the location capability. ReverseGeocode failures are
// independent of Position: callers treat them as "city unknown".
type LocationProvider interface {
	Position(ctx context.Context) (Position, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}
