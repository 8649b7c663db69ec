package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	appcal "github.com/Doclaw-Tech-X4/MindEase/internal/calendar"
	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
)

const (
	// Apple iCloud CalDAV endpoint, the default backing store.
	DefaultURL = "https://caldav.icloud.com"

	prodID = "-//MindEase//Calendar//EN"
)

// Client is a CalDAV implementation of the calendar store capability.
type Client struct {
	baseURL  string
	username string
	password string
	// preferred is the display name of the calendar to treat as primary;
	// CalDAV itself has no primary flag.
	preferred string
	zone      *time.Location
	logger    *slog.Logger
	client    *caldav.Client
}

// NewClient creates a CalDAV client. zone is the timezone all-day events
// are normalized into; nil means time.Local.
func NewClient(baseURL, username, password, preferred string, zone *time.Location, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if zone == nil {
		zone = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   baseURL,
		username:  username,
		password:  password,
		preferred: preferred,
		zone:      zone,
		logger:    logger,
	}
}

// IsConfigured returns true if the client has credentials.
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != ""
}

// connect establishes the CalDAV connection lazily. Connecting twice is
// harmless; both arrive at the same client value.
func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// RequestAccess verifies credentials by resolving the current user
// principal. Missing credentials and rejected logins both surface as
// ErrPermissionDenied.
func (c *Client) RequestAccess(ctx context.Context) error {
	if !c.IsConfigured() {
		return appcal.ErrPermissionDenied
	}

	client, err := c.connect()
	if err != nil {
		return err
	}

	if _, err := client.FindCurrentUserPrincipal(ctx); err != nil {
		return mapAccessError(err)
	}
	return nil
}

// Calendars lists the account's calendars. The calendar matching the
// configured preferred name is flagged primary.
func (c *Client) Calendars(ctx context.Context) ([]appcal.CalendarInfo, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, mapAccessError(err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []appcal.CalendarInfo
	for _, cal := range cals {
		result = append(result, appcal.CalendarInfo{
			ID:      cal.Path,
			Name:    cal.Name,
			Primary: c.preferred != "" && cal.Name == c.preferred,
		})
	}
	return result, nil
}

// Create writes a new event and returns its UID.
func (c *Client) Create(ctx context.Context, calendarID string, ev domain.Event, tz *time.Location) (string, error) {
	client, err := c.connect()
	if err != nil {
		return "", err
	}
	if calendarID == "" {
		return "", appcal.ErrNoCalendar
	}

	uid := ev.ID
	if uid == "" {
		uid = uuid.NewString() + "@mindease"
	}

	cal := eventToICS(ev, uid, tz)

	eventPath := calendarID
	if !strings.HasSuffix(eventPath, "/") {
		eventPath += "/"
	}
	eventPath += uid + ".ics"

	if _, err := client.PutCalendarObject(ctx, eventPath, cal); err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return uid, nil
}

// Events returns events intersecting [start, end] across the given
// calendars, with recurring masters expanded into the window.
func (c *Client) Events(ctx context.Context, calendarIDs []string, start, end time.Time) ([]domain.Event, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: start,
					End:   end,
				},
			},
		},
	}

	var events []domain.Event
	for _, calID := range calendarIDs {
		objects, err := client.QueryCalendar(ctx, calID, query)
		if err != nil {
			return nil, fmt.Errorf("query calendar %s: %w", calID, err)
		}

		for i := range objects {
			ev, rruleStr, err := parseObject(&objects[i], c.zone)
			if err != nil {
				c.logger.Debug("skipping unparsable calendar object", "path", objects[i].Path, "error", err)
				continue
			}
			if rruleStr != "" {
				events = append(events, expandRecurring(ev, rruleStr, start, end, c.logger)...)
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func mapAccessError(err error) error {
	var httpErr *webdav.HTTPError
	if errors.As(err, &httpErr) &&
		(httpErr.Code == http.StatusUnauthorized || httpErr.Code == http.StatusForbidden) {
		return appcal.ErrPermissionDenied
	}
	return fmt.Errorf("find principal: %w", err)
}

// parseObject maps a CalDAV object onto the domain event shape, returning
// the raw RRULE (if any) for expansion by the caller.
func parseObject(obj *caldav.CalendarObject, zone *time.Location) (domain.Event, string, error) {
	if obj.Data == nil {
		return domain.Event{}, "", fmt.Errorf("no data in calendar object")
	}

	for _, comp := range obj.Data.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		ev, rruleStr := parseVEvent(comp, zone)
		return ev, rruleStr, nil
	}
	return domain.Event{}, "", fmt.Errorf("no VEVENT component")
}

func parseVEvent(comp *ical.Component, zone *time.Location) (domain.Event, string) {
	ev := domain.Event{Category: domain.CategoryOther}
	var rruleStr string

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		ev.ID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		ev.Description = prop.Value
	}
	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		ev.Location = prop.Value
	}
	for _, p := range comp.Props.Values(ical.PropAttendee) {
		ev.Attendees = append(ev.Attendees, strings.TrimPrefix(p.Value, "mailto:"))
	}

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		if t, err := prop.DateTime(zone); err == nil {
			ev.Start = t
		}
		if valueType := prop.Params.Get(ical.ParamValue); valueType == string(ical.ValueDate) {
			ev.AllDay = true
		}
	}
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		if t, err := prop.DateTime(zone); err == nil {
			ev.End = t
		}
	}
	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
		rruleStr = prop.Value
	}

	// DTEND on all-day events is exclusive (RFC 5545); pull it back into
	// the last covered day before snapping to day bounds.
	if ev.AllDay && !ev.End.IsZero() {
		ev.End = ev.End.Add(-time.Nanosecond)
	}
	ev.NormalizeAllDay(zone)

	return ev, rruleStr
}

// eventToICS builds the VCALENDAR payload for one event. Timed events are
// written in tz; all-day events as DATE values with an exclusive end.
func eventToICS(ev domain.Event, uid string, tz *time.Location) *ical.Calendar {
	if tz == nil {
		tz = time.Local
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetText(ical.PropSummary, ev.Title)

	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}
	for _, attendee := range ev.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + attendee
		vevent.Props.Add(prop)
	}

	if ev.AllDay {
		vevent.Props.SetDate(ical.PropDateTimeStart, ev.Start.In(tz))
		if !ev.End.IsZero() {
			vevent.Props.SetDate(ical.PropDateTimeEnd, domain.StartOfDay(ev.End.In(tz)).AddDate(0, 0, 1))
		}
	} else {
		vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.In(tz))
		if !ev.End.IsZero() {
			vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.In(tz))
		}
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}
