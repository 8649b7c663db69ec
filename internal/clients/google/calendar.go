package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	appcal "github.com/Doclaw-Tech-X4/MindEase/internal/calendar"
	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
)

// Client is a Google Calendar implementation of the calendar store
// capability, used when Google credentials are configured.
type Client struct {
	service *gcal.Service
	zone    *time.Location
	logger  *slog.Logger
}

// NewClient builds an authenticated Google Calendar client from a client
// ID/secret pair and a previously saved OAuth token file.
func NewClient(ctx context.Context, clientID, clientSecret, tokenFile string, zone *time.Location, logger *slog.Logger) (*Client, error) {
	if zone == nil {
		zone = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     google.Endpoint,
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w", tokenFile, err)
	}

	service, err := gcal.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &Client{service: service, zone: zone, logger: logger}, nil
}

// RequestAccess probes the API with a minimal calendar listing. A 401/403
// surfaces as ErrPermissionDenied.
func (c *Client) RequestAccess(ctx context.Context) error {
	_, err := c.service.CalendarList.List().MaxResults(1).Context(ctx).Do()
	if err != nil {
		return mapAccessError(err)
	}
	return nil
}

// Calendars lists the account's calendars; Google marks the primary one
// directly.
func (c *Client) Calendars(ctx context.Context) ([]appcal.CalendarInfo, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, mapAccessError(err)
	}

	var result []appcal.CalendarInfo
	for _, item := range list.Items {
		result = append(result, appcal.CalendarInfo{
			ID:      item.Id,
			Name:    item.Summary,
			Primary: item.Primary,
		})
	}
	return result, nil
}

// Create inserts a new event and returns its Google event ID.
func (c *Client) Create(ctx context.Context, calendarID string, ev domain.Event, tz *time.Location) (string, error) {
	if tz == nil {
		tz = time.Local
	}

	gev := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
	}
	for _, attendee := range ev.Attendees {
		gev.Attendees = append(gev.Attendees, &gcal.EventAttendee{Email: attendee})
	}

	if ev.AllDay {
		gev.Start = &gcal.EventDateTime{Date: ev.Start.In(tz).Format("2006-01-02")}
		gev.End = &gcal.EventDateTime{Date: domain.StartOfDay(ev.End.In(tz)).AddDate(0, 0, 1).Format("2006-01-02")}
	} else {
		gev.Start = &gcal.EventDateTime{
			DateTime: ev.Start.In(tz).Format(time.RFC3339),
			TimeZone: tz.String(),
		}
		gev.End = &gcal.EventDateTime{
			DateTime: ev.End.In(tz).Format(time.RFC3339),
			TimeZone: tz.String(),
		}
	}

	created, err := c.service.Events.Insert(calendarID, gev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// Events fetches events intersecting [start, end], recurring instances
// already expanded by the API (SingleEvents).
func (c *Client) Events(ctx context.Context, calendarIDs []string, start, end time.Time) ([]domain.Event, error) {
	var all []domain.Event
	for _, calID := range calendarIDs {
		list, err := c.service.Events.List(calID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("list events for %s: %w", calID, err)
		}
		all = append(all, c.toDomainEvents(list.Items)...)
	}
	return all, nil
}

func (c *Client) toDomainEvents(items []*gcal.Event) []domain.Event {
	var events []domain.Event
	for _, item := range items {
		if item.Start == nil || item.End == nil {
			continue
		}

		ev := domain.Event{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Category:    domain.CategoryOther,
		}
		for _, a := range item.Attendees {
			ev.Attendees = append(ev.Attendees, a.Email)
		}

		if item.Start.Date != "" {
			// All-day events arrive as bare dates.
			start, err := time.ParseInLocation("2006-01-02", item.Start.Date, c.zone)
			if err != nil {
				c.logger.Debug("skipping event with bad date", "id", item.Id, "error", err)
				continue
			}
			ev.AllDay = true
			ev.Start = start
			ev.End = start
			// End dates are exclusive; the last covered day is the one before.
			if end, err := time.ParseInLocation("2006-01-02", item.End.Date, c.zone); err == nil {
				ev.End = end.AddDate(0, 0, -1)
			}
			ev.NormalizeAllDay(c.zone)
		} else {
			start, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
			end, err2 := time.Parse(time.RFC3339, item.End.DateTime)
			if err1 != nil || err2 != nil {
				c.logger.Debug("skipping event with bad datetime", "id", item.Id)
				continue
			}
			ev.Start = start
			ev.End = end
		}

		events = append(events, ev)
	}
	return events
}

func mapAccessError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) &&
		(gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return appcal.ErrPermissionDenied
	}
	return fmt.Errorf("calendar API: %w", err)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// SaveToken writes an OAuth token to a file, for use by an out-of-band
// auth flow.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
