package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Doclaw-Tech-X4/MindEase/internal/calendar"
)

// DefaultURL is the default geolocation endpoint.
const DefaultURL = "http://ip-api.com"

// Client resolves the device's approximate position and place names over
// an ip-api style JSON endpoint. Access is gated on an explicit consent
// flag, standing in for the platform's foreground-location prompt.
type Client struct {
	baseURL    string
	consent    bool
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, consent bool, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		consent: consent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type lookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

// Position returns the device's coordinates, or ErrPermissionDenied when
// location consent was not given.
func (c *Client) Position(ctx context.Context) (calendar.Position, error) {
	if !c.consent {
		return calendar.Position{}, calendar.ErrPermissionDenied
	}

	resp, err := c.lookup(ctx, c.baseURL+"/json")
	if err != nil {
		return calendar.Position{}, err
	}
	return calendar.Position{Latitude: resp.Lat, Longitude: resp.Lon}, nil
}

// ReverseGeocode resolves a coordinate pair to a city/country pair. It is
// best-effort and independent of Position. The lat/lon parameters are
// honored by coordinate-aware endpoints configured via GEOIP_URL; the
// default ip-api endpoint ignores them and answers for the caller's IP,
// which matches the coordinates Position just returned anyway.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (calendar.Place, error) {
	url := fmt.Sprintf("%s/json?lat=%f&lon=%f", c.baseURL, lat, lon)
	resp, err := c.lookup(ctx, url)
	if err != nil {
		return calendar.Place{}, err
	}
	return calendar.Place{City: resp.City, Country: resp.Country}, nil
}

func (c *Client) lookup(ctx context.Context, url string) (*lookupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation request: unexpected status %d", res.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geolocation response: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return nil, fmt.Errorf("geolocation lookup failed: %s", body.Message)
	}
	return &body, nil
}
