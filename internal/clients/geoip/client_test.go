package geoip

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doclaw-Tech-X4/MindEase/internal/calendar"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPositionWithoutConsent(t *testing.T) {
	c := NewClient("http://unused", false, discardLogger())

	_, err := c.Position(context.Background())
	assert.ErrorIs(t, err, calendar.ErrPermissionDenied)
}

func TestPosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		w.Write([]byte(`{"status":"success","lat":40.7128,"lon":-74.006,"city":"New York","country":"United States"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true, discardLogger())

	pos, err := c.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.7128, pos.Latitude)
	assert.Equal(t, -74.006, pos.Longitude)
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "40.712800", r.URL.Query().Get("lat"))
		assert.Equal(t, "-74.006000", r.URL.Query().Get("lon"))
		w.Write([]byte(`{"status":"success","city":"New York","country":"United States"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true, discardLogger())

	place, err := c.ReverseGeocode(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)
	assert.Equal(t, "New York", place.City)
	assert.Equal(t, "United States", place.Country)
}

func TestLookupFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true, discardLogger())

	_, err := c.Position(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private range")
}

func TestLookupHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, true, discardLogger())

	_, err := c.Position(context.Background())
	assert.Error(t, err)
}
