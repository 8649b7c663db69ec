package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TIMEZONE", "DATABASE_PATH",
		"CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD", "CALDAV_CALENDAR",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_TOKEN_FILE",
		"GEOIP_URL", "LOCATION_CONSENT",
		"WORK_START_HOUR", "WORK_END_HOUR", "SYNC_INTERVAL_MINUTES", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Local, cfg.Timezone)
	assert.Equal(t, "./data/mindease.db", cfg.DatabasePath)
	assert.Equal(t, 9, cfg.WorkStartHour)
	assert.Equal(t, 17, cfg.WorkEndHour)
	assert.Equal(t, 30*time.Minute, cfg.SyncInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "token.json", cfg.GoogleTokenFile)
	assert.False(t, cfg.LocationConsent)
	assert.False(t, cfg.UseGoogle())
}

func TestLoadTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone.String())
}

func TestLoadInvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadWorkingHours(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORK_START_HOUR", "8")
	t.Setenv("WORK_END_HOUR", "16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkStartHour)
	assert.Equal(t, 16, cfg.WorkEndHour)
}

func TestLoadInvalidWorkingHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"start after end", "18", "9"},
		{"start equals end", "9", "9"},
		{"out of range", "25", "17"},
		{"not a number", "nine", "17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("WORK_START_HOUR", tt.start)
			t.Setenv("WORK_END_HOUR", tt.end)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSyncInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYNC_INTERVAL_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)

	t.Setenv("SYNC_INTERVAL_MINUTES", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadConsent(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOCATION_CONSENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.LocationConsent)
}

func TestUseGoogle(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UseGoogle())
}
