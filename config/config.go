package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Timezone     *time.Location
	DatabasePath string

	// CalDAV store (default backend)
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string // display name of the calendar treated as primary

	// Google Calendar store (used instead of CalDAV when set)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenFile    string

	// Location provider
	GeoIPURL        string
	LocationConsent bool

	WorkStartHour int
	WorkEndHour   int
	SyncInterval  time.Duration
	LogLevel      string
}

// UseGoogle reports whether the Google Calendar backend is configured.
func (c *Config) UseGoogle() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func Load() (*Config, error) {
	tz := time.Local
	if tzName := os.Getenv("TIMEZONE"); tzName != "" {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		tz = loc
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/mindease.db"
	}

	workStart, err := envHour("WORK_START_HOUR", 9)
	if err != nil {
		return nil, err
	}
	workEnd, err := envHour("WORK_END_HOUR", 17)
	if err != nil {
		return nil, err
	}
	if workStart >= workEnd {
		return nil, fmt.Errorf("WORK_START_HOUR must be before WORK_END_HOUR")
	}

	syncMinutes := 30
	if v := os.Getenv("SYNC_INTERVAL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("SYNC_INTERVAL_MINUTES must be a non-negative number")
		}
		syncMinutes = n
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	tokenFile := os.Getenv("GOOGLE_TOKEN_FILE")
	if tokenFile == "" {
		tokenFile = "token.json"
	}

	return &Config{
		Timezone:           tz,
		DatabasePath:       dbPath,
		CalDAVURL:          os.Getenv("CALDAV_URL"),
		CalDAVUsername:     os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:     os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendar:     os.Getenv("CALDAV_CALENDAR"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleTokenFile:    tokenFile,
		GeoIPURL:           os.Getenv("GEOIP_URL"),
		LocationConsent:    os.Getenv("LOCATION_CONSENT") == "true",
		WorkStartHour:      workStart,
		WorkEndHour:        workEnd,
		SyncInterval:       time.Duration(syncMinutes) * time.Minute,
		LogLevel:           logLevel,
	}, nil
}

func envHour(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 23 {
		return 0, fmt.Errorf("%s must be an hour between 0 and 23", key)
	}
	return n, nil
}
