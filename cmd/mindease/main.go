package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/Doclaw-Tech-X4/MindEase/config"
	"github.com/Doclaw-Tech-X4/MindEase/internal/calendar"
	caldavclient "github.com/Doclaw-Tech-X4/MindEase/internal/clients/caldav"
	"github.com/Doclaw-Tech-X4/MindEase/internal/clients/geoip"
	googleclient "github.com/Doclaw-Tech-X4/MindEase/internal/clients/google"
	"github.com/Doclaw-Tech-X4/MindEase/internal/domain"
	"github.com/Doclaw-Tech-X4/MindEase/internal/scheduler"
	"github.com/Doclaw-Tech-X4/MindEase/internal/service"
	"github.com/Doclaw-Tech-X4/MindEase/internal/storage"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "mindease",
		Usage: "Personal wellness planner: calendar, tasks and routines.",
		Commands: []*cli.Command{
			eventsCommand(),
			addEventCommand(),
			suggestCommand(),
			conflictCommand(),
			locateCommand(),
			taskCommand(),
			remindCommand(),
			serveCommand(),
			authCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	adapter *calendar.Adapter
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	var store calendar.Store
	if cfg.UseGoogle() {
		gc, err := googleclient.NewClient(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenFile, cfg.Timezone, logger)
		if err != nil {
			return nil, fmt.Errorf("google calendar client: %w", err)
		}
		store = gc
	} else {
		store = caldavclient.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar, cfg.Timezone, logger)
	}

	location := geoip.NewClient(cfg.GeoIPURL, cfg.LocationConsent, logger)
	adapter := calendar.New(store, location, cfg.Timezone, logger)

	return &env{cfg: cfg, logger: logger, adapter: adapter}, nil
}

func (e *env) workingHours() calendar.WorkingHours {
	return calendar.WorkingHours{Start: e.cfg.WorkStartHour, End: e.cfg.WorkEndHour}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List calendar events in a window (default: next 7 days).",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Window start (YYYY-MM-DD)."},
			&cli.StringFlag{Name: "to", Usage: "Window end (YYYY-MM-DD)."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			now := e.adapter.CurrentLocalTime(nil)
			from := domain.StartOfDay(now)
			to := from.AddDate(0, 0, 7)
			if s := c.String("from"); s != "" {
				if from, err = parseDay(s, e.cfg.Timezone); err != nil {
					return err
				}
			}
			if s := c.String("to"); s != "" {
				if to, err = parseDay(s, e.cfg.Timezone); err != nil {
					return err
				}
				to = domain.EndOfDay(to)
			}

			events := e.adapter.ListEvents(c.Context, from, to)
			if len(events) == 0 {
				fmt.Println("No events")
				return nil
			}
			for _, ev := range events {
				fmt.Printf("%-30s %s [%s]\n", e.adapter.FormatLocalDateTime(ev.Start, nil), ev.Title, ev.Category)
			}
			return nil
		},
	}
}

func addEventCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-event",
		Usage: "Create a calendar event.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringFlag{Name: "start", Required: true, Usage: "YYYY-MM-DD HH:MM (or YYYY-MM-DD with --all-day)."},
			&cli.StringFlag{Name: "end", Usage: "YYYY-MM-DD HH:MM; defaults to one hour after start."},
			&cli.BoolFlag{Name: "all-day"},
			&cli.StringFlag{Name: "category", Value: "other", Usage: "work, personal, health or other."},
			&cli.StringFlag{Name: "location"},
			&cli.StringFlag{Name: "description"},
			&cli.StringSliceFlag{Name: "attendee"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			start, err := parseWhen(c.String("start"), e.cfg.Timezone)
			if err != nil {
				return err
			}
			end := start.Add(time.Hour)
			if s := c.String("end"); s != "" {
				if end, err = parseWhen(s, e.cfg.Timezone); err != nil {
					return err
				}
			}

			ev := domain.Event{
				Title:       c.String("title"),
				Description: c.String("description"),
				Start:       start,
				End:         end,
				Location:    c.String("location"),
				AllDay:      c.Bool("all-day"),
				Category:    domain.ParseCategory(c.String("category")),
				Attendees:   c.StringSlice("attendee"),
			}

			if e.adapter.CheckTimeConflict(c.Context, ev.Start, ev.End) {
				fmt.Println("Warning: this time overlaps an existing event.")
			}

			if !e.adapter.CreateEvent(c.Context, ev) {
				return fmt.Errorf("event was not created (calendar unavailable)")
			}
			fmt.Printf("Created %q at %s\n", ev.Title, e.adapter.FormatLocalDateTime(ev.Start, nil))
			return nil
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Suggest meeting slots in working hours over the next 7 days.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "duration", Value: 60, Usage: "Meeting length in minutes."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			loc := e.adapter.ResolveLocation(c.Context)
			slots := e.adapter.SuggestMeetingTimes(c.Int("duration"), loc, e.workingHours())
			for _, slot := range slots {
				marker := ""
				if e.adapter.CheckTimeConflict(c.Context, slot, slot.Add(time.Duration(c.Int("duration"))*time.Minute)) {
					marker = "  (conflict)"
				}
				fmt.Println(e.adapter.FormatLocalDateTime(slot, loc) + marker)
			}
			return nil
		},
	}
}

func conflictCommand() *cli.Command {
	return &cli.Command{
		Name:  "conflict",
		Usage: "Check whether a time range overlaps existing events.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Required: true, Usage: "YYYY-MM-DD HH:MM"},
			&cli.StringFlag{Name: "end", Required: true, Usage: "YYYY-MM-DD HH:MM"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			start, err := parseWhen(c.String("start"), e.cfg.Timezone)
			if err != nil {
				return err
			}
			end, err := parseWhen(c.String("end"), e.cfg.Timezone)
			if err != nil {
				return err
			}

			if e.adapter.CheckTimeConflict(c.Context, start, end) {
				fmt.Println("conflict")
			} else {
				fmt.Println("free")
			}
			return nil
		},
	}
}

func locateCommand() *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "Show the resolved location and local time.",
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			loc := e.adapter.ResolveLocation(c.Context)
			if loc == nil {
				fmt.Println("Location unavailable; using default timezone.")
			} else {
				place := loc.City
				if loc.Country != "" {
					if place != "" {
						place += ", "
					}
					place += loc.Country
				}
				fmt.Printf("%.4f,%.4f %s (%s)\n", loc.Latitude, loc.Longitude, place, loc.Timezone)
			}
			fmt.Println("Local time:", e.adapter.FormatLocalDateTime(e.adapter.CurrentLocalTime(loc), loc))
			return nil
		},
	}
}

func taskCommand() *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Manage tasks.",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "priority", Value: "someday", Usage: "urgent, week or someday."},
					&cli.StringFlag{Name: "category", Value: "other"},
					&cli.StringFlag{Name: "due", Usage: "YYYY-MM-DD"},
				},
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					var due *time.Time
					if s := c.String("due"); s != "" {
						d, err := parseDay(s, e.cfg.Timezone)
						if err != nil {
							return err
						}
						due = &d
					}

					tasks := service.NewTaskService(store, e.cfg.Timezone)
					task, err := tasks.Create(c.String("title"), c.String("description"),
						domain.Priority(c.String("priority")), domain.Category(c.String("category")), due)
					if err != nil {
						return err
					}
					fmt.Printf("Created task #%d\n", task.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Include completed tasks."},
					&cli.BoolFlag{Name: "today", Usage: "Only today's tasks."},
				},
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					tasks := service.NewTaskService(store, e.cfg.Timezone)
					var list []*domain.Task
					if c.Bool("today") {
						list, err = tasks.ListForToday()
					} else {
						list, err = tasks.List(c.Bool("all"))
					}
					if err != nil {
						return err
					}
					fmt.Print(tasks.FormatTaskList(list))
					return nil
				},
			},
			{
				Name:      "done",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					return service.NewTaskService(store, e.cfg.Timezone).MarkDone(id)
				},
			},
			{
				Name:      "rm",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					return service.NewTaskService(store, e.cfg.Timezone).Delete(id)
				},
			},
		},
	}
}

func remindCommand() *cli.Command {
	return &cli.Command{
		Name:  "remind",
		Usage: "Manage wellness routines.",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "kind", Value: "daily", Usage: "daily or weekly."},
					&cli.StringFlag{Name: "at", Value: "09:00", Usage: "Local time HH:MM."},
					&cli.IntFlag{Name: "weekday", Value: 1, Usage: "0=Sunday .. 6=Saturday (weekly only)."},
				},
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					reminders := service.NewReminderService(store, e.cfg.Timezone)
					r, err := reminders.Create(c.String("title"),
						domain.ReminderKind(c.String("kind")), c.String("at"), time.Weekday(c.Int("weekday")))
					if err != nil {
						return err
					}
					fmt.Printf("Created reminder #%d (next: %s)\n", r.ID, r.NextRun.In(e.cfg.Timezone).Format("Jan 02 15:04"))
					return nil
				},
			},
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					reminders := service.NewReminderService(store, e.cfg.Timezone)
					list, err := reminders.List()
					if err != nil {
						return err
					}
					fmt.Print(reminders.FormatReminderList(list))
					return nil
				},
			},
			{
				Name:      "rm",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					e, store, err := setupWithStore(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					return service.NewReminderService(store, e.cfg.Timezone).Delete(id)
				},
			},
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the reminder scheduler and periodic agenda refresh.",
		Action: func(c *cli.Context) error {
			e, store, err := setupWithStore(c.Context)
			if err != nil {
				return err
			}
			defer store.Close()

			reminders := service.NewReminderService(store, e.cfg.Timezone)
			sched := scheduler.New(e.cfg.Timezone, reminders, e.adapter, e.cfg.SyncInterval, e.logger)
			sched.SetNotifier(&logNotifier{logger: e.logger})

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			go func() {
				if err := sched.Start(ctx); err != nil {
					e.logger.Error("scheduler error", "error", err)
				}
			}()

			e.logger.Info("mindease started")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			e.logger.Info("shutting down")
			cancel()
			sched.Stop()
			return nil
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Google and save an API token.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UseGoogle() {
				return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
			}

			oauthCfg := &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
				Scopes:       []string{gcal.CalendarScope},
				Endpoint:     google.Endpoint,
			}

			authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

			fmt.Print("Enter authorization code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')

			token, err := oauthCfg.Exchange(c.Context, strings.TrimSpace(authCode))
			if err != nil {
				return fmt.Errorf("unable to retrieve token: %w", err)
			}

			if err := googleclient.SaveToken(cfg.GoogleTokenFile, token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Println("Token saved to", cfg.GoogleTokenFile)
			return nil
		},
	}
}

// logNotifier reports fired reminders through the structured log; a real
// notification transport can replace it.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Notify(title, body string) error {
	n.logger.Info("reminder", "title", title, "detail", body)
	return nil
}

func setupWithStore(ctx context.Context) (*env, *storage.Storage, error) {
	e, err := setup(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.New(e.cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return e, store, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

func parseWhen(s string, tz *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, tz); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD [HH:MM]", s)
}

func parseDay(s string, tz *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
