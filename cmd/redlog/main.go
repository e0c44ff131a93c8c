package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/christopherklint97/redlog/internal/config"
	"github.com/christopherklint97/redlog/internal/delivery"
	"github.com/christopherklint97/redlog/internal/redmine"
	"github.com/christopherklint97/redlog/internal/store"
	"github.com/christopherklint97/redlog/internal/tui"
	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"
)

var rootCmd = &cobra.Command{
	Use:   "redlog",
	Short: "Log Redmine time entries, even when Redmine is offline",
	Long: `redlog posts time entries to Redmine. Entries that cannot reach the server
are kept in a local queue and sent in order once Redmine is reachable again.`,
	SilenceUsage: true,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(activitiesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything a command needs, wired from the config file.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *store.DB
	settings *store.SettingsStore
	client   *redmine.Client
	engine   *delivery.Engine
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg)

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	settings := store.NewSettingsStore(db, store.Settings{
		RedmineURL: cfg.Redmine.URL,
		APIKey:     cfg.Redmine.APIKey,
	})
	client := redmine.NewClient(cfg.Timeout(), 1*time.Hour, logger)
	engine := delivery.New(settings, delivery.NewStoredQueue(db), client,
		delivery.WithLogger(logger),
		delivery.WithJournal(db),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		settings: settings,
		client:   client,
		engine:   engine,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// target returns the current settings, failing when nothing is configured.
func (a *app) target() (redmine.Target, error) {
	s, err := a.settings.Get()
	if err != nil {
		return redmine.Target{}, err
	}
	if s.RedmineURL == "" || s.APIKey == "" {
		return redmine.Target{}, fmt.Errorf("redmine URL or API key not configured — run 'redlog settings set --url ... --api-key ...'")
	}
	return redmine.Target{URL: s.RedmineURL, APIKey: s.APIKey}, nil
}

// printStatus echoes every status change of the engine until the returned
// func is called.
func (a *app) printStatus() func() {
	first := true
	return a.engine.Status().Subscribe(func(s delivery.Status) {
		if first {
			first = false
			return
		}
		fmt.Println(tui.RenderStatus(s))
	})
}

// parseDate accepts YYYY-MM-DD or natural language ("yesterday",
// "last friday"), always resolving into the past.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		return now, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
