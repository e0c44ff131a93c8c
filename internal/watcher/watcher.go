// Package watcher drains the offline queue when Redmine becomes reachable
// again.
package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/christopherklint97/redlog/internal/config"
	"github.com/christopherklint97/redlog/internal/delivery"
)

type Drainer interface {
	Drain(ctx context.Context)
}

// ProbeFunc reports whether the Redmine at baseURL can be reached.
type ProbeFunc func(ctx context.Context, baseURL string) error

type Option func(*Watcher)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithProbe(p ProbeFunc) Option {
	return func(w *Watcher) { w.probe = p }
}

func WithPIDFile(path string) Option {
	return func(w *Watcher) { w.pidFile = path }
}

// Watcher probes the configured Redmine host and calls Drain on every
// offline to online transition. It never retries queued entries on its
// own schedule: a probe only sends a TCP handshake.
type Watcher struct {
	settings delivery.SettingsSource
	engine   Drainer
	interval time.Duration
	probe    ProbeFunc
	pidFile  string
	logger   *slog.Logger

	online atomic.Bool
}

func New(settings delivery.SettingsSource, engine Drainer, interval time.Duration, opts ...Option) *Watcher {
	w := &Watcher{
		settings: settings,
		engine:   engine,
		interval: interval,
		probe:    DialProbe(5 * time.Second),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if path, err := pidPath(); err == nil {
		w.pidFile = path
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.interval <= 0 {
		w.interval = 30 * time.Second
	}
	return w
}

func (w *Watcher) Online() bool { return w.online.Load() }

func (w *Watcher) Run(ctx context.Context) error {
	if err := w.writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer w.removePID()

	// Whatever is left from earlier runs goes first.
	w.engine.Drain(ctx)

	w.logger.Info("watcher started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check probes once and drains if Redmine just came back.
func (w *Watcher) Check(ctx context.Context) {
	s, err := w.settings.Get()
	if err != nil {
		w.logger.Warn("reading settings", "error", err)
		return
	}
	if s.RedmineURL == "" {
		return
	}

	err = w.probe(ctx, s.RedmineURL)
	online := err == nil
	was := w.online.Swap(online)

	switch {
	case online && !was:
		w.logger.Info("redmine reachable, draining queue", "url", s.RedmineURL)
		w.engine.Drain(ctx)
	case !online && was:
		w.logger.Warn("redmine unreachable", "url", s.RedmineURL, "error", err)
	}
}

// DialProbe opens and closes a TCP connection to the host of baseURL.
func DialProbe(timeout time.Duration) ProbeFunc {
	return func(ctx context.Context, baseURL string) error {
		addr, err := hostPort(baseURL)
		if err != nil {
			return err
		}
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

func hostPort(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing redmine URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("redmine URL %q has no host", baseURL)
	}
	port := u.Port()
	if port == "" {
		if strings.EqualFold(u.Scheme, "http") {
			port = "80"
		} else {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

func pidPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "redlog.pid"), nil
}

func (w *Watcher) writePID() error {
	if w.pidFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.pidFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(w.pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func (w *Watcher) removePID() {
	if w.pidFile != "" {
		os.Remove(w.pidFile)
	}
}

func ReadPID() (int, error) {
	path, err := pidPath()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("no running watcher found")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file")
	}

	return pid, nil
}
