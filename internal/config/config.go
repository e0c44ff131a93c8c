package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Redmine       RedmineConfig `toml:"redmine"`
	Storage       StorageConfig `toml:"storage"`
	Watch         WatchConfig   `toml:"watch"`
	Notifications NotifyConfig  `toml:"notifications"`
	Log           LogConfig     `toml:"log"`
}

// RedmineConfig values are fallbacks: settings saved with
// `redlog settings set` take precedence.
type RedmineConfig struct {
	URL               string `toml:"url"`
	APIKey            string `toml:"api_key"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	DefaultActivityID int    `toml:"default_activity_id"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type WatchConfig struct {
	ProbeIntervalSeconds int `toml:"probe_interval_seconds"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

func DefaultConfig() Config {
	return Config{
		Redmine: RedmineConfig{
			TimeoutSeconds: 30,
		},
		Watch: WatchConfig{
			ProbeIntervalSeconds: 30,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "redlog"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDMINE_URL"); v != "" {
		cfg.Redmine.URL = v
	}
	if v := os.Getenv("REDMINE_API_KEY"); v != "" {
		cfg.Redmine.APIKey = v
	}
	if v := os.Getenv("REDLOG_DB"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("REDLOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (c *Config) Timeout() time.Duration {
	if c.Redmine.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Redmine.TimeoutSeconds) * time.Second
}

func (c *Config) ProbeInterval() time.Duration {
	if c.Watch.ProbeIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Watch.ProbeIntervalSeconds) * time.Second
}

// LogLevel maps the configured level name; unknown names mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default config to path.
func WriteDefault(path string) error {
	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, out, 0600)
}
