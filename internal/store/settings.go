package store

import (
	"fmt"
	"strings"
)

const settingsKey = "redmine_settings"

// Settings identify the Redmine instance new entries are sent to.
type Settings struct {
	RedmineURL string `json:"redmineUrl"`
	APIKey     string `json:"apiKey"`
}

// SettingsStore persists Settings in a KV. Fields left empty in the store
// fall back to the values given at construction (config file, env).
type SettingsStore struct {
	kv       KV
	fallback Settings
}

func NewSettingsStore(kv KV, fallback Settings) *SettingsStore {
	return &SettingsStore{kv: kv, fallback: fallback}
}

func (s *SettingsStore) Get() (Settings, error) {
	var stored Settings
	if _, err := s.kv.Load(settingsKey, &stored); err != nil {
		return s.fallback, fmt.Errorf("loading settings: %w", err)
	}
	if stored.RedmineURL == "" {
		stored.RedmineURL = s.fallback.RedmineURL
	}
	if stored.APIKey == "" {
		stored.APIKey = s.fallback.APIKey
	}
	return stored, nil
}

// Stored returns only what has been saved, without fallbacks.
func (s *SettingsStore) Stored() (Settings, error) {
	var stored Settings
	if _, err := s.kv.Load(settingsKey, &stored); err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return stored, nil
}

func (s *SettingsStore) Set(settings Settings) error {
	settings.RedmineURL = strings.TrimRight(strings.TrimSpace(settings.RedmineURL), "/")
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	if err := s.kv.Save(settingsKey, settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
