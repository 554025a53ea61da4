// Package config manages letterwatch settings persisted as JSON on disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WatchedScope selects how the aggregation counts watched films.
type WatchedScope string

const (
	// WatchedScopeGlobal counts a film as watched by any analyzed user who
	// has seen it, watchlisted or not.
	WatchedScopeGlobal WatchedScope = "global"
	// WatchedScopeWatchlist counts a film as watched only by users who also
	// have it in their watchlist.
	WatchedScopeWatchlist WatchedScope = "watchlist"
)

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	Port int `json:"port"`
}

// LetterboxdSettings holds scraping configuration for the external site.
type LetterboxdSettings struct {
	BaseURL            string `json:"baseUrl"`
	UserAgent          string `json:"userAgent"`
	RequestDelayMs     int    `json:"requestDelayMs"`
	ProfileTimeoutSecs int    `json:"profileTimeoutSecs"`
	ListTimeoutSecs    int    `json:"listTimeoutSecs"`
}

// CacheSettings holds persistence and freshness configuration.
type CacheSettings struct {
	DatabasePath  string `json:"databasePath"`
	UserTTLHours  int    `json:"userTtlHours"`
	PosterTTLDays int    `json:"posterTtlDays"`
}

// AnalyzeSettings holds aggregation policy configuration.
type AnalyzeSettings struct {
	WatchedScope WatchedScope `json:"watchedScope"`
}

// LogSettings holds log file rotation configuration.
type LogSettings struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
}

// Settings is the full letterwatch configuration.
type Settings struct {
	Server     ServerSettings     `json:"server"`
	Letterboxd LetterboxdSettings `json:"letterboxd"`
	Cache      CacheSettings      `json:"cache"`
	Analyze    AnalyzeSettings    `json:"analyze"`
	Log        LogSettings        `json:"log"`
}

// DefaultSettings returns the settings used when no settings file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Port: 3000,
		},
		Letterboxd: LetterboxdSettings{
			BaseURL:            "https://letterboxd.com",
			UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			RequestDelayMs:     1000,
			ProfileTimeoutSecs: 10,
			ListTimeoutSecs:    15,
		},
		Cache: CacheSettings{
			DatabasePath:  "data/letterwatch.db",
			UserTTLHours:  24,
			PosterTTLDays: 30,
		},
		Analyze: AnalyzeSettings{
			WatchedScope: WatchedScopeGlobal,
		},
		Log: LogSettings{
			Path:       "data/letterwatch.log",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Manager loads and saves settings, guarding concurrent access from handlers.
type Manager struct {
	path string

	mu     sync.RWMutex
	cached *Settings
}

// NewManager creates a settings manager for the given file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load returns the current settings, reading the file on first use and
// falling back to defaults when the file does not exist.
func (m *Manager) Load() (Settings, error) {
	m.mu.RLock()
	if m.cached != nil {
		settings := *m.cached
		m.mu.RUnlock()
		return settings, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return *m.cached, nil
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			settings := DefaultSettings()
			m.cached = &settings
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	m.cached = &settings
	return settings, nil
}

// Save writes settings to disk and updates the in-memory copy.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(m.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(m.path, raw, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	m.cached = &settings
	return nil
}
