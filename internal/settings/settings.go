// Package settings is the external settings collaborator: a small JSON file
// beside the application. The vault core consumes only auto_lock_timeout and
// first_run; the remaining keys belong to whatever front end is layered on
// top.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	DefaultLanguage        = "ar"
	DefaultTheme           = "light"
	DefaultFontFamily      = "Tahoma"
	DefaultFontSize        = 10
	DefaultAutoLockTimeout = 0 // minutes, 0 = disabled
)

type Settings struct {
	Language        string `json:"language"`
	Theme           string `json:"theme"`
	FontFamily      string `json:"font_family"`
	FontSize        int    `json:"font_size"`
	FirstRun        bool   `json:"first_run"`
	AutoLockTimeout int    `json:"auto_lock_timeout"` // minutes
}

// Store binds a settings file to the vault path whose existence drives the
// first_run default.
type Store struct {
	path      string
	vaultPath string
	Settings  Settings
}

// Load reads the settings file, filling in and persisting defaults when the
// file is missing or unreadable. first_run defaults to "no vault file
// exists yet" rather than trusting a stale flag.
func Load(path, vaultPath string) (*Store, error) {
	s := &Store{path: path, vaultPath: vaultPath}
	s.Settings = s.defaults()

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &s.Settings); err != nil {
		// Corrupt file: fall back to clean defaults and rewrite.
		s.Settings = s.defaults()
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	s.sanitize()
	return s, nil
}

func (s *Store) defaults() Settings {
	return Settings{
		Language:        DefaultLanguage,
		Theme:           DefaultTheme,
		FontFamily:      DefaultFontFamily,
		FontSize:        DefaultFontSize,
		FirstRun:        !fileExists(s.vaultPath),
		AutoLockTimeout: DefaultAutoLockTimeout,
	}
}

func (s *Store) sanitize() {
	if s.Settings.Theme != "light" && s.Settings.Theme != "dark" {
		s.Settings.Theme = DefaultTheme
	}
	if s.Settings.Language == "" {
		s.Settings.Language = DefaultLanguage
	}
	if s.Settings.FontFamily == "" {
		s.Settings.FontFamily = DefaultFontFamily
	}
	if s.Settings.FontSize <= 0 {
		s.Settings.FontSize = DefaultFontSize
	}
	if s.Settings.AutoLockTimeout < 0 {
		s.Settings.AutoLockTimeout = DefaultAutoLockTimeout
	}
}

func (s *Store) Save() error {
	b, err := json.MarshalIndent(s.Settings, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

// AutoLock converts the minute-granularity setting to a duration; zero
// means the watchdog stays disabled.
func (s *Store) AutoLock() time.Duration {
	return time.Duration(s.Settings.AutoLockTimeout) * time.Minute
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
