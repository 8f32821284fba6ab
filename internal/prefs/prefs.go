// Package prefs persists user preferences between runs.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ThemeDark is the default page theme.
	ThemeDark = "dark"
	// ThemeLight is the alternative page theme.
	ThemeLight = "light"
)

// Prefs stores user preferences for the surrogate screen.
type Prefs struct {
	Theme           string `json:"theme"`
	LastServer      string `json:"lastServer,omitempty"`
	TrackingEnabled *bool  `json:"trackingEnabled,omitempty"`
}

// Default returns preferences used when nothing has been saved yet.
func Default() Prefs {
	return Normalize(Prefs{})
}

// Normalize returns prefs with a known theme and an explicit tracking flag.
func Normalize(p Prefs) Prefs {
	switch strings.ToLower(strings.TrimSpace(p.Theme)) {
	case ThemeLight:
		p.Theme = ThemeLight
	default:
		p.Theme = ThemeDark
	}
	p.LastServer = strings.TrimSpace(p.LastServer)
	if p.TrackingEnabled == nil {
		on := true
		p.TrackingEnabled = &on
	}
	return p
}

// Tracking reports the saved tracking flag, defaulting to enabled.
func (p Prefs) Tracking() bool {
	return p.TrackingEnabled == nil || *p.TrackingEnabled
}

// WithTracking returns a copy with the tracking flag set.
func (p Prefs) WithTracking(enabled bool) Prefs {
	p.TrackingEnabled = &enabled
	return p
}

// Load reads preferences from disk. Missing files return defaults.
func Load(path string) (Prefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), err
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), err
	}
	return Normalize(p), nil
}

// Save writes preferences to disk, creating parent directories as needed.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Normalize(p), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
