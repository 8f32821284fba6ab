// Package config loads configuration for the MultiComputer client.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr       = "127.0.0.1:8788"
	defaultDataDir          = "./data"
	defaultRemotePort       = 5000
	defaultEdgeMargin       = 40
	defaultMoveThrottleMs   = 16
	defaultScrollThrottleMs = 8
	defaultConnectTimeoutMs = 5000
	defaultDragMode         = "summary"
	defaultPrimaryModifier  = "auto"
	defaultScreenWidth      = 1920
	defaultScreenHeight     = 1080
)

// Config holds runtime configuration values.
type Config struct {
	ListenAddr       string
	DataDir          string
	PrefsPath        string
	ServerAddr       string
	RemotePort       int
	EdgeMargin       int
	MoveThrottleMs   int
	ScrollThrottleMs int
	ConnectTimeoutMs int
	DragMode         string
	PrimaryModifier  string
	ScreenWidth      int
	ScreenHeight     int
	Debug            bool
}

// fileConfig mirrors config.yaml. Zero values leave defaults untouched.
type fileConfig struct {
	ListenAddr       string `yaml:"listen_addr"`
	PrefsPath        string `yaml:"prefs_path"`
	ServerAddr       string `yaml:"server_addr"`
	RemotePort       int    `yaml:"remote_port"`
	EdgeMargin       *int   `yaml:"edge_margin"`
	MoveThrottleMs   *int   `yaml:"move_throttle_ms"`
	ScrollThrottleMs *int   `yaml:"scroll_throttle_ms"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
	DragMode         string `yaml:"drag_mode"`
	PrimaryModifier  string `yaml:"primary_modifier"`
	Debug            bool   `yaml:"debug"`
	Screen           struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"screen"`
}

// Load reads configuration from defaults, <DATA_DIR>/config.yaml, <DATA_DIR>/.env and the environment.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:       defaultListenAddr,
		DataDir:          envString("DATA_DIR", defaultDataDir),
		RemotePort:       defaultRemotePort,
		EdgeMargin:       defaultEdgeMargin,
		MoveThrottleMs:   defaultMoveThrottleMs,
		ScrollThrottleMs: defaultScrollThrottleMs,
		ConnectTimeoutMs: defaultConnectTimeoutMs,
		DragMode:         defaultDragMode,
		PrimaryModifier:  defaultPrimaryModifier,
		ScreenWidth:      defaultScreenWidth,
		ScreenHeight:     defaultScreenHeight,
	}
	cfg.PrefsPath = filepath.Join(cfg.DataDir, "prefs.json")

	if err := loadYAMLFile(filepath.Join(cfg.DataDir, "config.yaml"), &cfg); err != nil {
		return Config{}, err
	}
	if err := loadEnvFile(filepath.Join(cfg.DataDir, ".env")); err != nil {
		return Config{}, err
	}

	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.PrefsPath = envString("PREFS_PATH", cfg.PrefsPath)
	cfg.ServerAddr = envString("SERVER_ADDR", cfg.ServerAddr)
	cfg.DragMode = strings.ToLower(envString("DRAG_MODE", cfg.DragMode))
	cfg.PrimaryModifier = strings.ToLower(envString("PRIMARY_MODIFIER", cfg.PrimaryModifier))
	cfg.Debug = envBool("DEBUG", cfg.Debug)

	ints := []struct {
		key string
		dst *int
	}{
		{"REMOTE_PORT", &cfg.RemotePort},
		{"EDGE_MARGIN", &cfg.EdgeMargin},
		{"MOVE_THROTTLE_MS", &cfg.MoveThrottleMs},
		{"SCROLL_THROTTLE_MS", &cfg.ScrollThrottleMs},
		{"CONNECT_TIMEOUT_MS", &cfg.ConnectTimeoutMs},
		{"SCREEN_WIDTH", &cfg.ScreenWidth},
		{"SCREEN_HEIGHT", &cfg.ScreenHeight},
	}
	for _, f := range ints {
		v, err := envInt(f.key, *f.dst)
		if err != nil {
			return Config{}, err
		}
		*f.dst = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks ranges and enumerations.
func (c Config) validate() error {
	if c.RemotePort <= 0 || c.RemotePort > 65535 {
		return fmt.Errorf("REMOTE_PORT must be 1-65535")
	}
	if c.EdgeMargin < 0 {
		return fmt.Errorf("EDGE_MARGIN must be >= 0")
	}
	if c.MoveThrottleMs < 0 {
		return fmt.Errorf("MOVE_THROTTLE_MS must be >= 0")
	}
	if c.ScrollThrottleMs < 0 {
		return fmt.Errorf("SCROLL_THROTTLE_MS must be >= 0")
	}
	if c.ConnectTimeoutMs <= 0 {
		return fmt.Errorf("CONNECT_TIMEOUT_MS must be > 0")
	}
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("SCREEN_WIDTH and SCREEN_HEIGHT must be > 0")
	}
	switch c.DragMode {
	case "summary", "realtime":
	default:
		return fmt.Errorf("DRAG_MODE must be summary or realtime")
	}
	switch c.PrimaryModifier {
	case "auto", "ctrl", "meta":
	default:
		return fmt.Errorf("PRIMARY_MODIFIER must be auto, ctrl or meta")
	}
	return nil
}

// MoveThrottle returns the move gate interval.
func (c Config) MoveThrottle() time.Duration {
	return time.Duration(c.MoveThrottleMs) * time.Millisecond
}

// ScrollThrottle returns the scroll gate interval.
func (c Config) ScrollThrottle() time.Duration {
	return time.Duration(c.ScrollThrottleMs) * time.Millisecond
}

// ConnectTimeout returns the connect ping deadline.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// loadYAMLFile applies an optional config.yaml on top of cfg.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.PrefsPath != "" {
		cfg.PrefsPath = fc.PrefsPath
	}
	if fc.ServerAddr != "" {
		cfg.ServerAddr = fc.ServerAddr
	}
	if fc.RemotePort != 0 {
		cfg.RemotePort = fc.RemotePort
	}
	if fc.EdgeMargin != nil {
		cfg.EdgeMargin = *fc.EdgeMargin
	}
	if fc.MoveThrottleMs != nil {
		cfg.MoveThrottleMs = *fc.MoveThrottleMs
	}
	if fc.ScrollThrottleMs != nil {
		cfg.ScrollThrottleMs = *fc.ScrollThrottleMs
	}
	if fc.ConnectTimeoutMs != 0 {
		cfg.ConnectTimeoutMs = fc.ConnectTimeoutMs
	}
	if fc.DragMode != "" {
		cfg.DragMode = strings.ToLower(fc.DragMode)
	}
	if fc.PrimaryModifier != "" {
		cfg.PrimaryModifier = strings.ToLower(fc.PrimaryModifier)
	}
	if fc.Debug {
		cfg.Debug = true
	}
	if fc.Screen.Width != 0 {
		cfg.ScreenWidth = fc.Screen.Width
	}
	if fc.Screen.Height != 0 {
		cfg.ScreenHeight = fc.Screen.Height
	}
	return nil
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file without overriding the real environment.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}
	value = strings.Trim(value, `"'`)
	return key, value, true
}
