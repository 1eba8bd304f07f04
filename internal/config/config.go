package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the lamp needs to run: its station identity, the
// backend to stream from, the supervisor's timing constants and the log
// sink. Durations are TOML strings in time.ParseDuration syntax.
type Config struct {
	// Station identity.
	StationName string // announced in the connection query, at most 31 bytes
	Interface   string // network interface to watch; empty picks one
	SSID        string
	Password    string

	// Backend.
	BackendURL       string
	ClientID         string // empty derives one from the MAC at startup
	MaxChannels      int
	HeartbeatTimeout time.Duration

	// Supervisor timing.
	LinkTimeout     time.Duration
	Reconnect       time.Duration
	ReconnectSlow   time.Duration
	StableThreshold time.Duration

	// Degraded/monitor cadences.
	ScanInterval    time.Duration
	MonitorInterval time.Duration

	// Logging.
	LogFile   string
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
}

const (
	defaultConfigPath = "~/.config/laempli/config.toml"
	defaultLogFile    = "~/.local/share/laempli/laempli.log"

	// MaxStationNameLen matches the device's fixed name field.
	MaxStationNameLen = 31

	defaultMaxChannels      = 20
	defaultHeartbeatTimeout = 65 * time.Second
	defaultLinkTimeout      = 30 * time.Second
	defaultReconnect        = 5 * time.Second
	defaultReconnectSlow    = 60 * time.Second
	defaultStableThreshold  = 5 * time.Minute
	defaultScanInterval     = 5 * time.Second
	defaultMonitorInterval  = 60 * time.Second
)

// rawConfig is the file layout. Everything is optional; absent sections
// leave the defaults in place.
type rawConfig struct {
	Station struct {
		Name      string `toml:"name"`
		Interface string `toml:"interface"`
		SSID      string `toml:"ssid"`
		Password  string `toml:"password"`
	} `toml:"station"`
	Backend struct {
		URL              string `toml:"url"`
		ClientID         string `toml:"client_id"`
		MaxChannels      int    `toml:"max_channels"`
		HeartbeatTimeout string `toml:"heartbeat_timeout"`
	} `toml:"backend"`
	Timing struct {
		LinkTimeout     string `toml:"link_timeout"`
		Reconnect       string `toml:"reconnect"`
		ReconnectSlow   string `toml:"reconnect_slow"`
		StableThreshold string `toml:"stable_threshold"`
		ScanInterval    string `toml:"scan_interval"`
		MonitorInterval string `toml:"monitor_interval"`
	} `toml:"timing"`
	Log struct {
		File   string `toml:"file"`
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load locates and parses the lamp config, falling back to defaults when
// the file is missing. An unreadable or unparsable file is an error; an
// absent one is not, it just leaves the lamp unconfigured.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.apply(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	name, _ := os.Hostname()
	return Config{
		StationName:      clampName(name),
		MaxChannels:      defaultMaxChannels,
		HeartbeatTimeout: defaultHeartbeatTimeout,
		LinkTimeout:      defaultLinkTimeout,
		Reconnect:        defaultReconnect,
		ReconnectSlow:    defaultReconnectSlow,
		StableThreshold:  defaultStableThreshold,
		ScanInterval:     defaultScanInterval,
		MonitorInterval:  defaultMonitorInterval,
		LogFile:          mustExpand(defaultLogFile),
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

func (c *Config) apply(raw rawConfig) error {
	if v := strings.TrimSpace(raw.Station.Name); v != "" {
		c.StationName = clampName(v)
	}
	c.Interface = strings.TrimSpace(raw.Station.Interface)
	c.SSID = strings.TrimSpace(raw.Station.SSID)
	c.Password = raw.Station.Password

	c.BackendURL = strings.TrimSpace(raw.Backend.URL)
	c.ClientID = strings.TrimSpace(raw.Backend.ClientID)
	if raw.Backend.MaxChannels > 0 {
		c.MaxChannels = raw.Backend.MaxChannels
	}
	if c.MaxChannels > defaultMaxChannels {
		c.MaxChannels = defaultMaxChannels
	}

	durations := []struct {
		name string
		in   string
		out  *time.Duration
	}{
		{"backend.heartbeat_timeout", raw.Backend.HeartbeatTimeout, &c.HeartbeatTimeout},
		{"timing.link_timeout", raw.Timing.LinkTimeout, &c.LinkTimeout},
		{"timing.reconnect", raw.Timing.Reconnect, &c.Reconnect},
		{"timing.reconnect_slow", raw.Timing.ReconnectSlow, &c.ReconnectSlow},
		{"timing.stable_threshold", raw.Timing.StableThreshold, &c.StableThreshold},
		{"timing.scan_interval", raw.Timing.ScanInterval, &c.ScanInterval},
		{"timing.monitor_interval", raw.Timing.MonitorInterval, &c.MonitorInterval},
	}
	for _, d := range durations {
		in := strings.TrimSpace(d.in)
		if in == "" {
			continue
		}
		v, err := time.ParseDuration(in)
		if err != nil || v <= 0 {
			return fmt.Errorf("config %s: bad duration %q", d.name, d.in)
		}
		*d.out = v
	}

	if v := strings.TrimSpace(raw.Log.File); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config log.level: unknown level %q", c.LogLevel)
	}
	if v := strings.TrimSpace(raw.Log.Format); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config log.format: unknown format %q", c.LogFormat)
	}
	return nil
}

// Configured reports whether the lamp can do backend work. Without SSID,
// password and backend URL it degrades to the scan-only mode.
func (c Config) Configured() bool {
	return c.SSID != "" && c.Password != "" && c.BackendURL != ""
}

func clampName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "laempli"
	}
	if len(name) > MaxStationNameLen {
		name = name[:MaxStationNameLen]
	}
	return name
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
