package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Fade configures the brightness ramp played around a mode switch.
type Fade struct {
	Enabled  bool          `yaml:"enabled"`
	Steps    int           `yaml:"steps"`
	Duration time.Duration `yaml:"duration"`
}

// Config holds displix preferences. Flags given on the command line take
// precedence over every value here.
type Config struct {
	// ShowLowRes includes duplicate low-resolution modes in catalogs.
	ShowLowRes bool `yaml:"show_low_res"`
	// List selects which displays are enumerated: active or online.
	List string `yaml:"list"`
	// Output is the report format: text, yaml or json.
	Output   string `yaml:"output"`
	LogLevel string `yaml:"log_level"`

	// X11 connection overrides, used when the environment names no server.
	Display    string `yaml:"display"`
	XAuthority string `yaml:"xauthority"`

	Fade Fade `yaml:"fade"`
}

const (
	ListActive = "active"
	ListOnline = "online"

	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

const (
	maxFadeSteps    = 100
	maxFadeDuration = 5 * time.Second
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ShowLowRes: false,
		List:       ListActive,
		Output:     OutputText,
		LogLevel:   "warning",
		Fade: Fade{
			Enabled:  false,
			Steps:    10,
			Duration: 300 * time.Millisecond,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.List {
	case ListActive, ListOnline:
	default:
		return &ValidationError{Path: "list", Err: fmt.Errorf("list must be one of: active, online")}
	}
	switch c.Output {
	case OutputText, OutputYAML, OutputJSON:
	default:
		return &ValidationError{Path: "output", Err: fmt.Errorf("output must be one of: text, yaml, json")}
	}
	if _, ok := parseLogLevel(c.LogLevel); !ok {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Fade.Steps < 1 || c.Fade.Steps > maxFadeSteps {
		return &ValidationError{Path: "fade.steps", Err: fmt.Errorf("steps must be between 1 and %d", maxFadeSteps)}
	}
	if c.Fade.Duration < 0 || c.Fade.Duration > maxFadeDuration {
		return &ValidationError{Path: "fade.duration", Err: fmt.Errorf("duration must be between 0s and %s", maxFadeDuration)}
	}
	return nil
}

// SlogLevel returns the slog level named by LogLevel, defaulting to warn.
func (c *Config) SlogLevel() slog.Level {
	level, ok := parseLogLevel(c.LogLevel)
	if !ok {
		return slog.LevelWarn
	}
	return level
}

func parseLogLevel(s string) (slog.Level, bool) {
	switch s {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelWarn, false
	}
}
