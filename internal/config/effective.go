package config

import (
	"fmt"
	"time"
)

// ValidationError reports an invalid config value, located by its YAML path
// and, when known, the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.ShowLowRes != nil {
		cfg.ShowLowRes = *raw.ShowLowRes
	}
	if raw.List != nil {
		cfg.List = *raw.List
	}
	if raw.Output != nil {
		cfg.Output = *raw.Output
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.Fade != nil {
		if raw.Fade.Enabled != nil {
			cfg.Fade.Enabled = *raw.Fade.Enabled
		}
		if raw.Fade.Steps != nil {
			cfg.Fade.Steps = *raw.Fade.Steps
		}
		if raw.Fade.Duration != nil {
			d, err := time.ParseDuration(*raw.Fade.Duration)
			if err != nil {
				return nil, &ValidationError{Path: "fade.duration", Err: err}
			}
			cfg.Fade.Duration = d
		}
	}
	return cfg, nil
}
