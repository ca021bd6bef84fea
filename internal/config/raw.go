package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawFade mirrors Fade with optional fields. Duration is a Go duration
// string such as "250ms".
type RawFade struct {
	Enabled  *bool   `yaml:"enabled"`
	Steps    *int    `yaml:"steps"`
	Duration *string `yaml:"duration"`
}

// RawConfig is one config file as written. Unset keys stay nil so later files
// only override what they name.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	ShowLowRes *bool    `yaml:"show_low_res"`
	List       *string  `yaml:"list"`
	Output     *string  `yaml:"output"`
	LogLevel   *string  `yaml:"log_level"`
	Display    *string  `yaml:"display"`
	XAuthority *string  `yaml:"xauthority"`
	Fade       *RawFade `yaml:"fade"`
}

func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	if other.ShowLowRes != nil {
		out.ShowLowRes = other.ShowLowRes
	}
	if other.List != nil {
		out.List = other.List
	}
	if other.Output != nil {
		out.Output = other.Output
	}
	if other.LogLevel != nil {
		out.LogLevel = other.LogLevel
	}
	if other.Display != nil {
		out.Display = other.Display
	}
	if other.XAuthority != nil {
		out.XAuthority = other.XAuthority
	}
	if other.Fade != nil {
		if out.Fade == nil {
			out.Fade = &RawFade{}
		} else {
			fade := *out.Fade
			out.Fade = &fade
		}
		if other.Fade.Enabled != nil {
			out.Fade.Enabled = other.Fade.Enabled
		}
		if other.Fade.Steps != nil {
			out.Fade.Steps = other.Fade.Steps
		}
		if other.Fade.Duration != nil {
			out.Fade.Duration = other.Fade.Duration
		}
	}
	return out
}
