package config

import (
	"fmt"
	"strings"
)

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
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.FPS != nil {
		cfg.FPS = *raw.FPS
	}
	if raw.Screens != nil {
		screens := make([]string, 0, len(raw.Screens))
		for _, name := range raw.Screens {
			screens = append(screens, strings.TrimSpace(name))
		}
		cfg.Screens = screens
	}
	if raw.Scene != nil {
		cfg.Scene = strings.TrimSpace(*raw.Scene)
	}
	if raw.ClearColor != nil {
		cfg.ClearColor = strings.TrimSpace(*raw.ClearColor)
	}
	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.Window != nil {
		cfg.Window.Width = derefInt(raw.Window.Width, cfg.Window.Width)
		cfg.Window.Height = derefInt(raw.Window.Height, cfg.Window.Height)
		if raw.Window.Title != nil {
			cfg.Window.Title = *raw.Window.Title
		}
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.IPC != nil {
		cfg.IPC = *raw.IPC
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
