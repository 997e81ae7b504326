package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/1broseidon/wallrender/internal/render"
	"github.com/1broseidon/wallrender/internal/scene"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS          = render.DefaultMaxFPS
	DefaultClearColor   = "#101820"
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 720
	DefaultWindowTitle  = "wallrender"
)

// WindowConfig sizes the window used in windowed mode.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Config holds the application configuration.
type Config struct {
	// FPS caps the frame rate; <= 0 disables pacing.
	FPS int `yaml:"fps"`
	// Screens lists RandR outputs to draw on the root window. Empty means
	// windowed mode.
	Screens    []string     `yaml:"screens"`
	Scene      string       `yaml:"scene"`
	ClearColor string       `yaml:"clear_color"`
	Display    string       `yaml:"display,omitempty"`
	Window     WindowConfig `yaml:"window"`
	LogLevel   string       `yaml:"log_level"`
	IPC        bool         `yaml:"ipc"`
}

func DefaultConfig() *Config {
	return &Config{
		FPS:        DefaultFPS,
		Screens:    []string{},
		Scene:      scene.Default,
		ClearColor: DefaultClearColor,
		Window: WindowConfig{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
			Title:  DefaultWindowTitle,
		},
		LogLevel: "info",
		IPC:      true,
	}
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "wallrender", "config.yaml"), nil
}

// SlogLevel maps log_level to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) Validate() error {
	for i, name := range c.Screens {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "screens", Err: fmt.Errorf("screens[%d] must not be empty", i)}
		}
	}
	if !scene.Known(c.Scene) {
		return &ValidationError{Path: "scene", Err: fmt.Errorf("scene must be one of: %s", strings.Join(scene.Names(), ", "))}
	}
	if _, err := scene.ParseColor(c.ClearColor); err != nil {
		return &ValidationError{Path: "clear_color", Err: err}
	}
	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// validationWarnings reports settings that are valid but probably not what
// the user meant.
func (c *Config) validationWarnings() []string {
	var warnings []string
	if c.FPS <= 0 {
		warnings = append(warnings, fmt.Sprintf("fps is %d: frame pacing is disabled and the renderer will use a full core", c.FPS))
	}
	seen := make(map[string]bool, len(c.Screens))
	for _, name := range c.Screens {
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("screens lists %q more than once: it will be drawn once per entry", name))
			continue
		}
		seen[name] = true
	}
	return warnings
}

// Warnings returns non-fatal configuration findings.
func (c *Config) Warnings() []string {
	if c == nil {
		return nil
	}
	return c.validationWarnings()
}
