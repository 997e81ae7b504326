package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.FPS != DefaultFPS {
		t.Fatalf("expected fps %d, got %d", DefaultFPS, cfg.FPS)
	}
	if len(cfg.Screens) != 0 {
		t.Fatalf("expected windowed defaults, got screens %v", cfg.Screens)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(res.Config, DefaultConfig()) {
		t.Fatalf("expected defaults, got %#v", res.Config)
	}
	if res.File != "" {
		t.Fatalf("expected no loaded file, got %q", res.File)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Scene != DefaultConfig().Scene {
		t.Fatalf("expected default scene, got %q", res.Config.Scene)
	}
}

func TestLoadFromPath_AllFields(t *testing.T) {
	data := `
fps: 60
screens: [DP-1, HDMI-1, DP-1]
scene: solid
clear_color: "#203040"
display: ":1"
window:
  width: 800
  height: 600
  title: preview
log_level: DEBUG
ipc: false
`
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.TrimSpace(data)+"\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := &Config{
		FPS:        60,
		Screens:    []string{"DP-1", "HDMI-1", "DP-1"},
		Scene:      "solid",
		ClearColor: "#203040",
		Display:    ":1",
		Window:     WindowConfig{Width: 800, Height: 600, Title: "preview"},
		LogLevel:   "debug",
		IPC:        false,
	}
	if !reflect.DeepEqual(res.Config, want) {
		t.Fatalf("got %#v\nwant %#v", res.Config, want)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "DP-1") {
		t.Fatalf("expected duplicate screen warning, got %v", res.Warnings)
	}
}

func TestLoadFromPath_PartialWindowKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "window:\n  width: 640\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Window.Width != 640 || res.Config.Window.Height != DefaultWindowHeight || res.Config.Window.Title != DefaultWindowTitle {
		t.Fatalf("unexpected window %#v", res.Config.Window)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "fps: 30\nscene: plasma\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "scene" {
		t.Fatalf("expected path scene, got %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("expected source line 2, got %#v", verr.Source)
	}
	if !strings.HasPrefix(err.Error(), verr.Source.File+":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty screen name", func(c *Config) { c.Screens = []string{"DP-1", " "} }, "screens"},
		{"unknown scene", func(c *Config) { c.Scene = "plasma" }, "scene"},
		{"bad color", func(c *Config) { c.ClearColor = "blue" }, "clear_color"},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"negative height", func(c *Config) { c.Window.Height = -1 }, "window.height"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestValidate_ZeroFPSAllowedWithWarning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPS = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fps 0 must be valid: %v", err)
	}
	warnings := cfg.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "pacing is disabled") {
		t.Fatalf("expected pacing warning, got %v", warnings)
	}
}

func TestLoadFromPath_RecordsFileAndNestedSources(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "fps: 10\nwindow:\n  width: 800\nscreens:\n  - DP-1\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != path {
		t.Fatalf("File = %q, want %q", res.File, path)
	}

	tests := []struct {
		path string
		line int
	}{
		{"fps", 1},
		{"window", 3},
		{"window.width", 3},
		{"screens", 5},
	}
	for _, tt := range tests {
		src, ok := res.Sources[tt.path]
		if !ok {
			t.Errorf("no source for %s", tt.path)
			continue
		}
		if src.Kind != SourceFile || src.File != path || src.Line != tt.line {
			t.Errorf("source for %s = %#v, want %s line %d", tt.path, src, path, tt.line)
		}
	}
	if _, ok := res.Sources["scene"]; ok {
		t.Fatalf("unset key must not have a file source")
	}
}

func TestLoadFromPath_EmptyScreensList(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "screens: []\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Screens) != 0 {
		t.Fatalf("expected no screens, got %v", res.Config.Screens)
	}
}

func TestLoadFromPath_IncludeKeyRejected(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "scene: solid\n")
	path := writeConfig(t, dir, "config.yaml", "include: base.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "include") {
		t.Fatalf("expected unknown field error for include, got %v", err)
	}
}

func TestLoadFromPath_UnreadablePathErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromPath(dir)
	if err == nil {
		t.Fatal("expected error when the config path is a directory")
	}
	if !strings.Contains(err.Error(), dir) {
		t.Fatalf("expected error to name the path, got %v", err)
	}
}

func TestLoadFromPath_MalformedYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "fps: [1\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse yaml") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "fps: 15\nwindow:\n  title: demo\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "fps")
	if err != nil {
		t.Fatalf("explain fps: %v", err)
	}
	if val != 15 || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("unexpected fps explain %#v %#v", val, src)
	}

	val, src, err = Explain(res, "window.title")
	if err != nil {
		t.Fatalf("explain window.title: %v", err)
	}
	if val != "demo" || src.Kind != SourceFile || src.Line != 3 {
		t.Fatalf("unexpected window.title explain %#v %#v", val, src)
	}

	val, src, err = Explain(res, "scene")
	if err != nil {
		t.Fatalf("explain scene: %v", err)
	}
	if val != DefaultConfig().Scene || src.Kind != SourceDefault {
		t.Fatalf("unexpected scene explain %#v %#v", val, src)
	}

	res.Override("fps", "--fps")
	_, src, _ = Explain(res, "fps")
	if src.Kind != SourceFlag || src.Name != "--fps" {
		t.Fatalf("expected flag source, got %#v", src)
	}

	if _, _, err := Explain(res, "hotkey"); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMarshalRoundTripsThroughLoader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Screens = []string{"DP-1"}
	cfg.FPS = 12
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	path := writeConfig(t, t.TempDir(), "config.yaml", string(data))
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load marshalled config: %v", err)
	}
	if !reflect.DeepEqual(res.Config, cfg) {
		t.Fatalf("got %#v\nwant %#v", res.Config, cfg)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	if path != filepath.Join(home, ".config", "wallrender", "config.yaml") {
		t.Fatalf("unexpected path %q", path)
	}
}
