package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	fps
//	screens
//	scene
//	clear_color
//	display
//	window.width
//	window.height
//	window.title
//	log_level
//	ipc
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "fps":
		return cfg.FPS, nil
	case "screens":
		return cfg.Screens, nil
	case "scene":
		return cfg.Scene, nil
	case "clear_color":
		return cfg.ClearColor, nil
	case "display":
		return cfg.Display, nil
	case "window":
		return cfg.Window, nil
	case "window.width":
		return cfg.Window.Width, nil
	case "window.height":
		return cfg.Window.Height, nil
	case "window.title":
		return cfg.Window.Title, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "ipc":
		return cfg.IPC, nil
	default:
		return nil, fmt.Errorf("unknown config path %q", path)
	}
}
