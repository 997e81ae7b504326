package config

type RawWindow struct {
	Width  *int    `yaml:"width"`
	Height *int    `yaml:"height"`
	Title  *string `yaml:"title"`
}

type RawConfig struct {
	FPS        *int       `yaml:"fps"`
	Screens    []string   `yaml:"screens"`
	Scene      *string    `yaml:"scene"`
	ClearColor *string    `yaml:"clear_color"`
	Display    *string    `yaml:"display"`
	Window     *RawWindow `yaml:"window"`
	LogLevel   *string    `yaml:"log_level"`
	IPC        *bool      `yaml:"ipc"`
}
