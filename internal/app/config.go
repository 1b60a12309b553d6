// Package app wires the machine, presentation, audio and persistence into
// the emulator application.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nescore/internal/graphics"
	"nescore/internal/input"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // screenshot and default window multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend      string  `json:"backend"` // "ebitengine", "headless", "terminal"
	Filter       string  `json:"filter"`  // "nearest", "linear", "cubic"
	VSync        bool    `json:"vsync"`
	Brightness   float32 `json:"brightness"`
	Contrast     float32 `json:"contrast"`
	Saturation   float32 `json:"saturation"`
	ShowFPS      bool    `json:"show_fps"`
	DumpInterval int     `json:"dump_interval"` // headless: write every Nth frame
	MaxFrames    int     `json:"max_frames"`    // headless: stop after N frames
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	BatchSize  int     `json:"batch_size"`
	Volume     float32 `json:"volume"`
	RecordPath string  `json:"record_path"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
}

// KeyMapping represents keyboard key mappings for a controller
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// Bindings returns the mapping keyed by controller button
func (k KeyMapping) Bindings() map[input.Button]string {
	return map[input.Button]string{
		input.ButtonUp:     k.Up,
		input.ButtonDown:   k.Down,
		input.ButtonLeft:   k.Left,
		input.ButtonRight:  k.Right,
		input.ButtonA:      k.A,
		input.ButtonB:      k.B,
		input.ButtonStart:  k.Start,
		input.ButtonSelect: k.Select,
	}
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	Region           string  `json:"region"`        // only "NTSC" is emulated
	FrameRate        float64 `json:"frame_rate"`    // target frames per second
	PauseOnFocusLoss bool    `json:"pause_on_focus_loss"`
	SaveInterval     int     `json:"save_interval"` // seconds between battery save syncs
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging bool `json:"enable_logging"`
	StatsView     bool `json:"statsview"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	SaveData    string `json:"save_data"`
	Screenshots string `json:"screenshots"`
	FrameDumps  string `json:"frame_dumps"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  768,
			Height: 720,
			Scale:  3,
		},
		Video: VideoConfig{
			Backend:    string(graphics.BackendEbitengine),
			Filter:     "nearest",
			VSync:      true,
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			BatchSize:  735,
			Volume:     0.8,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "J",
				B:      "K",
				Start:  "Enter",
				Select: "Space",
			},
		},
		Emulation: EmulationConfig{
			Region:       "NTSC",
			FrameRate:    60.0,
			SaveInterval: 10,
		},
		Paths: PathsConfig{
			SaveData:    "./saves",
			Screenshots: "./screenshots",
			FrameDumps:  "./frames",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, writing the defaults
// there first if it does not exist
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects unusable values and clamps the rest to defaults
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), Err: fmt.Errorf("dimensions must be positive")}
	}
	switch graphics.BackendType(c.Video.Backend) {
	case graphics.BackendEbitengine, graphics.BackendHeadless, graphics.BackendTerminal:
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: fmt.Errorf("unknown backend")}
	}
	if c.Emulation.Region != "" && c.Emulation.Region != "NTSC" {
		return &ConfigError{Field: "emulation.region", Value: c.Emulation.Region, Err: fmt.Errorf("only NTSC timing is emulated")}
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	switch c.Video.Filter {
	case "nearest", "linear", "cubic":
	default:
		c.Video.Filter = "nearest"
	}
	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.BatchSize <= 0 {
		c.Audio.BatchSize = c.Audio.SampleRate / 60
	}
	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		c.Audio.Volume = 0.8
	}
	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0
	}
	if c.Emulation.SaveInterval <= 0 {
		c.Emulation.SaveInterval = 10
	}
	return nil
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/nescore.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
