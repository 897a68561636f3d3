package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richinsley/goshaderhero/pointer"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all goshaderhero configuration.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Record  RecordConfig  `yaml:"record"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig configures the interactive window.
type WindowConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Title   string `yaml:"title"`
	Visible bool   `yaml:"visible"`
}

// RenderConfig configures the hero renderer.
type RenderConfig struct {
	// MaxPointers caps simultaneous contacts (1..10).
	MaxPointers int `yaml:"max_pointers"`
	// MinScale is the lowest render scale factor (>= 1 keeps at least
	// native logical density).
	MinScale float64 `yaml:"min_scale"`
	// ShaderFile replaces the built-in fragment source when set.
	ShaderFile string `yaml:"shader_file"`
	// Watch reloads ShaderFile when it changes.
	Watch bool `yaml:"watch"`
	// WatchDebounce coalesces bursts of writes, e.g. "200ms".
	WatchDebounce string `yaml:"watch_debounce"`
}

// RecordConfig configures offline rendering to a video file.
type RecordConfig struct {
	Duration         float64 `yaml:"duration"`
	FPS              int     `yaml:"fps"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	DevicePixelRatio float64 `yaml:"device_pixel_ratio"`
	Output           string  `yaml:"output"`
	Codec            string  `yaml:"codec"` // h264, hevc
	FFmpegPath       string  `yaml:"ffmpeg"`
	// PointerPath scripts contacts during the recording.
	PointerPath []PathPoint `yaml:"pointer_path,omitempty"`
}

// PathPoint places contact ID at (X, Y) logical pixels at time At seconds.
// Down=false releases the contact.
type PathPoint struct {
	At   float64 `yaml:"at"`
	ID   int     `yaml:"id"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Down bool    `yaml:"down"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:   1280,
			Height:  720,
			Title:   "goshaderhero",
			Visible: true,
		},
		Render: RenderConfig{
			MaxPointers:   pointer.MaxPointers,
			MinScale:      1,
			WatchDebounce: "200ms",
		},
		Record: RecordConfig{
			Duration:         10,
			FPS:              60,
			Width:            1280,
			Height:           720,
			DevicePixelRatio: 1,
			Output:           "hero.mp4",
			Codec:            "h264",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Render.MaxPointers < 1 || c.Render.MaxPointers > pointer.MaxPointers {
		return fmt.Errorf("%w: max_pointers must be within 1..%d, got %d", ErrInvalid, pointer.MaxPointers, c.Render.MaxPointers)
	}
	if c.Render.MinScale <= 0 {
		return fmt.Errorf("%w: min_scale must be positive, got %v", ErrInvalid, c.Render.MinScale)
	}
	if c.Render.Watch && c.Render.ShaderFile == "" {
		return fmt.Errorf("%w: watch requires shader_file", ErrInvalid)
	}
	if _, err := c.Render.Debounce(); err != nil {
		return fmt.Errorf("%w: watch_debounce: %v", ErrInvalid, err)
	}
	if c.Record.FPS <= 0 {
		return fmt.Errorf("%w: record fps must be positive, got %d", ErrInvalid, c.Record.FPS)
	}
	if c.Record.Duration <= 0 {
		return fmt.Errorf("%w: record duration must be positive, got %v", ErrInvalid, c.Record.Duration)
	}
	if c.Record.Width <= 0 || c.Record.Height <= 0 {
		return fmt.Errorf("%w: record size %dx%d", ErrInvalid, c.Record.Width, c.Record.Height)
	}
	if c.Record.DevicePixelRatio <= 0 {
		return fmt.Errorf("%w: device_pixel_ratio must be positive, got %v", ErrInvalid, c.Record.DevicePixelRatio)
	}
	if w, h := c.RecordDrawableSize(); w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("%w: recorded frame size %dx%d must be even for yuv420p", ErrInvalid, w, h)
	}
	switch c.Record.Codec {
	case "h264", "hevc":
	default:
		return fmt.Errorf("%w: unsupported codec %q", ErrInvalid, c.Record.Codec)
	}
	for i, p := range c.Record.PointerPath {
		if p.At < 0 || (i > 0 && p.At < c.Record.PointerPath[i-1].At) {
			return fmt.Errorf("%w: pointer_path[%d] is out of order", ErrInvalid, i)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// RecordDrawableSize is the pixel size frames are recorded at: the record
// size times max(min_scale, 0.5*device_pixel_ratio), truncated the way the
// render loop sizes its drawable.
func (c *Config) RecordDrawableSize() (int, int) {
	scale := math.Max(c.Render.MinScale, 0.5*c.Record.DevicePixelRatio)
	return int(float64(c.Record.Width) * scale), int(float64(c.Record.Height) * scale)
}

// Debounce parses WatchDebounce; empty means no debouncing.
func (r RenderConfig) Debounce() (time.Duration, error) {
	if r.WatchDebounce == "" {
		return 0, nil
	}
	return time.ParseDuration(r.WatchDebounce)
}
