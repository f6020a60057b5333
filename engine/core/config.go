package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
}

type RendererConfig struct {
	// fifo, immediate or mailbox. Ignored when VSync is set.
	PresentMode string     `toml:"present_mode"`
	VSync       bool       `toml:"vsync"`
	ClearColor  [4]float64 `toml:"clear_color"`
	// webgpu is the only backend that renders, vulkan is accepted for probing.
	Backend     string `toml:"backend"`
	ProbeVulkan bool   `toml:"probe_vulkan"`
	// none or glslc. GLSL shaders are rejected without a compiler.
	ShaderCompiler string `toml:"shader_compiler"`
	// Path to glslc, looked up in PATH when empty.
	GLSLC string `toml:"glslc"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type AssetsConfig struct {
	Root  string `toml:"root"`
	Watch bool   `toml:"watch"`
}

// Config is the engine configuration as read from a TOML file.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Log      LogConfig      `toml:"log"`
	Assets   AssetsConfig   `toml:"assets"`
}

var DefaultClearColor = [4]float64{0.1, 0.2, 0.3, 1.0}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "mat-engine",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode:    "fifo",
			VSync:          true,
			ClearColor:     DefaultClearColor,
			Backend:        "webgpu",
			ShaderCompiler: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
		Assets: AssetsConfig{
			Root: "assets",
		},
	}
}

// LoadConfig reads path on top of the defaults. A missing file yields the
// defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		LogWarn("config file %s not found, using defaults", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML data over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, derr.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	switch strings.ToLower(c.Renderer.PresentMode) {
	case "fifo", "immediate", "mailbox":
	default:
		return fmt.Errorf("%w: present_mode %q", ErrInvalidConfig, c.Renderer.PresentMode)
	}
	switch strings.ToLower(c.Renderer.Backend) {
	case "webgpu", "vulkan":
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Renderer.Backend)
	}
	switch strings.ToLower(c.Renderer.ShaderCompiler) {
	case "", "none", "glslc":
	default:
		return fmt.Errorf("%w: shader_compiler %q", ErrInvalidConfig, c.Renderer.ShaderCompiler)
	}
	for _, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear_color component %v outside [0, 1]", ErrInvalidConfig, v)
		}
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}

// LogLevel returns the parsed log level. Validate has already checked it.
func (c *Config) LogLevel() LogLevel {
	l, _ := ParseLogLevel(c.Log.Level)
	return l
}

func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// ConfigWatcher reloads a config file whenever it is written. Reloaded
// configs are delivered on Changes; the engine polls it at frame start.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan *Config
	done    chan struct{}
}

// WatchConfig watches the directory of path so editors that replace the file
// on save are still noticed.
func WatchConfig(path string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	cw := &ConfigWatcher{
		path:    abs,
		watcher: w,
		changes: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

func (cw *ConfigWatcher) run() {
	defer close(cw.changes)
	for {
		select {
		case e, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != cw.path || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				LogWarn("config reload of %s rejected: %s", cw.path, err)
				continue
			}
			// keep only the newest config
			select {
			case <-cw.changes:
			default:
			}
			cw.changes <- cfg
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			LogError("config watcher: %s", err)
		case <-cw.done:
			return
		}
	}
}

func (cw *ConfigWatcher) Changes() <-chan *Config {
	return cw.changes
}

// Poll returns the latest reloaded config without blocking.
func (cw *ConfigWatcher) Poll() (*Config, bool) {
	select {
	case cfg, ok := <-cw.changes:
		return cfg, ok && cfg != nil
	default:
		return nil, false
	}
}

func (cw *ConfigWatcher) Close() error {
	close(cw.done)
	return cw.watcher.Close()
}
