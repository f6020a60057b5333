package engine

import (
	"github.com/matms/mat-engine/engine/core"
)

type ApplicationConfig struct {
	// The application name used in windowing and logs.
	Name string
	// Path of the TOML config file. Empty uses the defaults only.
	ConfigPath string
	// Overrides applied on top of the loaded config, if non-zero.
	StartPosX   int
	StartPosY   int
	StartWidth  uint32
	StartHeight uint32
	// LogLevel is the level at startup. Once running, [log] level in the
	// config file decides.
	LogLevel *core.LogLevel
	// Bitmap font for the debug overlay, relative to the asset root. Empty
	// disables the overlay text.
	DebugFont string
	// Sprite shaders replacing the built-in WGSL pair, relative to the
	// working directory. GLSL files need [renderer] shader_compiler.
	SpriteVertexShader   string
	SpriteFragmentShader string
}

// apply writes the window overrides into cfg. It runs again on every config
// reload.
func (ac *ApplicationConfig) apply(cfg *core.Config) {
	if ac.Name != "" {
		cfg.Window.Title = ac.Name
	}
	if ac.StartPosX != 0 || ac.StartPosY != 0 {
		cfg.Window.X, cfg.Window.Y = ac.StartPosX, ac.StartPosY
	}
	if ac.StartWidth != 0 {
		cfg.Window.Width = ac.StartWidth
	}
	if ac.StartHeight != 0 {
		cfg.Window.Height = ac.StartHeight
	}
}

// applyStartup is apply plus the overrides that only hold until the first
// reload.
func (ac *ApplicationConfig) applyStartup(cfg *core.Config) {
	ac.apply(cfg)
	if ac.LogLevel != nil {
		cfg.Log.Level = ac.LogLevel.String()
	}
}
