package engine

import (
	"github.com/matms/mat-engine/engine/assets"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/platform"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/renderer/components"
)

// Context is what the engine hands to application callbacks.
type Context struct {
	config     *core.Config
	window     *platform.Window
	rendering  *renderer.Rendering
	renderer2d *renderer.Renderer2D
	camera     *components.Camera2D
	input      *core.Input
	chrono     *core.Chrono
	metrics    *core.Metrics
	events     *core.EventBus
	debug      *renderer.DebugQueue
	assets     *assets.AssetManager
	jobs       *assets.JobSystem

	quit      bool
	forceQuit bool
}

func (c *Context) Config() *core.Config             { return c.config }
func (c *Context) Window() *platform.Window         { return c.window }
func (c *Context) Rendering() *renderer.Rendering   { return c.rendering }
func (c *Context) Renderer2D() *renderer.Renderer2D { return c.renderer2d }
func (c *Context) Camera() *components.Camera2D     { return c.camera }
func (c *Context) Input() *core.Input               { return c.input }
func (c *Context) Chrono() *core.Chrono             { return c.chrono }
func (c *Context) Metrics() *core.Metrics           { return c.metrics }
func (c *Context) Events() *core.EventBus           { return c.events }
func (c *Context) Assets() *assets.AssetManager     { return c.assets }

// Jobs runs background work; callbacks run at the start of the next update.
func (c *Context) Jobs() *assets.JobSystem { return c.jobs }

// Debug is the overlay queue of the current frame.
func (c *Context) Debug() renderer.DebugSink { return c.debug }

// State is the GPU resource state.
func (c *Context) State() *renderer.State {
	if c.rendering == nil {
		return nil
	}
	return c.rendering.State()
}

// Frame is the frame being rendered. Only valid inside FnRender.
func (c *Context) Frame() *renderer.FrameRenderTarget {
	return c.rendering.Frame()
}

// QueueQuit stops the engine once the current frame completes.
func (c *Context) QueueQuit() {
	c.quit = true
}

// ForceQuit stops the engine as soon as the current callback returns,
// without rendering the rest of the frame.
func (c *Context) ForceQuit() {
	c.quit = true
	c.forceQuit = true
}

func (c *Context) QuitRequested() bool {
	return c.quit
}
