package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/matms/mat-engine/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Callbacks receives the window events the engine cares about. Nil fields
// are skipped.
type Callbacks struct {
	OnResize      func(width, height uint32)
	OnKey         func(key core.KeyCode, pressed bool, mods core.Modifiers)
	OnMouseButton func(button core.Button, pressed bool)
	OnCursorPos   func(x, y float64)
	OnCursorEnter func(entered bool)
	OnScroll      func(dx, dy float64)
	OnClose       func()
}

// Window is a glfw window without a client API; the GPU backend builds its
// surface from SurfaceDescriptor.
type Window struct {
	handle    *glfw.Window
	callbacks Callbacks
	redraw    bool
}

type WindowConfig struct {
	Title  string
	X, Y   int
	Width  uint32
	Height uint32
}

func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("window %q: %w", cfg.Title, core.ErrZeroSizeSurface)
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	w := &Window{handle: handle}

	handle.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	handle.SetKeyCallback(w.keyCallback)
	handle.SetMouseButtonCallback(w.mouseButtonCallback)
	handle.SetCursorPosCallback(w.cursorPosCallback)
	handle.SetCursorEnterCallback(w.cursorEnterCallback)
	handle.SetScrollCallback(w.scrollCallback)
	handle.SetCloseCallback(w.closeCallback)
	if cfg.X != 0 || cfg.Y != 0 {
		handle.SetPos(cfg.X, cfg.Y)
	}
	handle.Show()

	core.LogInfo("window %q created (%dx%d)", cfg.Title, cfg.Width, cfg.Height)
	return w, nil
}

func (w *Window) SetCallbacks(cb Callbacks) {
	w.callbacks = cb
}

// InnerSize is the framebuffer size in pixels, which is what the surface is
// configured with.
func (w *Window) InnerSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(max(width, 0)), uint32(max(height, 0))
}

func (w *Window) RequestRedraw() {
	w.redraw = true
}

// TakeRedrawRequest reports and clears a pending redraw request.
func (w *Window) TakeRedrawRequest() bool {
	r := w.redraw
	w.redraw = false
	return r
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until an event arrives or timeout passes.
func (w *Window) WaitEvents(timeout time.Duration) {
	glfw.WaitEventsTimeout(timeout.Seconds())
}

// Wake makes a pending WaitEvents return. Safe to call from any goroutine
// while glfw is initialized.
func Wake() {
	glfw.PostEmptyEvent()
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) SetShouldClose(v bool) {
	w.handle.SetShouldClose(v)
}

func (w *Window) SetTitle(title string) {
	w.handle.SetTitle(title)
}

func (w *Window) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.handle)
}

// Handle exposes the glfw window for collaborators that need it directly.
func (w *Window) Handle() *glfw.Window {
	return w.handle
}

// Time is the number of seconds since glfw was initialized.
func Time() float64 {
	return glfw.GetTime()
}

func (w *Window) Destroy() {
	w.handle.Destroy()
	glfw.Terminate()
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	if w.callbacks.OnResize != nil {
		w.callbacks.OnResize(uint32(max(width, 0)), uint32(max(height, 0)))
	}
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if w.callbacks.OnKey == nil || action == glfw.Repeat {
		return
	}
	code, ok := translateKey(key)
	if !ok {
		return
	}
	w.callbacks.OnKey(code, action == glfw.Press, translateMods(mods))
}

func (w *Window) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if w.callbacks.OnMouseButton == nil {
		return
	}
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	w.callbacks.OnMouseButton(b, action == glfw.Press)
}

func (w *Window) cursorPosCallback(_ *glfw.Window, x, y float64) {
	if w.callbacks.OnCursorPos != nil {
		w.callbacks.OnCursorPos(x, y)
	}
}

func (w *Window) cursorEnterCallback(_ *glfw.Window, entered bool) {
	if w.callbacks.OnCursorEnter != nil {
		w.callbacks.OnCursorEnter(entered)
	}
}

func (w *Window) scrollCallback(_ *glfw.Window, dx, dy float64) {
	if w.callbacks.OnScroll != nil {
		w.callbacks.OnScroll(dx, dy)
	}
}

func (w *Window) closeCallback(_ *glfw.Window) {
	if w.callbacks.OnClose != nil {
		w.callbacks.OnClose()
	}
}

func translateMods(mods glfw.ModifierKey) core.Modifiers {
	return core.Modifiers{
		Shift:   mods&glfw.ModShift != 0,
		Control: mods&glfw.ModControl != 0,
		Alt:     mods&glfw.ModAlt != 0,
		Super:   mods&glfw.ModSuper != 0,
	}
}
