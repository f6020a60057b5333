package components

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/math"
	"github.com/matms/mat-engine/engine/renderer"
)

type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
}

/**
 * Camera2D is an orthographic camera looking at the XY plane.
 *
 * Screen coordinates have their origin in the top left corner and Y grows
 * downwards; world Y grows upwards. The camera position is shown at the
 * centre of the screen.
 *
 * Setters only mark the camera dirty. Update recomputes the matrix and
 * writes it to the uniform buffer, once per frame, before the bind group is
 * used in a draw.
 */
type Camera2D struct {
	screenW  float32
	screenH  float32
	scale    float32
	position math.Vec2

	/** @brief Set by every setter, cleared by Update. */
	dirty  bool
	matrix math.Mat4
	// number of times Update recomputed the matrix
	updates uint64

	state     *renderer.State
	buffer    renderer.Buffer
	bindGroup renderer.BindGroupKey

	scroll *scrollAnim
}

// NewCamera2D creates a camera with its uniform buffer and a bind group for
// layout. A nil state gives a camera with no GPU side, for pure transforms.
func NewCamera2D(state *renderer.State, layout renderer.BindGroupLayout, width, height uint32) (*Camera2D, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: camera screen %dx%d", core.ErrZeroSizeSurface, width, height)
	}
	c := &Camera2D{
		screenW: float32(width),
		screenH: float32(height),
		scale:   1,
		dirty:   true,
		matrix:  math.NewMat4Identity(),
		state:   state,
	}
	if state == nil {
		return c, nil
	}

	buf, err := state.CreateUniformBuffer("camera2d", 64)
	if err != nil {
		return nil, err
	}
	bg, err := state.AddBindGroup(layout, renderer.UniformBinding{Buffer: buf, Visibility: renderer.ShaderStageVertex}, "camera2d")
	if err != nil {
		return nil, err
	}
	c.buffer = buf
	c.bindGroup = bg
	return c, nil
}

// BindGroup is the camera uniform bind group, for slot 1 of Renderer2D.
func (c *Camera2D) BindGroup() renderer.BindGroupKey {
	return c.bindGroup
}

func (c *Camera2D) Scale() float32 {
	return c.scale
}

func (c *Camera2D) SetScale(scale float32) {
	if scale <= 0 {
		panic(fmt.Sprintf("camera2d: scale must be positive, got %v", scale))
	}
	c.scale = scale
	c.dirty = true
}

func (c *Camera2D) MulScale(factor float32) {
	c.SetScale(c.scale * factor)
}

func (c *Camera2D) Position() math.Vec2 {
	return c.position
}

func (c *Camera2D) SetPosition(position math.Vec2) {
	c.position = position
	c.dirty = true
}

func (c *Camera2D) TranslatePosition(delta math.Vec2) {
	c.position = c.position.Add(delta)
	c.dirty = true
}

func (c *Camera2D) ScreenSize() (float32, float32) {
	return c.screenW, c.screenH
}

// SetScreenSize ignores a zero dimension, which happens while the window is
// minimized, and keeps the last size.
func (c *Camera2D) SetScreenSize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.screenW = float32(width)
	c.screenH = float32(height)
	c.dirty = true
}

func (c *Camera2D) IsDirty() bool {
	return c.dirty
}

// Updates counts how many times Update actually recomputed the matrix.
func (c *Camera2D) Updates() uint64 {
	return c.updates
}

// Matrix returns the matrix computed by the last Update.
func (c *Camera2D) Matrix() math.Mat4 {
	return c.matrix
}

// Update recomputes the camera matrix and writes it to the uniform buffer
// if any parameter changed since the last Update.
func (c *Camera2D) Update() error {
	if !c.dirty {
		return nil
	}
	w, h := c.screenW, c.screenH
	ortho := math.NewMat4Orthographic(0, w, 0, h, -1, 1)
	view := ortho.Translate(math.NewVec3(-c.position.X+w/2, -c.position.Y+h/2, 0))
	c.matrix = math.NewMat4Scale(math.NewVec3(c.scale, c.scale, 1)).Mul(view)
	c.dirty = false
	c.updates++

	if c.state == nil {
		return nil
	}
	return c.state.WriteBuffer(c.buffer, 0, c.matrix.Bytes())
}

// WorldToScreen maps a world point to screen pixels.
func (c *Camera2D) WorldToScreen(p math.Vec2) math.Vec2 {
	return math.Vec2{
		X: c.scale*(p.X-c.position.X) + c.screenW/2,
		Y: c.screenH/2 - c.scale*(p.Y-c.position.Y),
	}
}

// ScreenToWorld is the inverse of WorldToScreen.
func (c *Camera2D) ScreenToWorld(p math.Vec2) math.Vec2 {
	return math.Vec2{
		X: (p.X-c.screenW/2)/c.scale + c.position.X,
		Y: (c.screenH/2-p.Y)/c.scale + c.position.Y,
	}
}

// ScrollTo moves the camera to target over seconds, driven by Advance.
func (c *Camera2D) ScrollTo(target math.Vec2, seconds float32, fn ease.TweenFunc) {
	if fn == nil {
		fn = ease.Linear
	}
	c.scroll = &scrollAnim{
		tweenX: gween.New(c.position.X, target.X, seconds, fn),
		tweenY: gween.New(c.position.Y, target.Y, seconds, fn),
	}
}

func (c *Camera2D) Scrolling() bool {
	return c.scroll != nil
}

// Advance steps a running ScrollTo by dt seconds.
func (c *Camera2D) Advance(dt float32) {
	if c.scroll == nil {
		return
	}
	x, doneX := c.scroll.tweenX.Update(dt)
	y, doneY := c.scroll.tweenY.Update(dt)
	c.SetPosition(math.Vec2{X: x, Y: y})
	if doneX && doneY {
		c.scroll = nil
	}
}

func (c *Camera2D) ReceivesEvent(kind core.EventKind) bool {
	return kind == core.EventWindowResize
}

func (c *Camera2D) ReceiveEvent(ev core.Event) {
	c.SetScreenSize(ev.Width, ev.Height)
}
