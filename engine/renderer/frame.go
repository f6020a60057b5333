package renderer

import (
	"errors"
	"fmt"

	"github.com/matms/mat-engine/engine/core"
)

// FrameState is the possession state of the single frame render target.
type FrameState uint8

const (
	// No frame is in flight.
	FrameEmpty FrameState = iota
	// StartRender acquired a frame and the render system holds it.
	FrameOwned
	// The frame is lent to another subsystem until ReturnBorrow.
	FrameLent
)

func (s FrameState) String() string {
	switch s {
	case FrameEmpty:
		return "Empty"
	case FrameOwned:
		return "Owned"
	case FrameLent:
		return "Lent"
	}
	return fmt.Sprintf("FrameState(%d)", uint8(s))
}

// FrameRenderTarget is the acquired surface texture of one frame, its view
// and the command encoder everything for the frame is recorded into.
type FrameRenderTarget struct {
	texture TextureHandle
	view    TextureView
	encoder CommandEncoder
}

func (f *FrameRenderTarget) View() TextureView       { return f.view }
func (f *FrameRenderTarget) Encoder() CommandEncoder { return f.encoder }
func (f *FrameRenderTarget) Size() (uint32, uint32)  { return f.texture.Width(), f.texture.Height() }
func (f *FrameRenderTarget) Texture() TextureHandle  { return f.texture }

func (f *FrameRenderTarget) release() {
	f.encoder.Release()
	f.view.Release()
	f.texture.Release()
}

// Rendering drives the frame render target through Empty, Owned and Lent.
// Misuse of the transitions panics.
type Rendering struct {
	state      *State
	frameState FrameState
	frame      *FrameRenderTarget
	clearColor Color
	suspended  bool
	completed  uint64
}

func NewRendering(state *State, clearColor Color) *Rendering {
	return &Rendering{
		state:      state,
		clearColor: clearColor,
	}
}

func (r *Rendering) State() *State { return r.state }

func (r *Rendering) FrameState() FrameState { return r.frameState }

// FramesCompleted counts successful CompleteRender calls.
func (r *Rendering) FramesCompleted() uint64 { return r.completed }

func (r *Rendering) ClearColor() Color { return r.clearColor }

func (r *Rendering) SetClearColor(c Color) { r.clearColor = c }

// Suspended reports whether the window currently has zero area. Frames must
// not be started while suspended.
func (r *Rendering) Suspended() bool { return r.suspended }

// StartRender acquires the next surface texture, creates the frame encoder
// and records the clear pass.
func (r *Rendering) StartRender() error {
	if r.frameState != FrameEmpty {
		panic(fmt.Sprintf("rendering: StartRender called while the frame is %s", r.frameState))
	}
	if r.suspended {
		return fmt.Errorf("%w: rendering is suspended", core.ErrZeroSizeSurface)
	}

	tex, err := r.acquire()
	if err != nil {
		return err
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return fmt.Errorf("creating frame view: %w", err)
	}
	enc, err := r.state.device.CreateCommandEncoder("frame")
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("creating frame encoder: %w", err)
	}

	pass := enc.BeginRenderPass(RenderPassDescriptor{
		Label:      "clear",
		View:       view,
		LoadOp:     LoadOpClear,
		ClearColor: r.clearColor,
	})
	err = pass.End()
	pass.Release()
	if err != nil {
		enc.Release()
		view.Release()
		tex.Release()
		return fmt.Errorf("recording clear pass: %w", err)
	}

	r.frame = &FrameRenderTarget{texture: tex, view: view, encoder: enc}
	r.frameState = FrameOwned
	return nil
}

// acquire gets the next surface texture. A lost or outdated surface is
// reconfigured and acquisition retried once.
func (r *Rendering) acquire() (TextureHandle, error) {
	tex, err := r.state.surface.AcquireTexture()
	if err == nil {
		return tex, nil
	}
	if !errors.Is(err, core.ErrSurfaceLost) {
		return nil, fmt.Errorf("acquiring surface texture: %w", err)
	}
	core.LogWarn("surface lost, reconfiguring: %s", err)
	if err := r.state.Reconfigure(); err != nil {
		return nil, err
	}
	tex, err = r.state.surface.AcquireTexture()
	if err != nil {
		return nil, fmt.Errorf("acquiring surface texture after reconfigure: %w", err)
	}
	return tex, nil
}

// Frame returns the owned frame for the render system's own passes.
func (r *Rendering) Frame() *FrameRenderTarget {
	if r.frameState != FrameOwned {
		panic(fmt.Sprintf("rendering: Frame called while the frame is %s", r.frameState))
	}
	return r.frame
}

// Borrow lends the frame to another subsystem. It must be handed back with
// ReturnBorrow before CompleteRender.
func (r *Rendering) Borrow() *FrameRenderTarget {
	switch r.frameState {
	case FrameLent:
		panic("rendering: frame borrowed twice")
	case FrameEmpty:
		panic("rendering: Borrow called with no frame in flight")
	}
	r.frameState = FrameLent
	return r.frame
}

func (r *Rendering) ReturnBorrow(frt *FrameRenderTarget) {
	if r.frameState != FrameLent {
		panic(fmt.Sprintf("rendering: ReturnBorrow called while the frame is %s", r.frameState))
	}
	if frt != r.frame {
		panic("rendering: ReturnBorrow called with a foreign frame")
	}
	r.frameState = FrameOwned
}

// WithFrame borrows the frame for the duration of fn.
func (r *Rendering) WithFrame(fn func(frt *FrameRenderTarget) error) error {
	frt := r.Borrow()
	defer r.ReturnBorrow(frt)
	return fn(frt)
}

// CompleteRender finishes the frame encoder, submits it and presents.
func (r *Rendering) CompleteRender() error {
	if r.frameState != FrameOwned {
		panic(fmt.Sprintf("rendering: CompleteRender called while the frame is %s", r.frameState))
	}
	frame := r.frame
	r.frame = nil
	r.frameState = FrameEmpty
	defer frame.release()

	cmd, err := frame.encoder.Finish()
	if err != nil {
		return fmt.Errorf("finishing frame encoder: %w", err)
	}
	r.state.queue.Submit(cmd)
	cmd.Release()
	r.state.surface.Present()
	r.completed++
	return nil
}

func (r *Rendering) ReceivesEvent(kind core.EventKind) bool {
	return kind == core.EventWindowResize
}

// ReceiveEvent resizes the surface. A zero-area window suspends rendering
// instead, and the surface keeps its last valid size.
func (r *Rendering) ReceiveEvent(ev core.Event) {
	if ev.Width == 0 || ev.Height == 0 {
		if !r.suspended {
			core.LogDebug("window has zero area, rendering suspended")
		}
		r.suspended = true
		return
	}
	r.suspended = false
	if err := r.state.Resize(ev.Width, ev.Height); err != nil {
		core.LogError("resizing surface to %dx%d: %s", ev.Width, ev.Height, err)
	}
}
