package renderer_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
)

var clearColor = renderer.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}

func TestStartCompleteRender(t *testing.T) {
	s, b := newState(t)
	r := renderer.NewRendering(s, clearColor)
	assert.Equal(t, renderer.FrameEmpty, r.FrameState())

	require.NoError(t, r.StartRender())
	assert.Equal(t, renderer.FrameOwned, r.FrameState())

	enc := b.FakeDevice.Encoders[len(b.FakeDevice.Encoders)-1]
	require.Len(t, enc.Passes, 1)
	clear := enc.Passes[0]
	assert.Equal(t, renderer.LoadOpClear, clear.Desc.LoadOp)
	assert.Equal(t, clearColor, clear.Desc.ClearColor)
	assert.True(t, clear.Ended)

	require.NoError(t, r.CompleteRender())
	assert.Equal(t, renderer.FrameEmpty, r.FrameState())
	assert.Equal(t, uint64(1), r.FramesCompleted())
	assert.Equal(t, 1, b.FakeSurface.Presented)
	assert.Len(t, b.FakeDevice.FakeQueue.Submitted, 1)
	assert.Equal(t, 1, enc.Released)
}

func TestCompleteRenderTwicePanics(t *testing.T) {
	s, _ := newState(t)
	r := renderer.NewRendering(s, clearColor)

	require.NoError(t, r.StartRender())
	require.NoError(t, r.CompleteRender())
	assert.PanicsWithValue(t, "rendering: CompleteRender called while the frame is Empty", func() {
		_ = r.CompleteRender()
	})
}

func TestCompleteRenderWithoutStartPanics(t *testing.T) {
	s, b := newState(t)
	r := renderer.NewRendering(s, clearColor)

	assert.Panics(t, func() { _ = r.CompleteRender() })
	assert.Panics(t, func() { _ = r.CompleteRender() })
	assert.Zero(t, b.FakeSurface.Presented)
}

func TestStartRenderTwicePanics(t *testing.T) {
	s, _ := newState(t)
	r := renderer.NewRendering(s, clearColor)

	require.NoError(t, r.StartRender())
	assert.PanicsWithValue(t, "rendering: StartRender called while the frame is Owned", func() {
		_ = r.StartRender()
	})

	frt := r.Borrow()
	assert.Panics(t, func() { _ = r.StartRender() })
	r.ReturnBorrow(frt)
}

func TestBorrow(t *testing.T) {
	s, _ := newState(t)
	r := renderer.NewRendering(s, clearColor)

	assert.Panics(t, func() { r.Borrow() })

	require.NoError(t, r.StartRender())
	frt := r.Borrow()
	assert.Equal(t, renderer.FrameLent, r.FrameState())
	assert.PanicsWithValue(t, "rendering: frame borrowed twice", func() { r.Borrow() })
	assert.Panics(t, func() { _ = r.CompleteRender() })

	r.ReturnBorrow(frt)
	assert.Equal(t, renderer.FrameOwned, r.FrameState())
	assert.Panics(t, func() { r.ReturnBorrow(frt) })

	require.NoError(t, r.CompleteRender())
}

func TestWithFrame(t *testing.T) {
	s, _ := newState(t)
	r := renderer.NewRendering(s, clearColor)
	require.NoError(t, r.StartRender())

	err := r.WithFrame(func(frt *renderer.FrameRenderTarget) error {
		assert.Equal(t, renderer.FrameLent, r.FrameState())
		w, h := frt.Size()
		assert.Equal(t, uint32(800), w)
		assert.Equal(t, uint32(600), h)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, renderer.FrameOwned, r.FrameState())
}

func TestSurfaceLostRetriesOnce(t *testing.T) {
	s, b := newState(t)
	r := renderer.NewRendering(s, clearColor)
	b.FakeSurface.AcquireErrs = []error{fmt.Errorf("%w: outdated", core.ErrSurfaceLost)}

	require.NoError(t, r.StartRender())
	assert.Len(t, b.FakeSurface.Configs, 2)
	require.NoError(t, r.CompleteRender())
}

func TestSurfaceLostTwiceFails(t *testing.T) {
	s, b := newState(t)
	r := renderer.NewRendering(s, clearColor)
	lost := fmt.Errorf("%w: lost", core.ErrSurfaceLost)
	b.FakeSurface.AcquireErrs = []error{lost, lost}

	err := r.StartRender()
	assert.ErrorIs(t, err, core.ErrSurfaceLost)
	assert.Equal(t, renderer.FrameEmpty, r.FrameState())

	// nothing is left half acquired
	require.NoError(t, r.StartRender())
}

func TestOtherAcquireErrorsAreNotRetried(t *testing.T) {
	s, b := newState(t)
	r := renderer.NewRendering(s, clearColor)
	b.FakeSurface.AcquireErrs = []error{assert.AnError}

	assert.ErrorIs(t, r.StartRender(), assert.AnError)
	assert.Len(t, b.FakeSurface.Configs, 1)
}

func TestResizeEvent(t *testing.T) {
	s, b := newState(t)
	r := renderer.NewRendering(s, clearColor)
	assert.True(t, r.ReceivesEvent(core.EventWindowResize))
	assert.False(t, r.ReceivesEvent(core.EventStart))

	r.ReceiveEvent(core.NewWindowResizeEvent(640, 480))
	assert.Equal(t, uint32(640), b.FakeSurface.Current().Width)

	r.ReceiveEvent(core.NewWindowResizeEvent(0, 480))
	assert.True(t, r.Suspended())
	assert.Len(t, b.FakeSurface.Configs, 2)
	assert.ErrorIs(t, r.StartRender(), core.ErrZeroSizeSurface)

	r.ReceiveEvent(core.NewWindowResizeEvent(320, 200))
	assert.False(t, r.Suspended())
	assert.Equal(t, uint32(200), b.FakeSurface.Current().Height)
	require.NoError(t, r.StartRender())
}
