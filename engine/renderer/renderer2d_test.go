package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/math"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/renderer/components"
)

func TestRenderer2DDrawSprites(t *testing.T) {
	s, b := newState(t)
	r2d, err := renderer.NewRenderer2D(s, nil, nil)
	require.NoError(t, err)
	require.Len(t, b.FakeDevice.Pipelines, 2)

	cam, err := components.NewCamera2D(s, r2d.CameraLayout(), 800, 600)
	require.NoError(t, err)
	require.NoError(t, cam.Update())
	tex, err := r2d.CreateTextureBindGroup(pngBytes(t, 2, 2), "sprite")
	require.NoError(t, err)

	rendering := renderer.NewRendering(s, clearColor)
	require.NoError(t, rendering.StartRender())
	instances := []renderer.Instance{
		{Position: math.Vec2{X: 0, Y: 0}, Scale: math.Vec2{X: 32, Y: 32}},
		{Position: math.Vec2{X: 50, Y: 10}, Scale: math.Vec2{X: 16, Y: 16}},
	}
	err = rendering.WithFrame(func(frt *renderer.FrameRenderTarget) error {
		if err := r2d.DrawSprites(frt, cam.BindGroup(), tex, instances); err != nil {
			return err
		}
		return r2d.DrawSprites(frt, cam.BindGroup(), tex, instances[:1])
	})
	require.NoError(t, err)
	require.NoError(t, rendering.CompleteRender())

	q := b.FakeDevice.FakeQueue
	assert.Equal(t, []string{"pipeline sprites", "pipeline sprites"}, q.CommandsContaining("pipeline"))
	assert.Equal(t, []string{"bindgroup 0 sprite", "bindgroup 1 camera2d", "bindgroup 0 sprite", "bindgroup 1 camera2d"},
		q.CommandsContaining("bindgroup"))
	// the second call draws from the instances after the first
	assert.Equal(t, []string{"drawindexed 6 2 0 0 0", "drawindexed 6 1 0 0 2"}, q.CommandsContaining("drawindexed"))
}

func TestRenderer2DGrowsInstances(t *testing.T) {
	s, _ := newState(t)
	r2d, err := renderer.NewRenderer2D(s, nil, nil)
	require.NoError(t, err)
	cam, err := components.NewCamera2D(s, r2d.CameraLayout(), 800, 600)
	require.NoError(t, err)
	tex, err := r2d.CreateTextureBindGroup(pngBytes(t, 1, 1), "sprite")
	require.NoError(t, err)

	rendering := renderer.NewRendering(s, clearColor)
	require.NoError(t, rendering.StartRender())
	many := make([]renderer.Instance, 200)
	frt := rendering.Borrow()
	require.NoError(t, r2d.DrawSprites(frt, cam.BindGroup(), tex, many))
	rendering.ReturnBorrow(frt)
	require.NoError(t, rendering.CompleteRender())

	// the replaced buffer is released when the next frame begins
	r2d.ReceiveEvent(core.Event{Kind: core.EventPreRender})
}

func TestRenderer2DUnknownTexture(t *testing.T) {
	s, _ := newState(t)
	r2d, err := renderer.NewRenderer2D(s, nil, nil)
	require.NoError(t, err)
	cam, err := components.NewCamera2D(s, r2d.CameraLayout(), 800, 600)
	require.NoError(t, err)

	rendering := renderer.NewRendering(s, clearColor)
	require.NoError(t, rendering.StartRender())
	err = rendering.WithFrame(func(frt *renderer.FrameRenderTarget) error {
		return r2d.DrawSprites(frt, cam.BindGroup(), renderer.BindGroupKey{}, make([]renderer.Instance, 1))
	})
	assert.ErrorIs(t, err, core.ErrBindGroupNotFound)
	require.NoError(t, rendering.CompleteRender())
}

func TestInstanceModel(t *testing.T) {
	i := renderer.Instance{Position: math.Vec2{X: 10, Y: 20}, Scale: math.Vec2{X: 2, Y: 4}}
	p := i.Model().TransformVec4(math.NewVec4(0.5, 0.5, 0, 1))
	assert.InDelta(t, 11, p.X, 1e-5)
	assert.InDelta(t, 22, p.Y, 1e-5)
}

func TestVertexLayouts(t *testing.T) {
	cases := []struct {
		layout renderer.VertexLayout
		stride uint64
		step   renderer.VertexStepMode
		locs   []uint32
	}{
		{renderer.Vertex2DLayout, 16, renderer.VertexStepModeVertex, []uint32{0, 1}},
		{renderer.InstanceLayout, 64, renderer.VertexStepModeInstance, []uint32{2, 3, 4, 5}},
		{renderer.ColoredVertexLayout, 24, renderer.VertexStepModeVertex, []uint32{0, 1}},
		{renderer.TexturedVertexLayout, 20, renderer.VertexStepModeVertex, []uint32{0, 1}},
	}
	for _, c := range cases {
		t.Run(c.layout.String(), func(t *testing.T) {
			l := c.layout.BufferLayout()
			assert.Equal(t, c.stride, l.ArrayStride)
			assert.Equal(t, c.step, l.StepMode)
			var locs []uint32
			for _, a := range l.Attributes {
				locs = append(locs, a.ShaderLocation)
			}
			assert.Equal(t, c.locs, locs)
			last := l.Attributes[len(l.Attributes)-1]
			assert.Equal(t, c.stride, last.Offset+last.Format.Size())
		})
	}
}

func TestVertexBytes(t *testing.T) {
	b := renderer.Vertex2DBytes([]renderer.Vertex2D{{Position: math.Vec2{X: 1}, UV: math.Vec2{Y: 1}}})
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x80, 0x3f}, b)
	assert.Equal(t, []byte{1, 0, 2, 0}, renderer.Uint16Bytes([]uint16{1, 2}))
	assert.Len(t, renderer.InstanceBytes(make([]renderer.Instance, 3)), 3*64)
}
