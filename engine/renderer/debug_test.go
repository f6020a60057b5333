package renderer_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/math"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/resources"
)

func testFont() *resources.FontData {
	return &resources.FontData{
		Face:       "test",
		LineHeight: 10,
		AtlasSizeX: 64,
		AtlasSizeY: 64,
		Glyphs: map[rune]resources.FontGlyph{
			'A': {Codepoint: 'A', X: 0, Y: 0, Width: 8, Height: 8, XAdvance: 9},
			'B': {Codepoint: 'B', X: 8, Y: 0, Width: 8, Height: 8, XOffset: 1, YOffset: 2, XAdvance: 9},
			' ': {Codepoint: ' ', XAdvance: 4},
			'?': {Codepoint: '?', X: 16, Y: 0, Width: 8, Height: 8, XAdvance: 9},
		},
		Kernings: map[[2]rune]int16{{'A', 'B'}: -2},
	}
}

func TestDebugQueueRunsInOrder(t *testing.T) {
	q := renderer.NewDebugQueue()
	ui := renderer.NewDebugUI()
	var sink renderer.DebugSink = q

	sink.Debug(func(ui *renderer.DebugUI) { ui.Text("fps %d", 60) })
	sink.Debug(func(ui *renderer.DebugUI) { ui.Text("second") })
	assert.Equal(t, 2, q.Len())

	q.Run(ui)
	assert.Equal(t, []string{"fps 60", "second"}, ui.Lines())
	assert.Zero(t, q.Len())

	q.Run(ui)
	assert.Len(t, ui.Lines(), 2)
	ui.Reset()
	assert.Empty(t, ui.Lines())
}

func TestLayoutText(t *testing.T) {
	verts := renderer.LayoutText(testFont(), []string{"AB", " A"}, math.Vec2{})
	require.Len(t, verts, 3*4)

	// 'A' at the origin, top left vertex last
	assert.Equal(t, math.Vec2{X: 0, Y: 0}, verts[3].Position)
	assert.Equal(t, math.Vec2{X: 8, Y: 8}, verts[1].Position)
	// 'B' advanced by 9, kerned by -2, offset by (1, 2)
	assert.Equal(t, math.Vec2{X: 8, Y: 2}, verts[7].Position)
	assert.InDelta(t, 8.0/64, verts[7].UV.X, 1e-6)
	// second line starts one line height down, after the space
	assert.Equal(t, math.Vec2{X: 4, Y: 10}, verts[11].Position)
}

func TestLayoutTextUnknownRune(t *testing.T) {
	verts := renderer.LayoutText(testFont(), []string{"€"}, math.Vec2{})
	require.Len(t, verts, 4)
	assert.InDelta(t, 16.0/64, verts[3].UV.X, 1e-6)
}

func TestDebugUIRender(t *testing.T) {
	s, b := newState(t)
	r2d, err := renderer.NewRenderer2D(s, nil, nil)
	require.NoError(t, err)
	ui := renderer.NewDebugUI()
	require.NoError(t, ui.AttachFont(r2d, testFont(), image.NewRGBA(image.Rect(0, 0, 64, 64))))

	rendering := renderer.NewRendering(s, clearColor)
	require.NoError(t, rendering.StartRender())
	ui.Text("AB")
	require.NoError(t, rendering.WithFrame(ui.Render))
	require.NoError(t, rendering.CompleteRender())

	assert.Empty(t, ui.Lines())
	assert.Equal(t, []string{"pipeline text"}, b.FakeDevice.FakeQueue.CommandsContaining("pipeline"))
	assert.Equal(t, []string{"drawindexed 12 1 0 0 0"}, b.FakeDevice.FakeQueue.CommandsContaining("drawindexed"))
}
