package renderer

import (
	"fmt"
	"image"

	"github.com/matms/mat-engine/engine/math"
	"github.com/matms/mat-engine/engine/resources"
)

// DebugSink accepts debug overlay closures. Code that wants to draw debug
// output is handed a sink explicitly.
type DebugSink interface {
	Debug(fn func(ui *DebugUI))
}

// DebugQueue collects the debug closures of one frame. The engine runs and
// empties it once per frame after the application render callback.
type DebugQueue struct {
	fns []func(ui *DebugUI)
}

func NewDebugQueue() *DebugQueue {
	return &DebugQueue{}
}

func (q *DebugQueue) Debug(fn func(ui *DebugUI)) {
	q.fns = append(q.fns, fn)
}

func (q *DebugQueue) Len() int {
	return len(q.fns)
}

// Run calls the queued closures in order against ui and empties the queue.
func (q *DebugQueue) Run(ui *DebugUI) {
	fns := q.fns
	q.fns = nil
	for _, fn := range fns {
		fn(ui)
	}
}

// DebugUI is a text overlay drawn in screen pixels from a bitmap font.
// Without a font it only collects lines.
type DebugUI struct {
	Origin math.Vec2

	lines []string

	font      *resources.FontData
	renderer  *Renderer2D
	atlas     BindGroupKey
	camera    BindGroupKey
	cameraBuf Buffer
	camW      uint32
	camH      uint32
}

func NewDebugUI() *DebugUI {
	return &DebugUI{Origin: math.Vec2{X: 8, Y: 8}}
}

// Text adds one line to the overlay of the current frame.
func (ui *DebugUI) Text(format string, args ...interface{}) {
	ui.lines = append(ui.lines, fmt.Sprintf(format, args...))
}

func (ui *DebugUI) Lines() []string {
	return ui.lines
}

func (ui *DebugUI) Reset() {
	ui.lines = ui.lines[:0]
}

// AttachFont uploads the font atlas so the overlay can be drawn with r.
func (ui *DebugUI) AttachFont(r *Renderer2D, font *resources.FontData, atlas *image.RGBA) error {
	s := r.state
	tex, err := s.AddTextureFromImage(atlas, "debug-font-"+font.Face)
	if err != nil {
		return err
	}
	atlasBG, err := s.AddTextureBindGroup(r.TextureLayout(), tex, "")
	if err != nil {
		return err
	}
	buf, err := s.CreateUniformBuffer("debug-camera", 64)
	if err != nil {
		return err
	}
	camBG, err := s.AddBindGroup(r.CameraLayout(), UniformBinding{Buffer: buf, Visibility: ShaderStageVertex}, "debug-camera")
	if err != nil {
		return err
	}
	ui.font = font
	ui.renderer = r
	ui.atlas = atlasBG
	ui.camera = camBG
	ui.cameraBuf = buf
	ui.camW, ui.camH = 0, 0
	return nil
}

// Render draws the collected lines into frt and clears them.
func (ui *DebugUI) Render(frt *FrameRenderTarget) error {
	defer ui.Reset()
	if ui.renderer == nil || len(ui.lines) == 0 {
		return nil
	}
	w, h := frt.Size()
	if w != ui.camW || h != ui.camH {
		proj := math.NewMat4Orthographic(0, float32(w), float32(h), 0, -1, 1)
		if err := ui.renderer.state.WriteBuffer(ui.cameraBuf, 0, proj.Bytes()); err != nil {
			return err
		}
		ui.camW, ui.camH = w, h
	}
	verts := LayoutText(ui.font, ui.lines, ui.Origin)
	return ui.renderer.DrawText(frt, ui.camera, ui.atlas, verts)
}

// LayoutText lays out lines in screen pixels, y growing downwards, four
// vertices per visible glyph. Unknown codepoints fall back to '?'.
func LayoutText(font *resources.FontData, lines []string, origin math.Vec2) []Vertex2D {
	var verts []Vertex2D
	aw, ah := float32(font.AtlasSizeX), float32(font.AtlasSizeY)
	for li, line := range lines {
		x := origin.X
		y := origin.Y + float32(li)*float32(font.LineHeight)
		var prev rune
		for _, c := range line {
			if c == '\t' {
				if sp, ok := font.Glyphs[' ']; ok {
					x += 4 * float32(sp.XAdvance)
				}
				prev = 0
				continue
			}
			g, ok := font.Glyphs[c]
			if !ok {
				if g, ok = font.Glyphs['?']; !ok {
					continue
				}
			}
			if prev != 0 {
				x += float32(font.Kerning(prev, c))
			}
			prev = c
			if g.Width > 0 && g.Height > 0 {
				x0 := x + float32(g.XOffset)
				y0 := y + float32(g.YOffset)
				x1 := x0 + float32(g.Width)
				y1 := y0 + float32(g.Height)
				u0, v0 := float32(g.X)/aw, float32(g.Y)/ah
				u1, v1 := float32(g.X+g.Width)/aw, float32(g.Y+g.Height)/ah
				verts = append(verts,
					Vertex2D{Position: math.Vec2{X: x0, Y: y1}, UV: math.Vec2{X: u0, Y: v1}},
					Vertex2D{Position: math.Vec2{X: x1, Y: y1}, UV: math.Vec2{X: u1, Y: v1}},
					Vertex2D{Position: math.Vec2{X: x1, Y: y0}, UV: math.Vec2{X: u1, Y: v0}},
					Vertex2D{Position: math.Vec2{X: x0, Y: y0}, UV: math.Vec2{X: u0, Y: v0}},
				)
			}
			x += float32(g.XAdvance)
		}
	}
	return verts
}
