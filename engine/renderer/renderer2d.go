package renderer

import (
	_ "embed"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/math"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

//go:embed shaders/text.wgsl
var textShaderSource string

// Max glyph quads per DrawText call, bounded by u16 indices.
const maxTextQuads = 65536 / 4

var quadVertices = []Vertex2D{
	{Position: math.Vec2{X: -0.5, Y: -0.5}, UV: math.Vec2{X: 0, Y: 1}},
	{Position: math.Vec2{X: 0.5, Y: -0.5}, UV: math.Vec2{X: 1, Y: 1}},
	{Position: math.Vec2{X: 0.5, Y: 0.5}, UV: math.Vec2{X: 1, Y: 0}},
	{Position: math.Vec2{X: -0.5, Y: 0.5}, UV: math.Vec2{X: 0, Y: 0}},
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// Renderer2D draws textured sprites as instanced unit quads and screen text
// as glyph quads. Texture bind groups go in slot 0, the camera in slot 1.
type Renderer2D struct {
	state *State

	textureLayout BindGroupLayout
	cameraLayout  BindGroupLayout

	spritePipeline PipelineKey
	textPipeline   PipelineKey

	quadVertexBuffer Buffer
	quadIndexBuffer  Buffer

	instanceBuffer Buffer
	instanceCap    uint32
	instanceUsed   uint32

	// buffers replaced mid frame, released at the start of the next frame
	retired []Buffer
}

// NewRenderer2D builds the sprite and text pipelines. A nil shader selects
// the built-in one.
func NewRenderer2D(state *State, spriteVertex, spriteFragment *Shader) (*Renderer2D, error) {
	if spriteVertex == nil {
		spriteVertex = NewWGSLShader("sprite.wgsl", ShaderStageVertex, spriteShaderSource)
	}
	if spriteFragment == nil {
		spriteFragment = NewWGSLShader("sprite.wgsl", ShaderStageFragment, spriteShaderSource)
	}

	r := &Renderer2D{state: state}
	var err error
	if r.textureLayout, err = state.CreateBindGroupLayout(TextureBinding{}, "texture-layout"); err != nil {
		return nil, err
	}
	if r.cameraLayout, err = state.CreateBindGroupLayout(UniformBinding{Visibility: ShaderStageVertex}, "camera-layout"); err != nil {
		return nil, err
	}

	r.spritePipeline, err = state.AddPipeline(PipelineDescriptor{
		Label:            "sprites",
		Vertex:           spriteVertex,
		Fragment:         spriteFragment,
		BindGroupLayouts: []BindGroupLayout{r.textureLayout, r.cameraLayout},
		VertexLayouts:    []VertexLayout{Vertex2DLayout, InstanceLayout},
		Blend:            &AlphaBlending,
	})
	if err != nil {
		return nil, err
	}
	r.textPipeline, err = state.AddPipeline(PipelineDescriptor{
		Label:            "text",
		Vertex:           NewWGSLShader("text.wgsl", ShaderStageVertex, textShaderSource),
		Fragment:         NewWGSLShader("text.wgsl", ShaderStageFragment, textShaderSource),
		BindGroupLayouts: []BindGroupLayout{r.textureLayout, r.cameraLayout},
		VertexLayouts:    []VertexLayout{Vertex2DLayout},
		Blend:            &AlphaBlending,
	})
	if err != nil {
		return nil, err
	}

	if r.quadVertexBuffer, err = state.CreateVertexBuffer("quad-vertices", Vertex2DBytes(quadVertices)); err != nil {
		return nil, err
	}
	if r.quadIndexBuffer, err = state.CreateIndexBuffer("quad-indices", Uint16Bytes(quadIndices)); err != nil {
		return nil, err
	}
	if err := r.growInstances(64); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer2D) TextureLayout() BindGroupLayout { return r.textureLayout }

// CameraLayout is the layout camera uniform bind groups must be created with.
func (r *Renderer2D) CameraLayout() BindGroupLayout { return r.cameraLayout }

// CreateTextureBindGroup decodes an image, uploads it and binds it for
// DrawSprites.
func (r *Renderer2D) CreateTextureBindGroup(data []byte, label string) (BindGroupKey, error) {
	tex, err := r.state.AddTextureFromBytes(data, label)
	if err != nil {
		return BindGroupKey{}, err
	}
	return r.state.AddTextureBindGroup(r.textureLayout, tex, label)
}

func (r *Renderer2D) growInstances(capacity uint32) error {
	buf, err := r.state.CreateVertexBuffer("sprite-instances", make([]byte, capacity*64))
	if err != nil {
		return err
	}
	if r.instanceBuffer != nil {
		r.retired = append(r.retired, r.instanceBuffer)
	}
	r.instanceBuffer = buf
	r.instanceCap = capacity
	r.instanceUsed = 0
	return nil
}

// DrawSprites draws one instanced quad per instance with the given texture
// and camera bind groups. Several calls per frame are allowed.
func (r *Renderer2D) DrawSprites(frt *FrameRenderTarget, camera, texture BindGroupKey, instances []Instance) error {
	if len(instances) == 0 {
		return nil
	}
	n := uint32(len(instances))
	if r.instanceUsed+n > r.instanceCap {
		capacity := r.instanceCap * 2
		for capacity < n {
			capacity *= 2
		}
		if err := r.growInstances(capacity); err != nil {
			return err
		}
	}
	first := r.instanceUsed
	if err := r.state.WriteBuffer(r.instanceBuffer, uint64(first)*64, InstanceBytes(instances)); err != nil {
		return err
	}
	r.instanceUsed += n

	pass := r.state.BeginPass(frt, "sprites")
	if err := pass.SetPipeline(r.spritePipeline); err != nil {
		pass.End()
		return err
	}
	if err := pass.SetBindGroup(0, texture, nil); err != nil {
		pass.End()
		return err
	}
	if err := pass.SetBindGroup(1, camera, nil); err != nil {
		pass.End()
		return err
	}
	pass.SetVertexBuffer(0, r.quadVertexBuffer)
	pass.SetVertexBuffer(1, r.instanceBuffer)
	pass.SetIndexBuffer(r.quadIndexBuffer, IndexFormatUint16)
	pass.DrawIndexed(Range{0, uint32(len(quadIndices))}, 0, Range{first, first + n})
	return pass.End()
}

// DrawText draws glyph quads, four vertices each, as laid out by the debug
// overlay. The buffers live for this call only.
func (r *Renderer2D) DrawText(frt *FrameRenderTarget, camera, atlas BindGroupKey, vertices []Vertex2D) error {
	quads := len(vertices) / 4
	if quads == 0 {
		return nil
	}
	if quads > maxTextQuads {
		core.LogWarn("text of %d glyphs truncated to %d", quads, maxTextQuads)
		quads = maxTextQuads
	}
	indices := make([]uint16, 0, quads*6)
	for q := 0; q < quads; q++ {
		base := uint16(q * 4)
		for _, i := range quadIndices {
			indices = append(indices, base+i)
		}
	}

	vb, err := r.state.CreateVertexBuffer("text-vertices", Vertex2DBytes(vertices[:quads*4]))
	if err != nil {
		return err
	}
	ib, err := r.state.CreateIndexBuffer("text-indices", Uint16Bytes(indices))
	if err != nil {
		r.state.ReleaseBuffer(vb)
		return err
	}
	r.retired = append(r.retired, vb, ib)

	pass := r.state.BeginPass(frt, "text")
	if err := pass.SetPipeline(r.textPipeline); err != nil {
		pass.End()
		return err
	}
	if err := pass.SetBindGroup(0, atlas, nil); err != nil {
		pass.End()
		return err
	}
	if err := pass.SetBindGroup(1, camera, nil); err != nil {
		pass.End()
		return err
	}
	pass.SetVertexBuffer(0, vb)
	pass.SetIndexBuffer(ib, IndexFormatUint16)
	pass.DrawIndexed(Range{0, uint32(len(indices))}, 0, Range{0, 1})
	return pass.End()
}

func (r *Renderer2D) ReceivesEvent(kind core.EventKind) bool {
	return kind == core.EventPreRender
}

// ReceiveEvent starts a new frame: instance space is reused and buffers
// retired during the previous frame, which has been submitted, are released.
func (r *Renderer2D) ReceiveEvent(core.Event) {
	r.instanceUsed = 0
	for _, b := range r.retired {
		r.state.ReleaseBuffer(b)
	}
	r.retired = r.retired[:0]
}
