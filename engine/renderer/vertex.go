package renderer

import (
	"encoding/binary"
	m "math"

	"github.com/matms/mat-engine/engine/math"
)

// VertexLayout is the closed set of vertex buffer formats the renderers use.
type VertexLayout uint8

const (
	// Vertex2DLayout is position xy + uv, locations 0 and 1.
	Vertex2DLayout VertexLayout = iota
	// InstanceLayout is a per-instance model matrix in locations 2 to 5.
	InstanceLayout
	// ColoredVertexLayout is position xyz + rgb color.
	ColoredVertexLayout
	// TexturedVertexLayout is position xyz + uv.
	TexturedVertexLayout
)

func (l VertexLayout) String() string {
	switch l {
	case Vertex2DLayout:
		return "Vertex2D"
	case InstanceLayout:
		return "Instance"
	case ColoredVertexLayout:
		return "ColoredVertex"
	case TexturedVertexLayout:
		return "TexturedVertex"
	}
	return "VertexLayout(?)"
}

func attributes(firstLocation uint32, formats ...VertexFormat) ([]VertexAttribute, uint64) {
	attrs := make([]VertexAttribute, len(formats))
	var offset uint64
	for i, f := range formats {
		attrs[i] = VertexAttribute{Format: f, Offset: offset, ShaderLocation: firstLocation + uint32(i)}
		offset += f.Size()
	}
	return attrs, offset
}

// BufferLayout returns stride, step mode and attributes of the layout.
func (l VertexLayout) BufferLayout() VertexBufferLayout {
	var (
		attrs  []VertexAttribute
		stride uint64
		step   = VertexStepModeVertex
	)
	switch l {
	case Vertex2DLayout:
		attrs, stride = attributes(0, VertexFormatFloat32x2, VertexFormatFloat32x2)
	case InstanceLayout:
		attrs, stride = attributes(2, VertexFormatFloat32x4, VertexFormatFloat32x4, VertexFormatFloat32x4, VertexFormatFloat32x4)
		step = VertexStepModeInstance
	case ColoredVertexLayout:
		attrs, stride = attributes(0, VertexFormatFloat32x3, VertexFormatFloat32x3)
	case TexturedVertexLayout:
		attrs, stride = attributes(0, VertexFormatFloat32x3, VertexFormatFloat32x2)
	default:
		panic("renderer: unknown vertex layout")
	}
	return VertexBufferLayout{ArrayStride: stride, StepMode: step, Attributes: attrs}
}

func appendFloats(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, m.Float32bits(f))
	}
	return b
}

type Vertex2D struct {
	Position math.Vec2
	UV       math.Vec2
}

type ColoredVertex struct {
	Position math.Vec3
	Color    math.Vec3
}

type TexturedVertex struct {
	Position math.Vec3
	UV       math.Vec2
}

// Instance carries the model matrix of one sprite.
type Instance struct {
	Position math.Vec2
	Scale    math.Vec2
}

// Model returns translate(position) × scale(scale).
func (i Instance) Model() math.Mat4 {
	t := math.NewMat4Translation(math.NewVec3(i.Position.X, i.Position.Y, 0))
	return t.Mul(math.NewMat4Scale(math.NewVec3(i.Scale.X, i.Scale.Y, 1)))
}

func Vertex2DBytes(vs []Vertex2D) []byte {
	b := make([]byte, 0, len(vs)*16)
	for _, v := range vs {
		b = appendFloats(b, v.Position.X, v.Position.Y, v.UV.X, v.UV.Y)
	}
	return b
}

func ColoredVertexBytes(vs []ColoredVertex) []byte {
	b := make([]byte, 0, len(vs)*24)
	for _, v := range vs {
		b = appendFloats(b, v.Position.X, v.Position.Y, v.Position.Z, v.Color.X, v.Color.Y, v.Color.Z)
	}
	return b
}

func TexturedVertexBytes(vs []TexturedVertex) []byte {
	b := make([]byte, 0, len(vs)*20)
	for _, v := range vs {
		b = appendFloats(b, v.Position.X, v.Position.Y, v.Position.Z, v.UV.X, v.UV.Y)
	}
	return b
}

func InstanceBytes(is []Instance) []byte {
	b := make([]byte, 0, len(is)*64)
	for _, i := range is {
		model := i.Model()
		b = append(b, model.Bytes()...)
	}
	return b
}

func Uint16Bytes(idx []uint16) []byte {
	b := make([]byte, 0, len(idx)*2)
	for _, i := range idx {
		b = binary.LittleEndian.AppendUint16(b, i)
	}
	return b
}
