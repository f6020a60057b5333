package math

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMat4MulOrder(t *testing.T) {
	tr := NewMat4Translation(NewVec3(10, 0, 0))
	sc := NewMat4Scale(NewVec3(2, 2, 1))

	// scale after translation
	p := sc.Mul(tr).TransformVec4(NewVec4(1, 1, 0, 1))
	assert.True(t, p.Compare(NewVec4(22, 2, 0, 1), 1e-6), "%v", p)

	// translation after scale
	p = tr.Mul(sc).TransformVec4(NewVec4(1, 1, 0, 1))
	assert.True(t, p.Compare(NewVec4(12, 2, 0, 1), 1e-6), "%v", p)
}

func TestMat4Orthographic(t *testing.T) {
	o := NewMat4Orthographic(0, 800, 0, 600, -1, 1)

	p := o.TransformVec4(NewVec4(0, 0, 0, 1))
	assert.True(t, p.Compare(NewVec4(-1, -1, 0, 1), 1e-6), "%v", p)

	p = o.TransformVec4(NewVec4(800, 600, 0, 1))
	assert.True(t, p.Compare(NewVec4(1, 1, 0, 1), 1e-6), "%v", p)
}

func TestMat4Inverse(t *testing.T) {
	m := NewMat4Scale(NewVec3(2, 4, 1)).Translate(NewVec3(3, -5, 0))
	inv, ok := m.Inverse()
	require.True(t, ok)
	assert.True(t, m.Mul(inv).Compare(NewMat4Identity(), 1e-5))

	_, ok = NewMat4Scale(NewVec3(1, 1, 0)).Inverse()
	assert.False(t, ok)
}

func TestMat4Transposed(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	tr := m.Transposed()
	assert.Equal(t, float32(1), tr.At(3, 0))
	assert.Equal(t, m, tr.Transposed())
}

func TestMat4Bytes(t *testing.T) {
	b := NewMat4Identity().Bytes()
	require.Len(t, b, 64)
	assert.Equal(t, uint32(0x3f800000), binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(b[4:8]))
}

func TestClampLerp(t *testing.T) {
	assert.Equal(t, 3, Clamp(7, 0, 3))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, -1.0, Clamp(-4.0, -1, 1))
	assert.Equal(t, float32(5), Lerp(float32(0), 10, 0.5))
}

func TestVec2(t *testing.T) {
	v := NewVec2(3, 4)
	assert.Equal(t, float32(5), v.Length())
	assert.True(t, v.Normalized().Compare(NewVec2(0.6, 0.8), 1e-6))
	assert.Equal(t, Vec2{}, NewVec2Zero().Normalized())
	assert.Equal(t, float32(5), NewVec2Zero().Distance(v))
}
