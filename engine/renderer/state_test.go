package renderer_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/renderer/gputest"
)

func init() {
	core.SetLogOutput(&bytes.Buffer{})
}

func newState(t *testing.T) (*renderer.State, *gputest.Backend) {
	t.Helper()
	b := gputest.NewBackend()
	s, err := renderer.NewStateFromBackend(b, 800, 600, renderer.StateOptions{})
	require.NoError(t, err)
	return s, b
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testShaders() (*renderer.Shader, *renderer.Shader) {
	src := "@vertex fn vs_main() {} @fragment fn fs_main() {}"
	return renderer.NewWGSLShader("test.wgsl", renderer.ShaderStageVertex, src),
		renderer.NewWGSLShader("test.wgsl", renderer.ShaderStageFragment, src)
}

func TestNewStateConfiguresSurface(t *testing.T) {
	_, b := newState(t)

	require.Len(t, b.FakeSurface.Configs, 1)
	cfg := b.FakeSurface.Current()
	assert.Equal(t, uint32(800), cfg.Width)
	assert.Equal(t, uint32(600), cfg.Height)
	assert.Equal(t, renderer.TextureFormatBGRA8UnormSrgb, cfg.Format)
	assert.Equal(t, renderer.PresentModeFifo, cfg.PresentMode)
}

func TestNewStateRejectsZeroSize(t *testing.T) {
	b := gputest.NewBackend()
	_, err := renderer.NewState(b.FakeDevice, b.FakeSurface, 0, 600, renderer.StateOptions{})
	assert.ErrorIs(t, err, core.ErrZeroSizeSurface)
	assert.Empty(t, b.FakeSurface.Configs)
}

func TestResize(t *testing.T) {
	s, b := newState(t)

	require.NoError(t, s.Resize(1024, 768))
	w, h := s.Size()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
	assert.Equal(t, uint32(1024), b.FakeSurface.Current().Width)
}

func TestResizeZeroIsNotForwarded(t *testing.T) {
	s, b := newState(t)

	assert.ErrorIs(t, s.Resize(0, 600), core.ErrZeroSizeSurface)
	assert.ErrorIs(t, s.Resize(800, 0), core.ErrZeroSizeSurface)

	assert.Len(t, b.FakeSurface.Configs, 1)
	w, h := s.Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
}

func TestSetPresentMode(t *testing.T) {
	s, b := newState(t)

	require.NoError(t, s.SetPresentMode(renderer.PresentModeFifo))
	assert.Len(t, b.FakeSurface.Configs, 1)

	require.NoError(t, s.SetPresentMode(renderer.PresentModeImmediate))
	assert.Equal(t, renderer.PresentModeImmediate, b.FakeSurface.Current().PresentMode)
}

func TestAddPipeline(t *testing.T) {
	s, b := newState(t)
	layout, err := s.CreateBindGroupLayout(renderer.TextureBinding{}, "tex")
	require.NoError(t, err)

	vs, fs := testShaders()
	key, err := s.AddPipeline(renderer.PipelineDescriptor{
		Label:            "p",
		Vertex:           vs,
		Fragment:         fs,
		BindGroupLayouts: []renderer.BindGroupLayout{layout},
		VertexLayouts:    []renderer.VertexLayout{renderer.Vertex2DLayout, renderer.InstanceLayout},
		Blend:            &renderer.AlphaBlending,
	})
	require.NoError(t, err)

	p, ok := s.Pipeline(key)
	require.True(t, ok)
	assert.Equal(t, "p", p.Label)

	require.Len(t, b.FakeDevice.Pipelines, 1)
	desc := b.FakeDevice.Pipelines[0].Desc
	assert.Equal(t, "vs_main", desc.VertexEntry)
	assert.Equal(t, "fs_main", desc.FragmentEntry)
	assert.Equal(t, renderer.TextureFormatBGRA8UnormSrgb, desc.TargetFormat)
	require.Len(t, desc.Buffers, 2)
	assert.Equal(t, uint64(16), desc.Buffers[0].ArrayStride)
	assert.Equal(t, renderer.VertexStepModeInstance, desc.Buffers[1].StepMode)
}

func TestAddPipelineMissingLayout(t *testing.T) {
	s, b := newState(t)
	vs, fs := testShaders()

	_, err := s.AddPipeline(renderer.PipelineDescriptor{
		Vertex:           vs,
		Fragment:         fs,
		BindGroupLayouts: []renderer.BindGroupLayout{nil},
	})

	var buildErr *renderer.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.ErrorIs(t, err, core.ErrMissingLayout)
	assert.Empty(t, b.FakeDevice.Pipelines)
}

func TestAddPipelineMalformedShader(t *testing.T) {
	s, _ := newState(t)
	_, fs := testShaders()

	_, err := s.AddPipeline(renderer.PipelineDescriptor{
		Vertex:   renderer.NewWGSLShader("empty.wgsl", renderer.ShaderStageVertex, "  "),
		Fragment: fs,
	})
	assert.ErrorIs(t, err, core.ErrShaderCompilation)

	_, err = s.AddPipeline(renderer.PipelineDescriptor{
		Vertex:   renderer.NewSPIRVShader("bad.spv", renderer.ShaderStageVertex, []byte{1, 2, 3}),
		Fragment: fs,
	})
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
}

func TestAddPipelineDeviceRejectsShader(t *testing.T) {
	s, b := newState(t)
	b.FakeDevice.ShaderErr = assert.AnError
	vs, fs := testShaders()

	_, err := s.AddPipeline(renderer.PipelineDescriptor{Vertex: vs, Fragment: fs})
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
}

func TestAddPipelineWithoutShaderPanics(t *testing.T) {
	s, _ := newState(t)
	vs, _ := testShaders()

	assert.Panics(t, func() {
		_, _ = s.AddPipeline(renderer.PipelineDescriptor{Vertex: vs})
	})
}

func TestAddTextureFromBytes(t *testing.T) {
	s, b := newState(t)
	submitted := len(b.FakeDevice.FakeQueue.Submitted)

	key, err := s.AddTextureFromBytes(pngBytes(t, 4, 2), "")
	require.NoError(t, err)

	tex, ok := s.Texture(key)
	require.True(t, ok)
	assert.Equal(t, uint32(4), tex.Width())
	assert.Equal(t, uint32(2), tex.Height())
	assert.Contains(t, tex.Label, "texture-")

	fake := b.FakeDevice.Textures[0]
	assert.Len(t, fake.Data, 4*2*4)
	// the upload is submitted inside the call
	assert.Len(t, b.FakeDevice.FakeQueue.Submitted, submitted+1)

	require.Len(t, b.FakeDevice.Samplers, 1)
	sampler := b.FakeDevice.Samplers[0]
	assert.Equal(t, renderer.AddressModeClampToEdge, sampler.AddressMode)
	assert.Equal(t, renderer.FilterModeLinear, sampler.MagFilter)
	assert.Equal(t, renderer.FilterModeNearest, sampler.MinFilter)
}

func TestAddTextureFromBytesUnsupported(t *testing.T) {
	s, b := newState(t)

	_, err := s.AddTextureFromBytes([]byte("not an image"), "junk")
	assert.ErrorIs(t, err, core.ErrUnsupportedImage)
	assert.Empty(t, b.FakeDevice.Textures)
}

func TestAddTextureFromSubImage(t *testing.T) {
	s, b := newState(t)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	sub := img.SubImage(image.Rect(2, 2, 5, 4)).(*image.RGBA)

	_, err := s.AddTextureFromImage(sub, "sub")
	require.NoError(t, err)
	assert.Len(t, b.FakeDevice.Textures[0].Data, 3*2*4)
}

func TestBindGroups(t *testing.T) {
	s, b := newState(t)
	texKey, err := s.AddTextureFromBytes(pngBytes(t, 2, 2), "tex")
	require.NoError(t, err)
	layout, err := s.CreateBindGroupLayout(renderer.TextureBinding{}, "")
	require.NoError(t, err)

	bgKey, err := s.AddTextureBindGroup(layout, texKey, "")
	require.NoError(t, err)
	bg, ok := s.BindGroup(bgKey)
	require.True(t, ok)
	assert.Equal(t, "tex", bg.Label)
	require.Len(t, b.FakeDevice.BindGroups, 1)
	assert.Len(t, b.FakeDevice.BindGroups[0].Entries, 2)

	_, err = s.AddBindGroup(nil, renderer.TextureBinding{}, "no-layout")
	assert.ErrorIs(t, err, core.ErrMissingLayout)

	require.True(t, s.RemoveTexture(texKey))
	_, err = s.AddTextureBindGroup(layout, texKey, "")
	assert.ErrorIs(t, err, core.ErrTextureNotFound)
}

func TestBuffers(t *testing.T) {
	s, b := newState(t)

	vb, err := s.CreateVertexBuffer("v", []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	// padded to a multiple of four
	assert.Equal(t, uint64(8), vb.Size())
	assert.Equal(t, renderer.BufferUsageVertex|renderer.BufferUsageCopyDst, b.FakeDevice.Buffers[0].Desc.Usage)

	ub, err := s.CreateUniformBuffer("u", 64)
	require.NoError(t, err)
	submitted := len(b.FakeDevice.FakeQueue.Submitted)
	require.NoError(t, s.WriteUniform(ub, make([]byte, 64)))
	assert.Len(t, b.FakeDevice.FakeQueue.Submitted, submitted+1)

	assert.Panics(t, func() { _ = s.WriteBuffer(ub, 32, make([]byte, 64)) })

	s.ReleaseBuffer(vb)
	assert.Equal(t, 1, b.FakeDevice.Buffers[0].Released)
	assert.Panics(t, func() { s.ReleaseBuffer(vb) })
}

func TestReleaseReleasesEverything(t *testing.T) {
	s, b := newState(t)
	texKey, err := s.AddTextureFromBytes(pngBytes(t, 2, 2), "tex")
	require.NoError(t, err)
	layout, err := s.CreateBindGroupLayout(renderer.TextureBinding{}, "")
	require.NoError(t, err)
	bgKey, err := s.AddTextureBindGroup(layout, texKey, "")
	require.NoError(t, err)

	s.Release()

	assert.Equal(t, 1, b.FakeDevice.Textures[0].Released)
	assert.Equal(t, 1, b.FakeDevice.BindGroups[0].Released)
	assert.Equal(t, 1, b.FakeDevice.Layouts[0].Released)
	assert.Equal(t, 1, b.FakeSurface.Released)
	assert.Equal(t, 1, b.FakeDevice.Released)
	_, ok := s.BindGroup(bgKey)
	assert.False(t, ok)
}

const glslVertex = `#version 450
layout(location = 0) in vec2 position;
void main() { gl_Position = vec4(position, 0.0, 1.0); }
`

const glslFragment = `#version 450
layout(location = 0) out vec4 f_color;
void main() { f_color = vec4(1.0); }
`

// glslShaders writes a GLSL vertex/fragment pair and loads it the way the
// engine loads shader files.
func glslShaders(t *testing.T) (*renderer.Shader, *renderer.Shader) {
	t.Helper()
	dir := t.TempDir()
	vertPath := filepath.Join(dir, "sprite.vert")
	fragPath := filepath.Join(dir, "sprite.frag")
	require.NoError(t, os.WriteFile(vertPath, []byte(glslVertex), 0o644))
	require.NoError(t, os.WriteFile(fragPath, []byte(glslFragment), 0o644))

	vs, err := renderer.LoadShader(vertPath, renderer.ShaderStageVertex)
	require.NoError(t, err)
	fs, err := renderer.LoadShader(fragPath, renderer.ShaderStageFragment)
	require.NoError(t, err)
	return vs, fs
}

func TestAddPipelineCompilesGLSL(t *testing.T) {
	b := gputest.NewBackend()
	compiler := &gputest.Compiler{Code: []byte{0x03, 0x02, 0x23, 0x07}}
	s, err := renderer.NewStateFromBackend(b, 800, 600, renderer.StateOptions{
		ShaderCompiler: compiler,
		ValidateWGSL:   true,
	})
	require.NoError(t, err)
	vs, fs := glslShaders(t)

	key, err := s.AddPipeline(renderer.PipelineDescriptor{Label: "glsl", Vertex: vs, Fragment: fs})
	require.NoError(t, err)
	_, ok := s.Pipeline(key)
	assert.True(t, ok)

	assert.Equal(t, []string{"sprite.vert", "sprite.frag"}, compiler.Compiled)
	require.Len(t, b.FakeDevice.Shaders, 2)
	for _, desc := range b.FakeDevice.Shaders {
		assert.Equal(t, compiler.Code, desc.SPIRV)
		assert.Empty(t, desc.WGSL)
	}
	require.Len(t, b.FakeDevice.Pipelines, 1)
	assert.Equal(t, "main", b.FakeDevice.Pipelines[0].Desc.VertexEntry)
	assert.Equal(t, "main", b.FakeDevice.Pipelines[0].Desc.FragmentEntry)
}

func TestAddPipelineGLSLWithoutCompiler(t *testing.T) {
	s, b := newState(t)
	vs, fs := glslShaders(t)

	_, err := s.AddPipeline(renderer.PipelineDescriptor{Vertex: vs, Fragment: fs})

	var buildErr *renderer.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
	assert.Contains(t, err.Error(), "no GLSL compiler configured")
	assert.Empty(t, b.FakeDevice.Shaders)
}

func TestAddPipelineGLSLCompileFailure(t *testing.T) {
	b := gputest.NewBackend()
	compiler := &gputest.Compiler{
		Err: fmt.Errorf("%w: sprite.vert: 2: 'position' : undeclared identifier", core.ErrShaderCompilation),
	}
	s, err := renderer.NewStateFromBackend(b, 800, 600, renderer.StateOptions{ShaderCompiler: compiler})
	require.NoError(t, err)
	vs, fs := glslShaders(t)

	_, err = s.AddPipeline(renderer.PipelineDescriptor{Vertex: vs, Fragment: fs})
	assert.ErrorIs(t, err, core.ErrShaderCompilation)
	assert.Contains(t, err.Error(), "undeclared identifier")
	assert.Empty(t, b.FakeDevice.Pipelines)
}
