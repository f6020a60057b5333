package renderer

import (
	"fmt"
	"image"

	"github.com/matms/mat-engine/engine/assets"
	"github.com/matms/mat-engine/engine/containers"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/resources"
)

// Texture is a sampled 2D texture together with its default view and sampler.
type Texture struct {
	Label   string
	Handle  TextureHandle
	View    TextureView
	Sampler Sampler
}

func (t *Texture) Width() uint32  { return t.Handle.Width() }
func (t *Texture) Height() uint32 { return t.Handle.Height() }

// Binding returns the texture as a bind group provider.
func (t *Texture) Binding() TextureBinding {
	return TextureBinding{View: t.View, Sampler: t.Sampler}
}

func (t *Texture) release() {
	t.Sampler.Release()
	t.View.Release()
	t.Handle.Release()
}

type BindGroup struct {
	Label  string
	Layout BindGroupLayout
	Handle BindGroupHandle
}

type Pipeline struct {
	Label  string
	Handle RenderPipelineHandle
}

type (
	TextureKey   = containers.Key[Texture]
	BindGroupKey = containers.Key[BindGroup]
	PipelineKey  = containers.Key[Pipeline]
)

// BuildError is returned when a pipeline cannot be built.
type BuildError struct {
	Pipeline string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building pipeline %s: %s", e.Pipeline, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

type PipelineDescriptor struct {
	Label            string
	Vertex           *Shader
	Fragment         *Shader
	BindGroupLayouts []BindGroupLayout
	VertexLayouts    []VertexLayout
	// Blend is nil for opaque output.
	Blend *BlendState
}

type StateOptions struct {
	PresentMode PresentMode
	// ShaderCompiler compiles GLSL shaders. Without one GLSL pipelines fail.
	ShaderCompiler ShaderCompiler
	// ValidateWGSL runs WGSL through naga before the device sees it, so
	// syntax errors come back as ErrShaderCompilation with a diagnostic.
	ValidateWGSL bool
}

// State owns the device, its queue and the presentation surface, plus the
// arenas every GPU object created through it lives in.
type State struct {
	device  Device
	queue   Queue
	surface Surface
	config  SurfaceConfiguration

	shaderCompiler ShaderCompiler
	wgslValidator  ShaderCompiler

	textures   *containers.Arena[Texture]
	bindGroups *containers.Arena[BindGroup]
	pipelines  *containers.Arena[Pipeline]

	layouts []BindGroupLayout
	buffers []Buffer
}

// NewState configures surface at width x height and takes ownership of
// device and surface.
func NewState(device Device, surface Surface, width, height uint32, opts StateOptions) (*State, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: initial size %dx%d", core.ErrZeroSizeSurface, width, height)
	}
	s := &State{
		device:         device,
		queue:          device.Queue(),
		surface:        surface,
		shaderCompiler: opts.ShaderCompiler,
		textures:       containers.NewArena[Texture](),
		bindGroups:     containers.NewArena[BindGroup](),
		pipelines:      containers.NewArena[Pipeline](),
		config: SurfaceConfiguration{
			Format:      surface.PreferredFormat(),
			Width:       width,
			Height:      height,
			PresentMode: opts.PresentMode,
		},
	}
	if opts.ValidateWGSL {
		s.wgslValidator = NagaCompiler{}
	}
	if err := s.surface.Configure(s.config); err != nil {
		return nil, fmt.Errorf("configuring surface: %w", err)
	}
	core.LogInfo("surface configured: %dx%d format %d present mode %d", width, height, s.config.Format, s.config.PresentMode)
	return s, nil
}

func (s *State) Device() Device   { return s.device }
func (s *State) Queue() Queue     { return s.queue }
func (s *State) Surface() Surface { return s.surface }

func (s *State) Size() (uint32, uint32) {
	return s.config.Width, s.config.Height
}

func (s *State) Format() TextureFormat {
	return s.config.Format
}

func (s *State) PresentMode() PresentMode {
	return s.config.PresentMode
}

// Resize reconfigures the surface. Zero dimensions are rejected and never
// reach the surface.
func (s *State) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: resize to %dx%d", core.ErrZeroSizeSurface, width, height)
	}
	s.config.Width = width
	s.config.Height = height
	return s.Reconfigure()
}

func (s *State) SetPresentMode(mode PresentMode) error {
	if mode == s.config.PresentMode {
		return nil
	}
	s.config.PresentMode = mode
	return s.Reconfigure()
}

// Reconfigure applies the current configuration to the surface again, which
// is how a lost or outdated surface is recovered.
func (s *State) Reconfigure() error {
	if err := s.surface.Configure(s.config); err != nil {
		return fmt.Errorf("configuring surface: %w", err)
	}
	return nil
}

func (s *State) shaderModule(sh *Shader) (ShaderModule, error) {
	desc, err := compileForDevice(sh, s.shaderCompiler, s.wgslValidator)
	if err != nil {
		return nil, err
	}
	mod, err := s.device.CreateShaderModule(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", core.ErrShaderCompilation, sh.Name, err)
	}
	return mod, nil
}

// AddPipeline builds a render pipeline targeting the surface format.
func (s *State) AddPipeline(desc PipelineDescriptor) (PipelineKey, error) {
	if desc.Vertex == nil || desc.Fragment == nil {
		panic("renderer: pipeline descriptor needs both a vertex and a fragment shader")
	}
	label := desc.Label
	if label == "" {
		label = resources.NewLabel("pipeline")
	}
	for i, l := range desc.BindGroupLayouts {
		if l == nil {
			return PipelineKey{}, &BuildError{Pipeline: label, Err: fmt.Errorf("%w: bind group layout %d", core.ErrMissingLayout, i)}
		}
	}

	vs, err := s.shaderModule(desc.Vertex)
	if err != nil {
		return PipelineKey{}, &BuildError{Pipeline: label, Err: err}
	}
	defer vs.Release()
	fs, err := s.shaderModule(desc.Fragment)
	if err != nil {
		return PipelineKey{}, &BuildError{Pipeline: label, Err: err}
	}
	defer fs.Release()

	buffers := make([]VertexBufferLayout, len(desc.VertexLayouts))
	for i, l := range desc.VertexLayouts {
		buffers[i] = l.BufferLayout()
	}

	handle, err := s.device.CreateRenderPipeline(&RenderPipelineDescriptor{
		Label:            label,
		Vertex:           vs,
		VertexEntry:      entryOrDefault(desc.Vertex),
		Fragment:         fs,
		FragmentEntry:    entryOrDefault(desc.Fragment),
		BindGroupLayouts: desc.BindGroupLayouts,
		Buffers:          buffers,
		TargetFormat:     s.config.Format,
		Blend:            desc.Blend,
	})
	if err != nil {
		return PipelineKey{}, &BuildError{Pipeline: label, Err: err}
	}
	core.LogDebug("pipeline %s created", label)
	return s.pipelines.Insert(Pipeline{Label: label, Handle: handle}), nil
}

func entryOrDefault(sh *Shader) string {
	if sh.EntryPoint != "" {
		return sh.EntryPoint
	}
	return defaultEntry(sh.Stage)
}

// AddTextureFromBytes decodes an encoded image and uploads it.
func (s *State) AddTextureFromBytes(data []byte, label string) (TextureKey, error) {
	img, err := assets.DecodeImage(data)
	if err != nil {
		return TextureKey{}, err
	}
	return s.AddTextureFromImage(img, label)
}

// AddTextureFromImage uploads img and submits the copy right away, so the
// texture is usable by the next frame without further calls.
func (s *State) AddTextureFromImage(img *image.RGBA, label string) (TextureKey, error) {
	if label == "" {
		label = resources.NewLabel("texture")
	}
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	if w == 0 || h == 0 {
		return TextureKey{}, fmt.Errorf("%w: %s is empty", core.ErrUnsupportedImage, label)
	}

	tex, err := s.device.CreateTexture(TextureDescriptor{
		Label:  label,
		Width:  w,
		Height: h,
		Format: TextureFormatRGBA8UnormSrgb,
		Usage:  TextureUsageTextureBinding | TextureUsageCopyDst,
	})
	if err != nil {
		return TextureKey{}, fmt.Errorf("creating texture %s: %w", label, err)
	}
	if err := s.queue.WriteTexture(tex, packedPixels(img)); err != nil {
		tex.Release()
		return TextureKey{}, fmt.Errorf("uploading texture %s: %w", label, err)
	}
	if err := s.submitUpload(label); err != nil {
		tex.Release()
		return TextureKey{}, err
	}

	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return TextureKey{}, fmt.Errorf("creating view of %s: %w", label, err)
	}
	sampler, err := s.device.CreateSampler(SamplerDescriptor{
		Label:       label,
		AddressMode: AddressModeClampToEdge,
		MagFilter:   FilterModeLinear,
		MinFilter:   FilterModeNearest,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return TextureKey{}, fmt.Errorf("creating sampler of %s: %w", label, err)
	}
	return s.textures.Insert(Texture{Label: label, Handle: tex, View: view, Sampler: sampler}), nil
}

// packedPixels returns the pixel rows of img without stride padding.
func packedPixels(img *image.RGBA) []byte {
	b := img.Bounds()
	row := b.Dx() * 4
	if img.Stride == row && len(img.Pix) == row*b.Dy() {
		return img.Pix
	}
	pix := make([]byte, 0, row*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		pix = append(pix, img.Pix[off:off+row]...)
	}
	return pix
}

// submitUpload submits an empty one-shot command buffer, which flushes the
// queue writes recorded before it.
func (s *State) submitUpload(label string) error {
	enc, err := s.device.CreateCommandEncoder(label + "-upload")
	if err != nil {
		return fmt.Errorf("creating upload encoder: %w", err)
	}
	defer enc.Release()
	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("finishing upload encoder: %w", err)
	}
	s.queue.Submit(cmd)
	cmd.Release()
	return nil
}

// CreateBindGroupLayout creates the layout described by provider. The state
// owns the layout and releases it on Release.
func (s *State) CreateBindGroupLayout(provider BindGroupProvider, label string) (BindGroupLayout, error) {
	if label == "" {
		label = resources.NewLabel("bind-group-layout")
	}
	layout, err := s.device.CreateBindGroupLayout(label, provider.LayoutEntries())
	if err != nil {
		return nil, fmt.Errorf("creating bind group layout %s: %w", label, err)
	}
	s.layouts = append(s.layouts, layout)
	return layout, nil
}

// AddBindGroup materializes provider against layout.
func (s *State) AddBindGroup(layout BindGroupLayout, provider BindGroupProvider, label string) (BindGroupKey, error) {
	if layout == nil {
		return BindGroupKey{}, fmt.Errorf("%w: bind group %s", core.ErrMissingLayout, label)
	}
	if label == "" {
		label = resources.NewLabel("bind-group")
	}
	bg, err := s.device.CreateBindGroup(label, layout, provider.BindGroupEntries())
	if err != nil {
		return BindGroupKey{}, fmt.Errorf("creating bind group %s: %w", label, err)
	}
	return s.bindGroups.Insert(BindGroup{Label: label, Layout: layout, Handle: bg}), nil
}

func (s *State) AddTextureBindGroup(layout BindGroupLayout, texture TextureKey, label string) (BindGroupKey, error) {
	t, ok := s.textures.Get(texture)
	if !ok {
		return BindGroupKey{}, fmt.Errorf("%w: %s", core.ErrTextureNotFound, texture)
	}
	if label == "" {
		label = t.Label
	}
	return s.AddBindGroup(layout, t.Binding(), label)
}

func (s *State) createBufferInit(label string, data []byte, usage BufferUsage) (Buffer, error) {
	// queue writes must be 4-byte aligned
	if pad := len(data) % 4; pad != 0 {
		data = append(append([]byte(nil), data...), make([]byte, 4-pad)...)
	}
	buf, err := s.createBuffer(label, uint64(len(data)), usage)
	if err != nil {
		return nil, err
	}
	if err := s.queue.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("writing buffer %s: %w", label, err)
	}
	return buf, nil
}

func (s *State) createBuffer(label string, size uint64, usage BufferUsage) (Buffer, error) {
	if label == "" {
		label = resources.NewLabel("buffer")
	}
	buf, err := s.device.CreateBuffer(BufferDescriptor{Label: label, Size: size, Usage: usage | BufferUsageCopyDst})
	if err != nil {
		return nil, fmt.Errorf("creating buffer %s: %w", label, err)
	}
	s.buffers = append(s.buffers, buf)
	return buf, nil
}

func (s *State) CreateVertexBuffer(label string, data []byte) (Buffer, error) {
	return s.createBufferInit(label, data, BufferUsageVertex)
}

func (s *State) CreateIndexBuffer(label string, data []byte) (Buffer, error) {
	return s.createBufferInit(label, data, BufferUsageIndex)
}

// CreateUniformBuffer creates a zeroed uniform buffer of size bytes.
func (s *State) CreateUniformBuffer(label string, size uint64) (Buffer, error) {
	return s.createBuffer(label, size, BufferUsageUniform)
}

// ReleaseBuffer releases a buffer created through the state before Release.
func (s *State) ReleaseBuffer(buf Buffer) {
	for i, b := range s.buffers {
		if b == buf {
			s.buffers = append(s.buffers[:i], s.buffers[i+1:]...)
			buf.Release()
			return
		}
	}
	panic("renderer: ReleaseBuffer called with a buffer the state does not own")
}

// WriteBuffer overwrites buf from offset without submitting.
func (s *State) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	if offset+uint64(len(data)) > buf.Size() {
		panic(fmt.Sprintf("renderer: write of %d bytes at %d overflows buffer of %d", len(data), offset, buf.Size()))
	}
	return s.queue.WriteBuffer(buf, offset, data)
}

// WriteUniform overwrites buf and submits the write immediately.
func (s *State) WriteUniform(buf Buffer, data []byte) error {
	if err := s.WriteBuffer(buf, 0, data); err != nil {
		return err
	}
	return s.submitUpload("uniform")
}

func (s *State) Texture(key TextureKey) (*Texture, bool) {
	return s.textures.Get(key)
}

func (s *State) MustTexture(key TextureKey) *Texture {
	return s.textures.MustGet(key)
}

func (s *State) BindGroup(key BindGroupKey) (*BindGroup, bool) {
	return s.bindGroups.Get(key)
}

func (s *State) Pipeline(key PipelineKey) (*Pipeline, bool) {
	return s.pipelines.Get(key)
}

func (s *State) RemoveTexture(key TextureKey) bool {
	t, ok := s.textures.Remove(key)
	if ok {
		t.release()
	}
	return ok
}

func (s *State) RemoveBindGroup(key BindGroupKey) bool {
	bg, ok := s.bindGroups.Remove(key)
	if ok {
		bg.Handle.Release()
	}
	return ok
}

func (s *State) RemovePipeline(key PipelineKey) bool {
	p, ok := s.pipelines.Remove(key)
	if ok {
		p.Handle.Release()
	}
	return ok
}

// Counts returns the number of live textures, bind groups and pipelines.
func (s *State) Counts() (textures, bindGroups, pipelines int) {
	return s.textures.Len(), s.bindGroups.Len(), s.pipelines.Len()
}

// Release destroys every object created through the state, then the surface
// and the device.
func (s *State) Release() {
	s.pipelines.Each(func(_ PipelineKey, p *Pipeline) bool {
		p.Handle.Release()
		return true
	})
	s.pipelines.Clear()
	s.bindGroups.Each(func(_ BindGroupKey, bg *BindGroup) bool {
		bg.Handle.Release()
		return true
	})
	s.bindGroups.Clear()
	s.textures.Each(func(_ TextureKey, t *Texture) bool {
		t.release()
		return true
	})
	s.textures.Clear()
	for _, l := range s.layouts {
		l.Release()
	}
	s.layouts = nil
	for _, b := range s.buffers {
		b.Release()
	}
	s.buffers = nil
	s.surface.Release()
	s.device.Release()
}
