package renderer

// The renderer talks to the GPU only through the interfaces in this file.
// engine/renderer/webgpu implements them on top of wgpu-native.

type TextureFormat uint8

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
)

type PresentMode uint8

const (
	PresentModeFifo PresentMode = iota
	PresentModeImmediate
	PresentModeMailbox
)

// ShaderStage is a bit set, used both for a module's stage and for binding
// visibility.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
)

type BindingType uint8

const (
	BindingTypeUniformBuffer BindingType = iota
	BindingTypeTexture
	BindingTypeSampler
)

type VertexFormat uint8

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// Size in bytes of one attribute of this format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	}
	return 16
}

type VertexStepMode uint8

const (
	VertexStepModeVertex VertexStepMode = iota
	VertexStepModeInstance
)

type IndexFormat uint8

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

type BufferUsage uint16

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopySrc
	BufferUsageCopyDst
)

type TextureUsage uint8

const (
	TextureUsageTextureBinding TextureUsage = 1 << iota
	TextureUsageCopyDst
	TextureUsageRenderAttachment
)

type AddressMode uint8

const (
	AddressModeClampToEdge AddressMode = iota
	AddressModeRepeat
)

type FilterMode uint8

const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

type BlendComponent struct {
	Src BlendFactor
	Dst BlendFactor
}

// BlendState is always combined with an add operation.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// AlphaBlending is the blend state used by the sprite and debug pipelines.
var AlphaBlending = BlendState{
	Color: BlendComponent{Src: BlendFactorSrcAlpha, Dst: BlendFactorOneMinusSrcAlpha},
	Alpha: BlendComponent{Src: BlendFactorOne, Dst: BlendFactorOne},
}

type LoadOp uint8

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
)

type Color struct {
	R, G, B, A float64
}

type ShaderModuleDescriptor struct {
	Label string
	// Exactly one of WGSL and SPIRV is set.
	WGSL  string
	SPIRV []byte
}

type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Type       BindingType
}

// BindGroupEntry binds exactly one of Buffer, TextureView and Sampler.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

type RenderPipelineDescriptor struct {
	Label            string
	Vertex           ShaderModule
	VertexEntry      string
	Fragment         ShaderModule
	FragmentEntry    string
	BindGroupLayouts []BindGroupLayout
	Buffers          []VertexBufferLayout
	TargetFormat     TextureFormat
	Blend            *BlendState
}

type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
}

type SamplerDescriptor struct {
	Label       string
	AddressMode AddressMode
	MagFilter   FilterMode
	MinFilter   FilterMode
}

type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

type SurfaceConfiguration struct {
	Format      TextureFormat
	Width       uint32
	Height      uint32
	PresentMode PresentMode
}

type RenderPassDescriptor struct {
	Label      string
	View       TextureView
	LoadOp     LoadOp
	ClearColor Color
}

// Releasable GPU object.
type Handle interface {
	Release()
}

type ShaderModule interface{ Handle }
type BindGroupLayout interface{ Handle }
type BindGroupHandle interface{ Handle }
type RenderPipelineHandle interface{ Handle }
type TextureView interface{ Handle }
type Sampler interface{ Handle }
type CommandBuffer interface{ Handle }

type Buffer interface {
	Handle
	Size() uint64
}

type TextureHandle interface {
	Handle
	CreateView() (TextureView, error)
	Width() uint32
	Height() uint32
}

type Device interface {
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)
	CreateBindGroupLayout(label string, entries []BindGroupLayoutEntry) (BindGroupLayout, error)
	CreateBindGroup(label string, layout BindGroupLayout, entries []BindGroupEntry) (BindGroupHandle, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipelineHandle, error)
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
	Queue() Queue
	Release()
}

type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	// WriteTexture uploads tightly packed RGBA8 rows covering the whole texture.
	WriteTexture(tex TextureHandle, data []byte) error
	Submit(cmds ...CommandBuffer)
}

type Surface interface {
	Configure(cfg SurfaceConfiguration) error
	// AcquireTexture returns an error wrapping core.ErrSurfaceLost when the
	// surface is lost or outdated and must be reconfigured.
	AcquireTexture() (TextureHandle, error)
	Present()
	PreferredFormat() TextureFormat
	Release()
}

type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder
	Finish() (CommandBuffer, error)
	Release()
}

type RenderPassEncoder interface {
	SetPipeline(p RenderPipelineHandle)
	SetBindGroup(slot uint32, bg BindGroupHandle, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
	Release()
}
