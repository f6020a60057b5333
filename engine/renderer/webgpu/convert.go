package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/matms/mat-engine/engine/renderer"
)

func textureFormat(f renderer.TextureFormat) wgpu.TextureFormat {
	switch f {
	case renderer.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case renderer.TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case renderer.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case renderer.TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	}
	panic(fmt.Sprintf("webgpu: unsupported texture format %d", f))
}

// engineFormat maps a surface format back; formats the engine has no name
// for come back as Undefined.
func engineFormat(f wgpu.TextureFormat) renderer.TextureFormat {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm:
		return renderer.TextureFormatRGBA8Unorm
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return renderer.TextureFormatRGBA8UnormSrgb
	case wgpu.TextureFormatBGRA8Unorm:
		return renderer.TextureFormatBGRA8Unorm
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return renderer.TextureFormatBGRA8UnormSrgb
	}
	return renderer.TextureFormatUndefined
}

func presentMode(m renderer.PresentMode) wgpu.PresentMode {
	switch m {
	case renderer.PresentModeImmediate:
		return wgpu.PresentModeImmediate
	case renderer.PresentModeMailbox:
		return wgpu.PresentModeMailbox
	}
	return wgpu.PresentModeFifo
}

func shaderStages(s renderer.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&renderer.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&renderer.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func vertexFormat(f renderer.VertexFormat) wgpu.VertexFormat {
	switch f {
	case renderer.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case renderer.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case renderer.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	}
	panic(fmt.Sprintf("webgpu: unsupported vertex format %d", f))
}

func stepMode(m renderer.VertexStepMode) wgpu.VertexStepMode {
	if m == renderer.VertexStepModeInstance {
		return wgpu.VertexStepModeInstance
	}
	return wgpu.VertexStepModeVertex
}

func indexFormat(f renderer.IndexFormat) wgpu.IndexFormat {
	if f == renderer.IndexFormatUint32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}

func bufferUsage(u renderer.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&renderer.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&renderer.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&renderer.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&renderer.BufferUsageCopySrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if u&renderer.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}

func textureUsage(u renderer.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&renderer.TextureUsageTextureBinding != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&renderer.TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	if u&renderer.TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	return out
}

func addressMode(m renderer.AddressMode) wgpu.AddressMode {
	if m == renderer.AddressModeRepeat {
		return wgpu.AddressModeRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func filterMode(m renderer.FilterMode) wgpu.FilterMode {
	if m == renderer.FilterModeLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func blendFactor(f renderer.BlendFactor) wgpu.BlendFactor {
	switch f {
	case renderer.BlendFactorOne:
		return wgpu.BlendFactorOne
	case renderer.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case renderer.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	}
	return wgpu.BlendFactorZero
}

func blendState(b *renderer.BlendState) *wgpu.BlendState {
	if b == nil {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: blendFactor(b.Color.Src),
			DstFactor: blendFactor(b.Color.Dst),
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: blendFactor(b.Alpha.Src),
			DstFactor: blendFactor(b.Alpha.Dst),
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

func loadOp(op renderer.LoadOp) wgpu.LoadOp {
	if op == renderer.LoadOpClear {
		return wgpu.LoadOpClear
	}
	return wgpu.LoadOpLoad
}

func layoutEntry(e renderer.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	out := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: shaderStages(e.Visibility),
	}
	switch e.Type {
	case renderer.BindingTypeUniformBuffer:
		out.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
	case renderer.BindingTypeTexture:
		out.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case renderer.BindingTypeSampler:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	default:
		panic(fmt.Sprintf("webgpu: unsupported binding type %d", e.Type))
	}
	return out
}

func vertexBuffers(layouts []renderer.VertexBufferLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			})
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    stepMode(l.StepMode),
			Attributes:  attrs,
		})
	}
	return out
}
