package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
)

type shaderModule struct{ *wgpu.ShaderModule }
type bindGroupLayout struct{ *wgpu.BindGroupLayout }
type bindGroup struct{ *wgpu.BindGroup }
type sampler struct{ *wgpu.Sampler }
type textureView struct{ *wgpu.TextureView }
type commandBuffer struct{ *wgpu.CommandBuffer }

type renderPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
}

func (p *renderPipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
}

type buffer struct {
	*wgpu.Buffer
	size uint64
}

func (b *buffer) Size() uint64 { return b.size }

type texture struct {
	*wgpu.Texture
	width, height uint32
}

func (t *texture) Width() uint32  { return t.width }
func (t *texture) Height() uint32 { return t.height }

func (t *texture) CreateView() (renderer.TextureView, error) {
	v, err := t.Texture.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("creating texture view: %w", err)
	}
	return textureView{v}, nil
}

// Device wraps a wgpu device and its queue.
type Device struct {
	device *wgpu.Device
	queue  *Queue
}

func newDevice(d *wgpu.Device) *Device {
	return &Device{device: d, queue: &Queue{queue: d.GetQueue()}}
}

func (d *Device) CreateShaderModule(desc renderer.ShaderModuleDescriptor) (renderer.ShaderModule, error) {
	wdesc := &wgpu.ShaderModuleDescriptor{Label: desc.Label}
	switch {
	case desc.WGSL != "":
		wdesc.WGSLDescriptor = &wgpu.ShaderModuleWGSLDescriptor{Code: desc.WGSL}
	case len(desc.SPIRV) > 0:
		wdesc.SPIRVDescriptor = &wgpu.ShaderModuleSPIRVDescriptor{Code: desc.SPIRV}
	default:
		return nil, fmt.Errorf("shader module %q has no code: %w", desc.Label, core.ErrShaderCompilation)
	}
	m, err := d.device.CreateShaderModule(wdesc)
	if err != nil {
		return nil, fmt.Errorf("shader module %q: %w: %s", desc.Label, core.ErrShaderCompilation, err)
	}
	return shaderModule{m}, nil
}

func (d *Device) CreateBindGroupLayout(label string, entries []renderer.BindGroupLayoutEntry) (renderer.BindGroupLayout, error) {
	wentries := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
	for _, e := range entries {
		wentries = append(wentries, layoutEntry(e))
	}
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: wentries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group layout %q: %w", label, err)
	}
	return bindGroupLayout{l}, nil
}

func (d *Device) CreateBindGroup(label string, layout renderer.BindGroupLayout, entries []renderer.BindGroupEntry) (renderer.BindGroupHandle, error) {
	l, ok := layout.(bindGroupLayout)
	if !ok {
		panic(fmt.Sprintf("webgpu: bind group %q given a foreign layout %T", label, layout))
	}
	wentries := make([]wgpu.BindGroupEntry, 0, len(entries))
	for _, e := range entries {
		we := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			b := e.Buffer.(*buffer)
			we.Buffer = b.Buffer
			we.Size = wgpu.WholeSize
		case e.TextureView != nil:
			we.TextureView = e.TextureView.(textureView).TextureView
		case e.Sampler != nil:
			we.Sampler = e.Sampler.(sampler).Sampler
		default:
			return nil, fmt.Errorf("bind group %q: binding %d has no resource: %w", label, e.Binding, core.ErrMissingLayout)
		}
		wentries = append(wentries, we)
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  l.BindGroupLayout,
		Entries: wentries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %q: %w", label, err)
	}
	return bindGroup{bg}, nil
}

func (d *Device) CreateRenderPipeline(desc *renderer.RenderPipelineDescriptor) (renderer.RenderPipelineHandle, error) {
	layouts := make([]*wgpu.BindGroupLayout, 0, len(desc.BindGroupLayouts))
	for _, l := range desc.BindGroupLayouts {
		layouts = append(layouts, l.(bindGroupLayout).BindGroupLayout)
	}
	pl, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline layout %q: %w", desc.Label, err)
	}

	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pl,
		Vertex: wgpu.VertexState{
			Module:     desc.Vertex.(shaderModule).ShaderModule,
			EntryPoint: desc.VertexEntry,
			Buffers:    vertexBuffers(desc.Buffers),
		},
		Fragment: &wgpu.FragmentState{
			Module:     desc.Fragment.(shaderModule).ShaderModule,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    textureFormat(desc.TargetFormat),
				Blend:     blendState(desc.Blend),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		pl.Release()
		return nil, fmt.Errorf("render pipeline %q: %w", desc.Label, err)
	}
	return &renderPipeline{pipeline: p, layout: pl}, nil
}

func (d *Device) CreateTexture(desc renderer.TextureDescriptor) (renderer.TextureHandle, error) {
	t, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     textureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        textureFormat(desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", desc.Label, err)
	}
	return &texture{Texture: t, width: desc.Width, height: desc.Height}, nil
}

func (d *Device) CreateSampler(desc renderer.SamplerDescriptor) (renderer.Sampler, error) {
	am := addressMode(desc.AddressMode)
	s, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  am,
		AddressModeV:  am,
		AddressModeW:  am,
		MagFilter:     filterMode(desc.MagFilter),
		MinFilter:     filterMode(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("sampler %q: %w", desc.Label, err)
	}
	return sampler{s}, nil
}

func (d *Device) CreateBuffer(desc renderer.BufferDescriptor) (renderer.Buffer, error) {
	b, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("buffer %q: %w", desc.Label, err)
	}
	return &buffer{Buffer: b, size: desc.Size}, nil
}

func (d *Device) CreateCommandEncoder(label string) (renderer.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("command encoder %q: %w", label, err)
	}
	return &encoder{enc: enc}, nil
}

func (d *Device) Queue() renderer.Queue {
	return d.queue
}

func (d *Device) Release() {
	d.queue.queue.Release()
	d.device.Release()
}

// Queue submits work to the device.
type Queue struct {
	queue *wgpu.Queue
}

func (q *Queue) WriteBuffer(buf renderer.Buffer, offset uint64, data []byte) error {
	if err := q.queue.WriteBuffer(buf.(*buffer).Buffer, offset, data); err != nil {
		return fmt.Errorf("writing buffer: %w", err)
	}
	return nil
}

func (q *Queue) WriteTexture(tex renderer.TextureHandle, data []byte) error {
	t := tex.(*texture)
	if want := int(t.width) * int(t.height) * 4; len(data) != want {
		return fmt.Errorf("texture upload of %d bytes, want %d: %w", len(data), want, core.ErrUnsupportedImage)
	}
	q.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.Texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&wgpu.Extent3D{
			Width:              t.width,
			Height:             t.height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (q *Queue) Submit(cmds ...renderer.CommandBuffer) {
	wcmds := make([]*wgpu.CommandBuffer, 0, len(cmds))
	for _, c := range cmds {
		wcmds = append(wcmds, c.(commandBuffer).CommandBuffer)
	}
	q.queue.Submit(wcmds...)
}
