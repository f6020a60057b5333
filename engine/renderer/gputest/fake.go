// Package gputest provides in-memory implementations of the renderer GPU
// interfaces that record what they are asked to do.
package gputest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matms/mat-engine/engine/renderer"
)

// Handle counts its own releases.
type Handle struct {
	Label    string
	Released int
}

func (h *Handle) Release() { h.Released++ }

type Buffer struct {
	Handle
	Desc renderer.BufferDescriptor
	Data []byte
}

func (b *Buffer) Size() uint64 { return b.Desc.Size }

type Texture struct {
	Handle
	W, H uint32
	Data []byte
	// Views counts CreateView calls.
	Views int
}

func (t *Texture) CreateView() (renderer.TextureView, error) {
	t.Views++
	return &Handle{Label: t.Label + "-view"}, nil
}

func (t *Texture) Width() uint32  { return t.W }
func (t *Texture) Height() uint32 { return t.H }

type Pipeline struct {
	Handle
	Desc renderer.RenderPipelineDescriptor
}

type BindGroup struct {
	Handle
	Layout  renderer.BindGroupLayout
	Entries []renderer.BindGroupEntry
}

type Layout struct {
	Handle
	Entries []renderer.BindGroupLayoutEntry
}

// Device records created objects. Set ShaderErr to make shader module
// creation fail.
type Device struct {
	Handle
	ShaderErr error

	Shaders    []renderer.ShaderModuleDescriptor
	Pipelines  []*Pipeline
	Layouts    []*Layout
	BindGroups []*BindGroup
	Textures   []*Texture
	Samplers   []renderer.SamplerDescriptor
	Buffers    []*Buffer
	Encoders   []*Encoder

	FakeQueue *Queue
}

func NewDevice() *Device {
	return &Device{FakeQueue: &Queue{}}
}

func (d *Device) CreateShaderModule(desc renderer.ShaderModuleDescriptor) (renderer.ShaderModule, error) {
	if d.ShaderErr != nil {
		return nil, d.ShaderErr
	}
	if desc.WGSL == "" && len(desc.SPIRV) == 0 {
		return nil, errors.New("empty shader module")
	}
	d.Shaders = append(d.Shaders, desc)
	return &Handle{Label: desc.Label}, nil
}

func (d *Device) CreateBindGroupLayout(label string, entries []renderer.BindGroupLayoutEntry) (renderer.BindGroupLayout, error) {
	l := &Layout{Handle: Handle{Label: label}, Entries: entries}
	d.Layouts = append(d.Layouts, l)
	return l, nil
}

func (d *Device) CreateBindGroup(label string, layout renderer.BindGroupLayout, entries []renderer.BindGroupEntry) (renderer.BindGroupHandle, error) {
	bg := &BindGroup{Handle: Handle{Label: label}, Layout: layout, Entries: entries}
	d.BindGroups = append(d.BindGroups, bg)
	return bg, nil
}

func (d *Device) CreateRenderPipeline(desc *renderer.RenderPipelineDescriptor) (renderer.RenderPipelineHandle, error) {
	p := &Pipeline{Handle: Handle{Label: desc.Label}, Desc: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateTexture(desc renderer.TextureDescriptor) (renderer.TextureHandle, error) {
	t := &Texture{Handle: Handle{Label: desc.Label}, W: desc.Width, H: desc.Height}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) CreateSampler(desc renderer.SamplerDescriptor) (renderer.Sampler, error) {
	d.Samplers = append(d.Samplers, desc)
	return &Handle{Label: desc.Label}, nil
}

func (d *Device) CreateBuffer(desc renderer.BufferDescriptor) (renderer.Buffer, error) {
	b := &Buffer{Handle: Handle{Label: desc.Label}, Desc: desc, Data: make([]byte, desc.Size)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateCommandEncoder(label string) (renderer.CommandEncoder, error) {
	e := &Encoder{Handle: Handle{Label: label}}
	d.Encoders = append(d.Encoders, e)
	return e, nil
}

func (d *Device) Queue() renderer.Queue { return d.FakeQueue }

type Queue struct {
	// Submitted holds every submitted command buffer in order.
	Submitted []*CommandBuffer
	Writes    int
}

func (q *Queue) WriteBuffer(buf renderer.Buffer, offset uint64, data []byte) error {
	b := buf.(*Buffer)
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("write of %d bytes at %d overflows %s", len(data), offset, b.Label)
	}
	copy(b.Data[offset:], data)
	q.Writes++
	return nil
}

func (q *Queue) WriteTexture(tex renderer.TextureHandle, data []byte) error {
	t := tex.(*Texture)
	if len(data) != int(t.W*t.H*4) {
		return fmt.Errorf("texture %s expects %d bytes, got %d", t.Label, t.W*t.H*4, len(data))
	}
	t.Data = append([]byte(nil), data...)
	q.Writes++
	return nil
}

func (q *Queue) Submit(cmds ...renderer.CommandBuffer) {
	for _, c := range cmds {
		q.Submitted = append(q.Submitted, c.(*CommandBuffer))
	}
}

type CommandBuffer struct {
	Handle
	// Commands recorded by all passes of the encoder.
	Commands []string
}

type Encoder struct {
	Handle
	Passes   []*Pass
	Finished bool
}

func (e *Encoder) BeginRenderPass(desc renderer.RenderPassDescriptor) renderer.RenderPassEncoder {
	p := &Pass{Handle: Handle{Label: desc.Label}, Desc: desc}
	e.Passes = append(e.Passes, p)
	return p
}

func (e *Encoder) Finish() (renderer.CommandBuffer, error) {
	if e.Finished {
		return nil, errors.New("encoder finished twice")
	}
	e.Finished = true
	cb := &CommandBuffer{Handle: Handle{Label: e.Label}}
	for _, p := range e.Passes {
		cb.Commands = append(cb.Commands, p.Commands...)
	}
	return cb, nil
}

// Pass records its commands as short strings, e.g. "pipeline sprites".
type Pass struct {
	Handle
	Desc     renderer.RenderPassDescriptor
	Commands []string
	Ended    bool
}

func (p *Pass) record(format string, args ...interface{}) {
	p.Commands = append(p.Commands, fmt.Sprintf(format, args...))
}

func label(h interface{}) string {
	switch v := h.(type) {
	case *Pipeline:
		return v.Label
	case *BindGroup:
		return v.Label
	case *Buffer:
		return v.Label
	}
	return "?"
}

func (p *Pass) SetPipeline(pl renderer.RenderPipelineHandle) { p.record("pipeline %s", label(pl)) }

func (p *Pass) SetBindGroup(slot uint32, bg renderer.BindGroupHandle, _ []uint32) {
	p.record("bindgroup %d %s", slot, label(bg))
}

func (p *Pass) SetVertexBuffer(slot uint32, buf renderer.Buffer) {
	p.record("vertex %d %s", slot, label(buf))
}

func (p *Pass) SetIndexBuffer(buf renderer.Buffer, _ renderer.IndexFormat) {
	p.record("index %s", label(buf))
}

func (p *Pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.record("draw %d %d %d %d", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.record("drawindexed %d %d %d %d %d", indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *Pass) End() error {
	if p.Ended {
		return errors.New("pass ended twice")
	}
	p.Ended = true
	return nil
}

// Surface hands out textures of the configured size. Queue errors in
// AcquireErrs to make the next acquisitions fail.
type Surface struct {
	Handle
	Format      renderer.TextureFormat
	Configs     []renderer.SurfaceConfiguration
	AcquireErrs []error
	Acquired    int
	Presented   int
}

func NewSurface() *Surface {
	return &Surface{Format: renderer.TextureFormatBGRA8UnormSrgb}
}

func (s *Surface) Configure(cfg renderer.SurfaceConfiguration) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		panic("gputest: surface configured with zero size")
	}
	s.Configs = append(s.Configs, cfg)
	return nil
}

func (s *Surface) Current() renderer.SurfaceConfiguration {
	return s.Configs[len(s.Configs)-1]
}

func (s *Surface) AcquireTexture() (renderer.TextureHandle, error) {
	if len(s.AcquireErrs) > 0 {
		err := s.AcquireErrs[0]
		s.AcquireErrs = s.AcquireErrs[1:]
		return nil, err
	}
	s.Acquired++
	cfg := s.Current()
	return &Texture{Handle: Handle{Label: fmt.Sprintf("surface-%d", s.Acquired)}, W: cfg.Width, H: cfg.Height}, nil
}

func (s *Surface) Present() { s.Presented++ }

func (s *Surface) PreferredFormat() renderer.TextureFormat { return s.Format }

// Backend bundles a fake device and surface. Info, when set, replaces the
// reported adapter.
type Backend struct {
	FakeDevice  *Device
	FakeSurface *Surface
	Info        *renderer.AdapterInfo
	Released    int
}

func NewBackend() *Backend {
	return &Backend{FakeDevice: NewDevice(), FakeSurface: NewSurface()}
}

func (b *Backend) Type() renderer.RendererType { return renderer.WebGPU }

func (b *Backend) Adapter() renderer.AdapterInfo {
	if b.Info != nil {
		return *b.Info
	}
	return renderer.AdapterInfo{Name: "fake", Vendor: "gputest", BackendType: "none"}
}

func (b *Backend) Device() renderer.Device   { return b.FakeDevice }
func (b *Backend) Surface() renderer.Surface { return b.FakeSurface }

func (b *Backend) Release() { b.Released++ }

// Compiler turns any shader into Code, or fails with Err when set.
type Compiler struct {
	Code     []byte
	Err      error
	Compiled []string
}

func (c *Compiler) Compile(s *renderer.Shader) ([]byte, error) {
	c.Compiled = append(c.Compiled, s.Name)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Code, nil
}

// CommandsContaining returns the recorded commands of all submitted buffers
// that start with prefix.
func (q *Queue) CommandsContaining(prefix string) []string {
	var out []string
	for _, cb := range q.Submitted {
		for _, c := range cb.Commands {
			if strings.HasPrefix(c, prefix) {
				out = append(out, c)
			}
		}
	}
	return out
}
