package renderer

import (
	"fmt"

	"github.com/matms/mat-engine/engine/core"
)

// Range is the half-open range [Start, End).
type Range struct {
	Start, End uint32
}

func (r Range) Len() uint32 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// RenderPass records draws into a frame, loading what earlier passes drew.
// Pipelines and bind groups are referenced by key and resolved against the
// state's arenas.
type RenderPass struct {
	state   *State
	label   string
	encoder RenderPassEncoder
	ended   bool
}

func (s *State) BeginPass(frt *FrameRenderTarget, label string) *RenderPass {
	enc := frt.encoder.BeginRenderPass(RenderPassDescriptor{
		Label:  label,
		View:   frt.view,
		LoadOp: LoadOpLoad,
	})
	return &RenderPass{state: s, label: label, encoder: enc}
}

func (p *RenderPass) live() {
	if p.ended {
		panic(fmt.Sprintf("render pass %s used after End", p.label))
	}
}

func (p *RenderPass) SetPipeline(key PipelineKey) error {
	p.live()
	pl, ok := p.state.pipelines.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s in pass %s", core.ErrPipelineNotFound, key, p.label)
	}
	p.encoder.SetPipeline(pl.Handle)
	return nil
}

func (p *RenderPass) SetBindGroup(slot uint32, key BindGroupKey, dynamicOffsets []uint32) error {
	p.live()
	bg, ok := p.state.bindGroups.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s at slot %d in pass %s", core.ErrBindGroupNotFound, key, slot, p.label)
	}
	p.encoder.SetBindGroup(slot, bg.Handle, dynamicOffsets)
	return nil
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.live()
	p.encoder.SetVertexBuffer(slot, buf)
}

func (p *RenderPass) SetIndexBuffer(buf Buffer, format IndexFormat) {
	p.live()
	p.encoder.SetIndexBuffer(buf, format)
}

func (p *RenderPass) Draw(vertices, instances Range) {
	p.live()
	p.encoder.Draw(vertices.Len(), instances.Len(), vertices.Start, instances.Start)
}

func (p *RenderPass) DrawIndexed(indices Range, baseVertex int32, instances Range) {
	p.live()
	p.encoder.DrawIndexed(indices.Len(), instances.Len(), indices.Start, baseVertex, instances.Start)
}

// End closes the pass. The pass cannot be used afterwards.
func (p *RenderPass) End() error {
	p.live()
	p.ended = true
	defer p.encoder.Release()
	if err := p.encoder.End(); err != nil {
		return fmt.Errorf("ending pass %s: %w", p.label, err)
	}
	return nil
}
