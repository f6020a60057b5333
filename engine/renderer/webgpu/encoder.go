package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/matms/mat-engine/engine/renderer"
)

type encoder struct {
	enc *wgpu.CommandEncoder
}

func (e *encoder) BeginRenderPass(desc renderer.RenderPassDescriptor) renderer.RenderPassEncoder {
	view := desc.View.(textureView).TextureView
	pass := e.enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  loadOp(desc.LoadOp),
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: desc.ClearColor.R,
				G: desc.ClearColor.G,
				B: desc.ClearColor.B,
				A: desc.ClearColor.A,
			},
		}},
	})
	return &passEncoder{pass: pass}
}

func (e *encoder) Finish() (renderer.CommandBuffer, error) {
	cb, err := e.enc.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finishing command encoder: %w", err)
	}
	return commandBuffer{cb}, nil
}

func (e *encoder) Release() {
	e.enc.Release()
}

type passEncoder struct {
	pass *wgpu.RenderPassEncoder
}

func (p *passEncoder) SetPipeline(pipeline renderer.RenderPipelineHandle) {
	p.pass.SetPipeline(pipeline.(*renderPipeline).pipeline)
}

func (p *passEncoder) SetBindGroup(slot uint32, bg renderer.BindGroupHandle, dynamicOffsets []uint32) {
	p.pass.SetBindGroup(slot, bg.(bindGroup).BindGroup, dynamicOffsets)
}

func (p *passEncoder) SetVertexBuffer(slot uint32, buf renderer.Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*buffer).Buffer, 0, wgpu.WholeSize)
}

func (p *passEncoder) SetIndexBuffer(buf renderer.Buffer, format renderer.IndexFormat) {
	p.pass.SetIndexBuffer(buf.(*buffer).Buffer, indexFormat(format), 0, wgpu.WholeSize)
}

func (p *passEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *passEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *passEncoder) End() error {
	p.pass.End()
	return nil
}

func (p *passEncoder) Release() {
	p.pass.Release()
}
