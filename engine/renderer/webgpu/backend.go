// Package webgpu implements the renderer's GPU interfaces on top of
// cogentcore/webgpu.
package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
)

type Options struct {
	// Label names the device in wgpu diagnostics.
	Label                string
	ForceFallbackAdapter bool
}

// Backend owns the wgpu instance and everything created from it.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	info     renderer.AdapterInfo
	device   *Device
	surface  *Surface
}

// New creates a surface from desc and acquires a compatible adapter and device
// for it. It blocks until the device is ready.
func New(desc *wgpu.SurfaceDescriptor, opts Options) (*Backend, error) {
	b := &Backend{instance: wgpu.CreateInstance(nil)}
	ws := b.instance.CreateSurface(desc)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
		CompatibleSurface:    ws,
	})
	if err != nil {
		ws.Release()
		b.instance.Release()
		return nil, fmt.Errorf("%w: %s", core.ErrAdapterUnavailable, err)
	}
	b.adapter = adapter

	label := opts.Label
	if label == "" {
		label = "mat-engine device"
	}
	d, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: label})
	if err != nil {
		adapter.Release()
		ws.Release()
		b.instance.Release()
		return nil, fmt.Errorf("%w: %s", core.ErrDeviceUnavailable, err)
	}
	b.device = newDevice(d)
	b.surface = newSurface(ws, adapter, d)

	b.info = adapterInfo(adapter.GetInfo())
	core.LogInfo("webgpu device %q ready on %s", label, b.info)
	return b, nil
}

// adapterInfo describes the adapter wgpu actually selected.
func adapterInfo(info wgpu.AdapterInfo) renderer.AdapterInfo {
	out := renderer.AdapterInfo{
		Name:        info.Name,
		Vendor:      info.VendorName,
		Driver:      info.DriverDescription,
		BackendType: fmt.Sprint(info.BackendType),
	}
	if out.Name == "" {
		out.Name = fmt.Sprintf("device 0x%04x", info.DeviceId)
	}
	if out.Vendor == "" {
		out.Vendor = fmt.Sprintf("vendor 0x%04x", info.VendorId)
	}
	return out
}

func (b *Backend) Type() renderer.RendererType { return renderer.WebGPU }

func (b *Backend) Adapter() renderer.AdapterInfo { return b.info }

func (b *Backend) Device() renderer.Device { return b.device }

func (b *Backend) Surface() renderer.Surface { return b.surface }

// Release frees the adapter and instance. The device and surface are
// released separately, see renderer.ReleaseGPU.
func (b *Backend) Release() {
	b.adapter.Release()
	b.instance.Release()
}

var _ renderer.Backend = (*Backend)(nil)
var _ renderer.Device = (*Device)(nil)
var _ renderer.Surface = (*Surface)(nil)
