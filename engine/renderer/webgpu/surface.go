package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
)

// Surface is the window's presentation surface.
type Surface struct {
	surface   *wgpu.Surface
	adapter   *wgpu.Adapter
	device    *wgpu.Device
	format    wgpu.TextureFormat
	alphaMode wgpu.CompositeAlphaMode

	width, height uint32
}

func newSurface(s *wgpu.Surface, adapter *wgpu.Adapter, device *wgpu.Device) *Surface {
	caps := s.GetCapabilities(adapter)
	out := &Surface{surface: s, adapter: adapter, device: device}
	// prefer an sRGB format the engine knows about
	for _, f := range caps.Formats {
		if engineFormat(f) == renderer.TextureFormatBGRA8UnormSrgb || engineFormat(f) == renderer.TextureFormatRGBA8UnormSrgb {
			out.format = f
			break
		}
	}
	if out.format == wgpu.TextureFormatUndefined && len(caps.Formats) > 0 {
		out.format = caps.Formats[0]
	}
	if len(caps.AlphaModes) > 0 {
		out.alphaMode = caps.AlphaModes[0]
	}
	return out
}

func (s *Surface) PreferredFormat() renderer.TextureFormat {
	f := engineFormat(s.format)
	if f == renderer.TextureFormatUndefined {
		core.LogWarn("surface format %v has no engine equivalent, falling back to BGRA8UnormSrgb", s.format)
		return renderer.TextureFormatBGRA8UnormSrgb
	}
	return f
}

func (s *Surface) Configure(cfg renderer.SurfaceConfiguration) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("configuring surface %dx%d: %w", cfg.Width, cfg.Height, core.ErrZeroSizeSurface)
	}
	s.surface.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      textureFormat(cfg.Format),
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: presentMode(cfg.PresentMode),
		AlphaMode:   s.alphaMode,
	})
	s.width, s.height = cfg.Width, cfg.Height
	return nil
}

// AcquireTexture reports every acquisition failure as a lost surface; wgpu
// folds timeout, outdated and lost into the same error path.
func (s *Surface) AcquireTexture() (renderer.TextureHandle, error) {
	t, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSurfaceLost, err)
	}
	return &texture{Texture: t, width: s.width, height: s.height}, nil
}

func (s *Surface) Present() {
	s.surface.Present()
}

func (s *Surface) Release() {
	s.surface.Release()
}
