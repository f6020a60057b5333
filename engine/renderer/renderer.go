package renderer

import (
	"fmt"
	"strings"

	"github.com/matms/mat-engine/engine/core"
)

type RendererType uint8

const (
	WebGPU RendererType = iota
	Vulkan
)

func (t RendererType) String() string {
	switch t {
	case WebGPU:
		return "webgpu"
	case Vulkan:
		return "vulkan"
	}
	return fmt.Sprintf("RendererType(%d)", uint8(t))
}

func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(s) {
	case "webgpu", "":
		return WebGPU, nil
	case "vulkan":
		return Vulkan, nil
	}
	return 0, fmt.Errorf("%w: unknown renderer backend %q", core.ErrInvalidConfig, s)
}

func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(s) {
	case "fifo", "":
		return PresentModeFifo, nil
	case "immediate":
		return PresentModeImmediate, nil
	case "mailbox":
		return PresentModeMailbox, nil
	}
	return 0, fmt.Errorf("%w: unknown present mode %q", core.ErrInvalidConfig, s)
}

// AdapterInfo describes the GPU a backend selected.
type AdapterInfo struct {
	Name        string
	Vendor      string
	Driver      string
	BackendType string
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s, %s backend)", a.Name, a.Vendor, a.BackendType)
}

// SameDevice reports whether a and other name the same GPU. Names are
// compared case-insensitively.
func (a AdapterInfo) SameDevice(other AdapterInfo) bool {
	return strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(other.Name))
}

// Backend is an initialized GPU API: a device and the surface of the window
// it was created for. Release frees what remains of the API once the device
// and surface are gone.
type Backend interface {
	Type() RendererType
	Adapter() AdapterInfo
	Device() Device
	Surface() Surface
	Release()
}

// NewStateFromBackend builds the resource state for b at the window size.
func NewStateFromBackend(b Backend, width, height uint32, opts StateOptions) (*State, error) {
	core.LogInfo("renderer backend %s on %s", b.Type(), b.Adapter())
	return NewState(b.Device(), b.Surface(), width, height, opts)
}

// ReleaseGPU releases state, which owns the device and surface, then the
// backend. With a nil state the device and surface are released directly.
func ReleaseGPU(state *State, b Backend) {
	if state != nil {
		state.Release()
	} else {
		b.Surface().Release()
		b.Device().Release()
	}
	b.Release()
}
