package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
	"github.com/matms/mat-engine/engine/renderer/gputest"
)

func TestAdapterInfoSameDevice(t *testing.T) {
	enumerated := renderer.AdapterInfo{Name: "NVIDIA GeForce RTX 3060", Vendor: "NVIDIA", BackendType: "vulkan"}

	assert.True(t, enumerated.SameDevice(renderer.AdapterInfo{Name: "nvidia geforce rtx 3060 ", BackendType: "Vulkan"}))
	assert.False(t, enumerated.SameDevice(renderer.AdapterInfo{Name: "Intel(R) UHD Graphics 630"}))
}

func TestReleaseGPUWithState(t *testing.T) {
	s, b := newState(t)

	renderer.ReleaseGPU(s, b)
	assert.Equal(t, 1, b.FakeDevice.Released)
	assert.Equal(t, 1, b.FakeSurface.Released)
	assert.Equal(t, 1, b.Released)
}

func TestReleaseGPUWithoutState(t *testing.T) {
	b := gputest.NewBackend()

	renderer.ReleaseGPU(nil, b)
	assert.Equal(t, 1, b.FakeDevice.Released, "device must not leak when no state was built")
	assert.Equal(t, 1, b.FakeSurface.Released)
	assert.Equal(t, 1, b.Released)
}

func TestParsePresentMode(t *testing.T) {
	mode, err := renderer.ParsePresentMode("Mailbox")
	require.NoError(t, err)
	assert.Equal(t, renderer.PresentModeMailbox, mode)

	_, err = renderer.ParsePresentMode("sometimes")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
