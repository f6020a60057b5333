package webgpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestAdapterInfoUsesSelectedAdapter(t *testing.T) {
	info := adapterInfo(wgpu.AdapterInfo{
		Name:              "AMD Radeon RX 6800",
		VendorName:        "AMD",
		DriverDescription: "radv Mesa 24.1",
		VendorId:          0x1002,
		DeviceId:          0x73bf,
	})

	assert.Equal(t, "AMD Radeon RX 6800", info.Name)
	assert.Equal(t, "AMD", info.Vendor)
	assert.Equal(t, "radv Mesa 24.1", info.Driver)
	assert.NotEmpty(t, info.BackendType)
}

func TestAdapterInfoFallsBackToIDs(t *testing.T) {
	info := adapterInfo(wgpu.AdapterInfo{VendorId: 0x10de, DeviceId: 0x2504})

	assert.Equal(t, "device 0x2504", info.Name)
	assert.Equal(t, "vendor 0x10de", info.Vendor)
}
