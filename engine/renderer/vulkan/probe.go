// Package vulkan lists the Vulkan physical devices on the machine. The engine
// renders through webgpu; the probe only reports what the loader sees.
package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/renderer"
)

type DeviceType uint8

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegrated
	DeviceTypeDiscrete
	DeviceTypeVirtual
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegrated:
		return "integrated"
	case DeviceTypeDiscrete:
		return "discrete"
	case DeviceTypeVirtual:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

// rank orders device types by preference, higher is better.
func (t DeviceType) rank() int {
	switch t {
	case DeviceTypeDiscrete:
		return 4
	case DeviceTypeIntegrated:
		return 3
	case DeviceTypeVirtual:
		return 2
	case DeviceTypeCPU:
		return 1
	}
	return 0
}

func deviceType(t vk.PhysicalDeviceType) DeviceType {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return DeviceTypeIntegrated
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return DeviceTypeDiscrete
	case vk.PhysicalDeviceTypeVirtualGpu:
		return DeviceTypeVirtual
	case vk.PhysicalDeviceTypeCpu:
		return DeviceTypeCPU
	}
	return DeviceTypeOther
}

// PhysicalDevice is what the probe reports for one Vulkan device.
type PhysicalDevice struct {
	Name          string
	Type          DeviceType
	VendorID      uint32
	DriverVersion string
	APIVersion    string
	// Device-local heap size in MiB.
	LocalMemoryMiB uint64
}

func (d PhysicalDevice) String() string {
	return fmt.Sprintf("%s [%s, vendor 0x%04x, driver %s, vulkan %s, %d MiB local]",
		d.Name, d.Type, d.VendorID, d.DriverVersion, d.APIVersion, d.LocalMemoryMiB)
}

var ErrNoVulkan = errors.New("vulkan loader unavailable")

// Probe creates a throwaway instance and reads the properties of every
// physical device. glfw must already be initialized.
func Probe(appName string) ([]PhysicalDevice, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, fmt.Errorf("%w: GetInstanceProcAddress is nil", ErrNoVulkan)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoVulkan, err)
	}

	createInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   SafeString(appName),
			PEngineName:        SafeString("mat-engine"),
		},
	}
	if runtime.GOOS == "darwin" {
		ext := []string{"VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2"}
		createInfo.Flags |= 1 // VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.EnabledExtensionCount = uint32(len(ext))
		createInfo.PpEnabledExtensionNames = SafeStrings(ext)
	}

	var instance vk.Instance
	if err := resultError("vkCreateInstance", vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return nil, err
	}
	defer vk.DestroyInstance(instance, nil)
	if err := vk.InitInstance(instance); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoVulkan, err)
	}

	var count uint32
	if err := resultError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	handles := make([]vk.PhysicalDevice, count)
	if err := resultError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, handles)); err != nil {
		return nil, err
	}

	devices := make([]PhysicalDevice, 0, count)
	for _, h := range handles[:count] {
		devices = append(devices, describe(h))
	}
	return devices, nil
}

func describe(h vk.PhysicalDevice) PhysicalDevice {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(h, &props)
	props.Deref()

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(h, &memory)
	memory.Deref()

	var local uint64
	for i := uint32(0); i < memory.MemoryHeapCount; i++ {
		heap := memory.MemoryHeaps[i]
		heap.Deref()
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			local += uint64(heap.Size) / (1024 * 1024)
		}
	}

	return PhysicalDevice{
		Name:           CString(props.DeviceName[:]),
		Type:           deviceType(props.DeviceType),
		VendorID:       props.VendorID,
		DriverVersion:  versionString(props.DriverVersion),
		APIVersion:     versionString(props.ApiVersion),
		LocalMemoryMiB: local,
	}
}

// Best returns the preferred device: discrete before integrated, then the
// one with the most local memory. ok is false for an empty list.
func Best(devices []PhysicalDevice) (PhysicalDevice, bool) {
	if len(devices) == 0 {
		return PhysicalDevice{}, false
	}
	sorted := append([]PhysicalDevice(nil), devices...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Type.rank() != sorted[j].Type.rank() {
			return sorted[i].Type.rank() > sorted[j].Type.rank()
		}
		return sorted[i].LocalMemoryMiB > sorted[j].LocalMemoryMiB
	})
	return sorted[0], true
}

// AdapterInfo converts d for the renderer's adapter report.
func (d PhysicalDevice) AdapterInfo() renderer.AdapterInfo {
	return renderer.AdapterInfo{
		Name:        d.Name,
		Vendor:      vendorName(d.VendorID),
		Driver:      d.DriverVersion,
		BackendType: "vulkan " + d.APIVersion,
	}
}

func vendorName(id uint32) string {
	switch id {
	case 0x1002:
		return "AMD"
	case 0x10DE:
		return "NVIDIA"
	case 0x8086:
		return "Intel"
	case 0x13B5:
		return "ARM"
	case 0x5143:
		return "Qualcomm"
	case 0x106B:
		return "Apple"
	case 0x10005:
		return "Mesa"
	}
	return fmt.Sprintf("0x%04x", id)
}

// LogProbe runs Probe and logs every device. Failures are logged, never
// fatal, and yield nil.
func LogProbe(appName string) *renderer.AdapterInfo {
	devices, err := Probe(appName)
	if err != nil {
		core.LogWarn("vulkan probe failed: %s", err)
		return nil
	}
	if len(devices) == 0 {
		core.LogWarn("vulkan probe found no physical devices")
		return nil
	}
	for i, d := range devices {
		core.LogInfo("vulkan device %d: %s", i, d)
	}
	best, _ := Best(devices)
	info := best.AdapterInfo()
	return &info
}
