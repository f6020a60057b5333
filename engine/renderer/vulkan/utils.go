package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

var resultNames = map[vk.Result]string{
	vk.Success:                   "VK_SUCCESS",
	vk.NotReady:                  "VK_NOT_READY",
	vk.Timeout:                   "VK_TIMEOUT",
	vk.Incomplete:                "VK_INCOMPLETE",
	vk.ErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	vk.ErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	vk.ErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	vk.ErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	vk.ErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	vk.ErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	vk.ErrorFeatureNotPresent:    "VK_ERROR_FEATURE_NOT_PRESENT",
	vk.ErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
	vk.ErrorSurfaceLost:          "VK_ERROR_SURFACE_LOST_KHR",
	vk.ErrorOutOfDate:            "VK_ERROR_OUT_OF_DATE_KHR",
	vk.ErrorUnknown:              "VK_ERROR_UNKNOWN",
}

// ResultString names a VkResult, falling back to its numeric value.
func ResultString(res vk.Result) string {
	if name, ok := resultNames[res]; ok {
		return name
	}
	return fmt.Sprintf("VkResult(%d)", int32(res))
}

func resultError(call string, res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	return fmt.Errorf("%s: %s", call, ResultString(res))
}

// SafeString null-terminates s for the C API.
func SafeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func SafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = SafeString(s)
	}
	return out
}

// CString returns the bytes of arr up to the first zero.
func CString(arr []byte) string {
	for i, b := range arr {
		if b == 0 {
			return string(arr[:i])
		}
	}
	return string(arr)
}

func versionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", vk.Version(v).Major(), vk.Version(v).Minor(), vk.Version(v).Patch())
}
