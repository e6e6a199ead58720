//go:build !nogpu

// Package gpu registers the wgpu outline backend.
//
// Import this package to run the region, seed, flood and composite passes
// as WGSL compute shaders through wgpu/hal:
//
//	import _ "github.com/gogpu/outline/gpu"
//
// If GPU initialization fails (no Vulkan adapter, or a shader the local naga
// cannot compile), registration is skipped with a warning and every
// pipeline keeps using the CPU executor.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/outline"
	gpuimpl "github.com/gogpu/outline/internal/gpu"
)

func init() {
	if err := outline.RegisterBackend(&gpuimpl.FloodBackend{}); err != nil {
		outline.Logger().Warn("GPU outline backend not available", "err", err)
	}
}

// SetDeviceProvider makes the registered backend use a GPU device shared
// with the host instead of the one it opened itself. The provider must also
// expose its HAL device and queue (HalDevice() any, HalQueue() any).
//
// Returns outline.ErrNoBackend when the backend failed to register.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return outline.SetBackendDeviceProvider(provider)
}
