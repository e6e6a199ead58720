package outline

import (
	"errors"
	"image"
	"sync"
)

// ErrFallbackToCPU indicates a backend cannot serve this frame.
// The pipeline transparently runs the CPU executor instead.
var ErrFallbackToCPU = errors.New("outline: falling back to CPU")

// ErrNoBackend is returned by SetBackendDeviceProvider when no backend is
// registered.
var ErrNoBackend = errors.New("outline: no backend registered")

// FloodRequest is one frame of work for a Backend: everything after the
// silhouette pass. All images share the same size and have their origin
// at (0, 0).
type FloodRequest struct {
	// Scene is the host's color image. Read only.
	Scene *image.RGBA

	// Mask is the silhouette coverage. Read only.
	Mask *image.Alpha

	// Dst receives the composited image. It never aliases Scene.
	Dst *image.RGBA

	// Uniforms is the per-frame parameter block.
	Uniforms Uniforms

	// MaxWidth bounds the dilation radius.
	MaxWidth int

	// Steps is the jump flood schedule.
	Steps []int

	// RegionMask enables the dilation pass.
	RegionMask bool
}

// Backend is an optional accelerated executor for the outline passes.
//
// When registered via RegisterBackend, the pipeline offers every frame to the
// backend first. If the backend returns ErrFallbackToCPU or any other error,
// the frame is rendered by the CPU executor instead.
//
// Implementations live in backend packages and register via blank import:
//
//	import _ "github.com/gogpu/outline/gpu"
type Backend interface {
	// Name returns the backend name (e.g., "wgpu").
	Name() string

	// Init acquires device resources. RegisterBackend calls it, and so does
	// New for a WithBackend backend. Calling Init on a ready backend must
	// succeed without reacquiring anything.
	Init() error

	// Close releases device resources.
	Close()

	// Flood runs region, seed, flood and composite for req and writes req.Dst.
	Flood(req *FloodRequest) error
}

// DeviceProviderAware is an optional interface for backends that can share
// a device with the host instead of opening their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	backendMu sync.RWMutex
	backend   Backend
)

// RegisterBackend registers a backend for all pipelines created without
// WithBackend.
//
// Only one backend can be registered. Subsequent calls replace the previous
// one. The backend's Init method is called during registration; if it fails,
// the backend is not registered and the error is returned.
func RegisterBackend(b Backend) error {
	if b == nil {
		return errors.New("outline: backend must not be nil")
	}
	if err := b.Init(); err != nil {
		return err
	}
	propagateLogger(b, Logger())

	backendMu.Lock()
	old := backend
	backend = b
	backendMu.Unlock()
	if old != nil {
		old.Close()
	}
	Logger().Info("outline: backend registered", "name", b.Name())
	return nil
}

// RegisteredBackend returns the registered backend, or nil if none.
func RegisteredBackend() Backend {
	backendMu.RLock()
	b := backend
	backendMu.RUnlock()
	return b
}

// UnregisterBackend closes and removes the registered backend, if any.
func UnregisterBackend() {
	backendMu.Lock()
	old := backend
	backend = nil
	backendMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// SetBackendDeviceProvider passes a device provider to the registered
// backend, enabling device sharing. Backends that do not support sharing
// ignore the call.
func SetBackendDeviceProvider(provider any) error {
	b := RegisteredBackend()
	if b == nil {
		return ErrNoBackend
	}
	if dpa, ok := b.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
