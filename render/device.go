package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoDevice is returned when a renderer is created without a usable
// device and queue.
var ErrNoDevice = errors.New("render: device and queue are required")

// ErrNoHALAccess is returned when a provider does not expose raw hal
// handles.
var ErrNoHALAccess = errors.New("render: provider does not expose HAL types")

// DeviceHandle provides GPU device access from the host application.
//
// The host (a windowing shell, a test harness, a batch renderer) owns
// device creation and passes the handle down; the renderer receives it
// and shares the device with everything else the host runs.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so hosts
// already integrated with the gpucontext ecosystem plug in directly.
type DeviceHandle = gpucontext.DeviceProvider

// HALProvider is the escape hatch for hosts that can hand out raw hal
// handles. Both methods return the concrete hal types as any to avoid
// forcing the hal dependency on providers.
type HALProvider interface {
	HalDevice() any
	HalQueue() any
}

// halFromProvider extracts hal handles from a provider.
func halFromProvider(provider any) (hal.Device, hal.Queue, error) {
	hp, ok := provider.(HALProvider)
	if !ok {
		return nil, nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, ErrNoDevice
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, ErrNoDevice
	}
	return device, queue, nil
}

// NullDeviceHandle is a DeviceHandle with nil implementations, for
// hosts that run the engine without a GPU.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = NullDeviceHandle{}
