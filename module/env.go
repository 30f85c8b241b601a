package module

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNoDevice is returned when no HAL device can be obtained.
	ErrNoDevice = errors.New("module: provider does not expose a HAL device")

	// ErrNoQueue is returned when no HAL queue can be obtained.
	ErrNoQueue = errors.New("module: provider does not expose a HAL queue")

	// ErrExtent is returned for a zero display extent.
	ErrExtent = errors.New("module: display extent must be non-zero")

	// ErrFrames is returned for a non-positive frame-in-flight count.
	ErrFrames = errors.New("module: frames in flight must be at least 1")
)

// Env is what every module sees of the renderer: the device, the display
// extent and the number of frames in flight.
type Env struct {
	Device hal.Device
	Queue  hal.Queue

	// Adapter describes the GPU. Software adapters report
	// gpucontext.AdapterTypeSoftware.
	Adapter gpucontext.AdapterInfo

	// SurfaceFormat is the presentation surface format, or Undefined when
	// headless.
	SurfaceFormat gputypes.TextureFormat

	// Extent is the swapchain extent, the display resolution.
	Extent resource.Extent

	// Frames is the number of frames in flight.
	Frames int

	// QueueFamily is the queue family all work is recorded for.
	QueueFamily uint32
}

// halProvider is implemented by device providers that expose HAL objects
// separately from their public handles.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewEnv builds an Env from a host's device provider.
func NewEnv(provider gpucontext.DeviceProvider, extent resource.Extent, frames int) (*Env, error) {
	if provider == nil {
		return nil, ErrNoDevice
	}
	var devAny, queueAny any = provider.Device(), provider.Queue()
	if hp, ok := provider.(halProvider); ok {
		devAny, queueAny = hp.HalDevice(), hp.HalQueue()
	}
	device, ok := devAny.(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoDevice
	}
	queue, ok := queueAny.(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNoQueue
	}

	env := &Env{
		Device:        device,
		Queue:         queue,
		Adapter:       provider.AdapterInfo(),
		SurfaceFormat: provider.SurfaceFormat(),
		Extent:        extent,
		Frames:        frames,
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate checks that the Env can host a pipeline.
func (e *Env) Validate() error {
	if e.Device == nil {
		return ErrNoDevice
	}
	if e.Queue == nil {
		return ErrNoQueue
	}
	if e.Extent.IsZero() {
		return fmt.Errorf("%w: %s", ErrExtent, e.Extent)
	}
	if e.Frames < 1 {
		return fmt.Errorf("%w: %d", ErrFrames, e.Frames)
	}
	return nil
}

// SoftwareAdapter reports whether the device is a CPU implementation.
func (e *Env) SoftwareAdapter() bool {
	return e.Adapter.Type == gpucontext.AdapterTypeSoftware
}
