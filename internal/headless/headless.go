// Package headless opens a GPU device without a window. It backs the demo
// command and the tests of every package that records GPU work.
package headless

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Provider is a gpucontext.DeviceProvider over the noop HAL backend.
type Provider struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     gpucontext.AdapterInfo
	format   gputypes.TextureFormat
	once     sync.Once
}

var _ gpucontext.DeviceProvider = (*Provider)(nil)

// Open creates a noop instance and opens its first adapter.
func Open() (*Provider, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("headless: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("headless: no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("headless: open adapter: %w", err)
	}
	return &Provider{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		info: gpucontext.AdapterInfo{
			Name: adapters[0].Info.Name,
			Type: gpucontext.AdapterTypeUnknown,
		},
		format: gputypes.TextureFormatBGRA8Unorm,
	}, nil
}

// WithAdapterType overrides the reported adapter type.
func (p *Provider) WithAdapterType(t gpucontext.AdapterType) *Provider {
	p.info.Type = t
	return p
}

// Device returns the HAL device as a gpucontext token.
func (p *Provider) Device() gpucontext.Device { return p.device }

// Queue returns the HAL queue as a gpucontext token.
func (p *Provider) Queue() gpucontext.Queue { return p.queue }

// SurfaceFormat returns the format a window surface would use.
func (p *Provider) SurfaceFormat() gputypes.TextureFormat { return p.format }

// Adapter is not exposed by the noop backend.
func (p *Provider) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns the adapter name and type.
func (p *Provider) AdapterInfo() gpucontext.AdapterInfo { return p.info }

// HalDevice returns the HAL device.
func (p *Provider) HalDevice() any { return p.device }

// HalQueue returns the HAL queue.
func (p *Provider) HalQueue() any { return p.queue }

// Close destroys the device and instance. Safe to call more than once.
func (p *Provider) Close() {
	p.once.Do(func() {
		p.device.Destroy()
		p.instance.Destroy()
	})
}
