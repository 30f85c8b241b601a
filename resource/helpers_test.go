package resource

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestImage(t *testing.T, device hal.Device, label string, w, h uint32, format gputypes.TextureFormat) *Image {
	t.Helper()
	img, err := NewImage(device, ImageDesc{
		Label:  label,
		Extent: Extent{Width: w, Height: h},
		Format: format,
	})
	if err != nil {
		t.Fatalf("NewImage(%s) error = %v", label, err)
	}
	return img
}
