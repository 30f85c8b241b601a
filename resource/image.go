// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SlotUsage is the usage every shared slot image is created with. Any module
// may read it in a shader, write it from compute, render into it or copy it.
const SlotUsage = gputypes.TextureUsageStorageBinding |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

var (
	// ErrZeroExtent is returned when an image is requested with a zero dimension.
	ErrZeroExtent = errors.New("resource: image extent must be non-zero")

	// ErrUndefinedFormat is returned when an image is requested without a format.
	ErrUndefinedFormat = errors.New("resource: image format is undefined")

	// ErrNilDevice is returned when an image is requested without a device.
	ErrNilDevice = errors.New("resource: nil device")
)

// Extent is a 2D image size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent) IsZero() bool { return e.Width == 0 || e.Height == 0 }

func (e Extent) String() string { return fmt.Sprintf("%dx%d", e.Width, e.Height) }

// ImageDesc describes an image to create.
type ImageDesc struct {
	Label  string
	Extent Extent
	Format gputypes.TextureFormat
	// Usage defaults to SlotUsage when zero.
	Usage gputypes.TextureUsage
}

// Image is a 2D GPU image with a tracked layout.
//
// The layout is changed only by Encoder.Transition, which reads the current
// value as the transition source. Access is sequential within one frame's
// command stream, so no lock guards it.
type Image struct {
	label   string
	device  hal.Device
	texture hal.Texture
	view    hal.TextureView
	extent  Extent
	format  gputypes.TextureFormat
	usage   gputypes.TextureUsage
	layout  Layout
}

// NewImage creates a texture and a full view of it.
func NewImage(device hal.Device, desc ImageDesc) (*Image, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if desc.Extent.IsZero() {
		return nil, fmt.Errorf("%w: %s %s", ErrZeroExtent, desc.Label, desc.Extent)
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedFormat, desc.Label)
	}
	usage := desc.Usage
	if usage == gputypes.TextureUsageNone {
		usage = SlotUsage
	}

	texture, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Extent.Width,
			Height:             desc.Extent.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("resource: create texture %s: %w", desc.Label, err)
	}

	view, err := device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(texture)
		return nil, fmt.Errorf("resource: create view %s: %w", desc.Label, err)
	}

	framegraph.Logger().Debug("resource: image created",
		"label", desc.Label,
		"extent", desc.Extent.String(),
		"format", desc.Format.String())

	return &Image{
		label:   desc.Label,
		device:  device,
		texture: texture,
		view:    view,
		extent:  desc.Extent,
		format:  desc.Format,
		usage:   usage,
		layout:  LayoutUndefined,
	}, nil
}

// Label returns the debug label.
func (img *Image) Label() string { return img.label }

// Texture returns the HAL texture.
func (img *Image) Texture() hal.Texture { return img.texture }

// View returns the full 2D view of the texture.
func (img *Image) View() hal.TextureView { return img.view }

// Extent returns the image size.
func (img *Image) Extent() Extent { return img.extent }

// Width returns the image width in pixels.
func (img *Image) Width() uint32 { return img.extent.Width }

// Height returns the image height in pixels.
func (img *Image) Height() uint32 { return img.extent.Height }

// Format returns the texel format.
func (img *Image) Format() gputypes.TextureFormat { return img.format }

// Usage returns the usage the texture was created with.
func (img *Image) Usage() gputypes.TextureUsage { return img.usage }

// Layout returns the layout left by the last recorded transition.
func (img *Image) Layout() Layout { return img.layout }

// Matches reports whether the image has the given size and format.
func (img *Image) Matches(extent Extent, format gputypes.TextureFormat) bool {
	return img.extent == extent && img.format == format
}

// Destroy releases the view and texture. Safe to call more than once.
func (img *Image) Destroy() {
	if img == nil || img.device == nil {
		return
	}
	if img.view != nil {
		img.device.DestroyTextureView(img.view)
		img.view = nil
	}
	if img.texture != nil {
		img.device.DestroyTexture(img.texture)
		img.texture = nil
	}
	img.device = nil
}

// Destroyed reports whether Destroy has been called.
func (img *Image) Destroyed() bool { return img.device == nil }

func (img *Image) String() string {
	return fmt.Sprintf("%s %s %s %s", img.label, img.extent, img.format, img.layout)
}
