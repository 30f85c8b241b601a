// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	"errors"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

var (
	// ErrUnavailable is reported by backends built without their vendor SDK
	// or running on an unsupported device.
	ErrUnavailable = errors.New("upscaler: backend unavailable")

	// ErrInvalidConfig is returned for an initialization request with a
	// missing device or a zero extent.
	ErrInvalidConfig = errors.New("upscaler: invalid backend configuration")

	// ErrInvalidInput is returned for a dispatch request with a missing
	// image or a zero input extent.
	ErrInvalidInput = errors.New("upscaler: invalid dispatch input")

	// ErrNotInitialized is returned when dispatching or resizing before a
	// successful Initialize.
	ErrNotInitialized = errors.New("upscaler: backend not initialized")
)

// Config is the backend initialization request.
type Config struct {
	Device  hal.Device
	Queue   hal.Queue
	Render  resource.Extent
	Display resource.Extent
	Quality QualityMode
	// InitFlags are passed through to the SDK unchanged.
	InitFlags uint32
	// VelocityScale converts motion vectors to pixels. (1, 1) for
	// pixel-space vectors.
	VelocityScale f32.Vec2
}

// Input is one frame's dispatch request. Color, depth and velocity are at
// render resolution, Output at display resolution. Exposure and
// ResponsiveMask are optional.
type Input struct {
	Encoder *resource.Encoder

	Color          *resource.Image
	Velocity       *resource.Image
	Depth          *resource.Image
	Exposure       *resource.Image
	ResponsiveMask *resource.Image
	Output         *resource.Image

	// Jitter is the sub-pixel offset the frame was rendered with, in the
	// backend's sign convention.
	Jitter        f32.Vec2
	ExposureScale float32
	ResetHistory  bool
	InputExtent   resource.Extent
}

// Backend is the contract of a vendor upscaling SDK.
type Backend interface {
	// Name identifies the SDK in logs.
	Name() string

	// Available reports whether the SDK can run on this build and device.
	Available() bool

	// QueryOptimalInputResolution asks the SDK for the render resolution it
	// prefers for display at the given quality.
	QueryOptimalInputResolution(device hal.Device, display resource.Extent, mode QualityMode) (resource.Extent, error)

	Initialize(cfg Config) error
	Resize(render, display resource.Extent) error

	// Dispatch records the upscale into in.Encoder. Output is left in the
	// General layout.
	Dispatch(in *Input) error

	Destroy()
}

// Factory creates a backend for one upscaler instance.
type Factory func() Backend

// Unavailable is the backend used when no SDK is linked. Every operation
// reports ErrUnavailable, so the upscaler always takes its fallback path.
type Unavailable struct{}

func (Unavailable) Name() string    { return "unavailable" }
func (Unavailable) Available() bool { return false }

func (Unavailable) QueryOptimalInputResolution(hal.Device, resource.Extent, QualityMode) (resource.Extent, error) {
	return resource.Extent{}, ErrUnavailable
}

func (Unavailable) Initialize(Config) error                       { return ErrUnavailable }
func (Unavailable) Resize(resource.Extent, resource.Extent) error { return ErrUnavailable }
func (Unavailable) Dispatch(*Input) error                         { return ErrUnavailable }
func (Unavailable) Destroy()                                      {}
