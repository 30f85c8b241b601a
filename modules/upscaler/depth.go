// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/framegraph/internal/shader"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

//go:embed shaders/linear_to_device_depth.wgsl
var depthWGSL string

const (
	cameraNear = 0.1
	cameraFar  = 10000.0

	// depthParamsSize is the Params uniform: near, far, width, height,
	// jitter and padding to 16 bytes.
	depthParamsSize = 32

	deviceDepthFormat = gputypes.TextureFormatR32Float
	motionFormat      = gputypes.TextureFormatRG32Float

	privateUsage = gputypes.TextureUsageStorageBinding | gputypes.TextureUsageTextureBinding
)

// depthPass is the conversion pipeline shared by every frame in flight.
type depthPass struct {
	device  hal.Device
	compute *shader.Compute
}

func newDepthPass(device hal.Device) (*depthPass, error) {
	sampled := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	storage := func(f gputypes.TextureFormat) *gputypes.StorageTextureBindingLayout {
		return &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessWriteOnly,
			Format:        f,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	}
	compute, err := shader.NewCompute(device, shader.ComputeDescriptor{
		Label:  "linear_to_device_depth",
		Source: depthWGSL,
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Texture: sampled},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, StorageTexture: storage(deviceDepthFormat)},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Texture: sampled},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, StorageTexture: storage(motionFormat)},
			{
				Binding:    4,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: depthParamsSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &depthPass{device: device, compute: compute}, nil
}

func (p *depthPass) destroy() {
	if p == nil {
		return
	}
	p.compute.Destroy()
}

// depthBinding is one frame's conversion: the module's linear depth and
// motion vector inputs, the private images the pass writes, and the
// parameter buffer.
type depthBinding struct {
	pass     *depthPass
	queue    hal.Queue
	extent   resource.Extent
	linear   *resource.Image
	motionIn *resource.Image

	depth  *resource.Image
	motion *resource.Image
	params hal.Buffer
	group  hal.BindGroup
}

// bind creates the private images at render resolution and the bind group
// for one frame. On error everything created is released.
func (p *depthPass) bind(queue hal.Queue, linear, motionIn *resource.Image, render resource.Extent, frame int) (*depthBinding, error) {
	b := &depthBinding{pass: p, queue: queue, extent: render, linear: linear, motionIn: motionIn}

	var err error
	b.depth, err = resource.NewImage(p.device, resource.ImageDesc{
		Label:  fmt.Sprintf("upscaler_device_depth_f%d", frame),
		Extent: render,
		Format: deviceDepthFormat,
		Usage:  privateUsage,
	})
	if err != nil {
		return nil, err
	}
	b.motion, err = resource.NewImage(p.device, resource.ImageDesc{
		Label:  fmt.Sprintf("upscaler_motion_f%d", frame),
		Extent: render,
		Format: motionFormat,
		Usage:  privateUsage,
	})
	if err != nil {
		b.destroy()
		return nil, err
	}
	b.params, err = p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("upscaler_depth_params_f%d", frame),
		Size:  depthParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.destroy()
		return nil, fmt.Errorf("upscaler: create depth params buffer: %w", err)
	}
	b.group, err = p.compute.BindGroup(fmt.Sprintf("upscaler_depth_f%d", frame), []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: linear.View().NativeHandle()}},
		{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: b.depth.View().NativeHandle()}},
		{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: motionIn.View().NativeHandle()}},
		{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: b.motion.View().NativeHandle()}},
		{Binding: 4, Resource: gputypes.BufferBinding{Buffer: b.params.NativeHandle(), Size: depthParamsSize}},
	})
	if err != nil {
		b.destroy()
		return nil, err
	}
	return b, nil
}

// record uploads the frame's parameters and converts depth and motion. The
// private images are left in ShaderRead for the backend.
func (b *depthBinding) record(enc *resource.Encoder, jitter f32.Vec2) error {
	if err := b.queue.WriteBuffer(b.params, 0, depthParams(b.extent, jitter)); err != nil {
		return fmt.Errorf("upscaler: write depth params: %w", err)
	}

	enc.Transition(
		enc.OnQueue(resource.Transition{
			Image:        b.linear,
			SyncBefore:   resource.SyncRayTracingShader | resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessMemory,
			AccessAfter:  resource.AccessShaderRead,
			LayoutAfter:  resource.LayoutShaderRead,
		}),
		enc.OnQueue(resource.Transition{
			Image:        b.motionIn,
			SyncBefore:   resource.SyncRayTracingShader | resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessMemory,
			AccessAfter:  resource.AccessShaderRead,
			LayoutAfter:  resource.LayoutShaderRead,
		}),
		enc.OnQueue(resource.Transition{
			Image:        b.depth,
			SyncBefore:   resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessMemory,
			AccessAfter:  resource.AccessShaderWrite,
			LayoutAfter:  resource.LayoutGeneral,
		}),
		enc.OnQueue(resource.Transition{
			Image:        b.motion,
			SyncBefore:   resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessShaderRead | resource.AccessShaderWrite,
			AccessAfter:  resource.AccessShaderWrite,
			LayoutAfter:  resource.LayoutGeneral,
		}),
	)

	b.pass.compute.Dispatch(enc.Raw(), b.group, b.extent.Width, b.extent.Height)

	enc.Transition(
		enc.OnQueue(resource.Transition{
			Image:        b.depth,
			SyncBefore:   resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessShaderWrite,
			AccessAfter:  resource.AccessShaderRead,
			LayoutAfter:  resource.LayoutShaderRead,
		}),
		enc.OnQueue(resource.Transition{
			Image:        b.motion,
			SyncBefore:   resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessShaderWrite,
			AccessAfter:  resource.AccessShaderRead,
			LayoutAfter:  resource.LayoutShaderRead,
		}),
	)
	return nil
}

func (b *depthBinding) destroy() {
	if b == nil {
		return
	}
	dev := b.pass.device
	if b.group != nil {
		dev.DestroyBindGroup(b.group)
		b.group = nil
	}
	if b.params != nil {
		dev.DestroyBuffer(b.params)
		b.params = nil
	}
	if b.motion != nil {
		b.motion.Destroy()
	}
	if b.depth != nil {
		b.depth.Destroy()
	}
}

// depthParams encodes the Params uniform.
func depthParams(render resource.Extent, jitter f32.Vec2) []byte {
	buf := make([]byte, depthParamsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], math.Float32bits(cameraNear))
	le.PutUint32(buf[4:8], math.Float32bits(cameraFar))
	le.PutUint32(buf[8:12], render.Width)
	le.PutUint32(buf[12:16], render.Height)
	le.PutUint32(buf[16:20], math.Float32bits(jitter[0]))
	le.PutUint32(buf[20:24], math.Float32bits(jitter[1]))
	// Padding bytes 24..31 remain zero.
	return buf
}
