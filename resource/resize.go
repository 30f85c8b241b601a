// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/framegraph/internal/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/resize.wgsl
var resizeWGSL string

// Resizer scales one image into another of a fixed destination format with a
// bilinear compute pass. It stands in for a blit, which the HAL does not
// expose.
type Resizer struct {
	device  hal.Device
	format  gputypes.TextureFormat
	compute *shader.Compute
}

// NewResizer builds the resize pipeline for destination images of format dst.
func NewResizer(device hal.Device, dst gputypes.TextureFormat) (*Resizer, error) {
	texel, ok := shader.StorageTextureFormat(dst)
	if !ok {
		return nil, fmt.Errorf("resource: resize: unsupported destination format %s", dst)
	}
	compute, err := shader.NewCompute(device, shader.ComputeDescriptor{
		Label:  "resize_" + texel,
		Source: strings.ReplaceAll(resizeWGSL, "STORAGE_FORMAT", texel),
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				StorageTexture: &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessWriteOnly,
					Format:        dst,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("resource: resize: %w", err)
	}
	return &Resizer{device: device, format: dst, compute: compute}, nil
}

// Format returns the destination format the resizer was built for.
func (r *Resizer) Format() gputypes.TextureFormat { return r.format }

// Bind prepares a resize from src into dst. Bindings are created once at
// build time and reused every frame.
func (r *Resizer) Bind(src, dst *Image) (*ResizeBinding, error) {
	if dst.Format() != r.format {
		return nil, fmt.Errorf("resource: resize: destination %s is %s, resizer expects %s",
			dst.Label(), dst.Format(), r.format)
	}
	group, err := r.compute.BindGroup(src.Label()+"_to_"+dst.Label(), []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: src.View().NativeHandle()}},
		{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: dst.View().NativeHandle()}},
	})
	if err != nil {
		return nil, fmt.Errorf("resource: resize: %w", err)
	}
	return &ResizeBinding{resizer: r, src: src, dst: dst, group: group}, nil
}

// Destroy releases the pipeline. Bindings must be destroyed first.
func (r *Resizer) Destroy() {
	if r == nil {
		return
	}
	r.compute.Destroy()
}

// ResizeBinding is a resize from one fixed source to one fixed destination.
type ResizeBinding struct {
	resizer *Resizer
	src     *Image
	dst     *Image
	group   hal.BindGroup
}

// Record transitions the source to ShaderRead and the destination to General,
// then dispatches the resize. The destination is left in General.
func (b *ResizeBinding) Record(enc *Encoder) {
	enc.Transition(
		enc.OnQueue(Transition{
			Image:        b.src,
			SyncBefore:   SyncAllShaders | SyncTransfer,
			SyncAfter:    SyncComputeShader,
			AccessBefore: AccessMemoryWrite,
			AccessAfter:  AccessShaderRead,
			LayoutAfter:  LayoutShaderRead,
		}),
		enc.OnQueue(Transition{
			Image:        b.dst,
			SyncBefore:   SyncAllShaders | SyncTransfer,
			SyncAfter:    SyncComputeShader,
			AccessBefore: AccessMemory,
			AccessAfter:  AccessShaderWrite,
			LayoutAfter:  LayoutGeneral,
		}),
	)
	b.resizer.compute.Dispatch(enc.Raw(), b.group, b.dst.Width(), b.dst.Height())
}

// Destroy releases the bind group.
func (b *ResizeBinding) Destroy() {
	if b == nil || b.group == nil {
		return
	}
	b.resizer.device.DestroyBindGroup(b.group)
	b.group = nil
}
