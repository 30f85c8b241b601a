package shader

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// WorkgroupSize is the edge length of the 2D workgroups used by every
// full-screen compute shader in framegraph.
const WorkgroupSize = 16

// Groups returns the number of workgroups needed to cover n invocations.
func Groups(n uint32) uint32 {
	return (n + WorkgroupSize - 1) / WorkgroupSize
}

// ComputeDescriptor describes a single-bind-group compute pipeline.
type ComputeDescriptor struct {
	Label      string
	Source     string
	EntryPoint string
	Entries    []gputypes.BindGroupLayoutEntry
}

// Compute owns a compute pipeline and the objects it was built from.
type Compute struct {
	device         hal.Device
	label          string
	module         hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.ComputePipeline
}

// NewCompute builds shader module, bind group layout, pipeline layout and
// compute pipeline in that order. On failure everything created so far is
// destroyed.
func NewCompute(device hal.Device, desc ComputeDescriptor) (*Compute, error) {
	if device == nil {
		return nil, fmt.Errorf("shader: %s: nil device", desc.Label)
	}
	entry := desc.EntryPoint
	if entry == "" {
		entry = "main"
	}

	c := &Compute{device: device, label: desc.Label}

	source := hal.ShaderSource{WGSL: desc.Source}
	if words, err := CompileSPIRV(desc.Source); err == nil {
		source = hal.ShaderSource{SPIRV: words}
	} else {
		framegraph.Logger().Debug("shader: naga compile failed, passing WGSL to backend",
			"label", desc.Label, "err", err)
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: create shader module for %s: %w", desc.Label, err)
	}
	c.module = module

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bgl",
		Entries: desc.Entries,
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("shader: create bind group layout for %s: %w", desc.Label, err)
	}
	c.bindLayout = bindLayout

	pipelineLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("shader: create pipeline layout for %s: %w", desc.Label, err)
	}
	c.pipelineLayout = pipelineLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: entry,
		},
	})
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("shader: create compute pipeline for %s: %w", desc.Label, err)
	}
	c.pipeline = pipeline

	framegraph.Logger().Debug("shader: compute pipeline created",
		"label", desc.Label,
		"bindings", len(desc.Entries),
		"spirv", source.SPIRV != nil)
	return c, nil
}

// BindGroup creates a bind group against the pipeline's only layout.
func (c *Compute) BindGroup(label string, entries []gputypes.BindGroupEntry) (hal.BindGroup, error) {
	bg, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  c.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: create bind group %s: %w", label, err)
	}
	return bg, nil
}

// Dispatch records one compute pass covering width x height invocations.
func (c *Compute) Dispatch(enc hal.CommandEncoder, group hal.BindGroup, width, height uint32) {
	pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: c.label})
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.Dispatch(Groups(width), Groups(height), 1)
	pass.End()
}

// Destroy releases the pipeline objects in reverse creation order.
// Safe to call on a partially built or already destroyed Compute.
func (c *Compute) Destroy() {
	if c == nil || c.device == nil {
		return
	}
	if c.pipeline != nil {
		c.device.DestroyComputePipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.pipelineLayout != nil {
		c.device.DestroyPipelineLayout(c.pipelineLayout)
		c.pipelineLayout = nil
	}
	if c.bindLayout != nil {
		c.device.DestroyBindGroupLayout(c.bindLayout)
		c.bindLayout = nil
	}
	if c.module != nil {
		c.device.DestroyShaderModule(c.module)
		c.module = nil
	}
}

// StorageTextureFormat returns the WGSL storage texel format name for f.
func StorageTextureFormat(f gputypes.TextureFormat) (string, bool) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return "rgba8unorm", true
	case gputypes.TextureFormatRGBA8Snorm:
		return "rgba8snorm", true
	case gputypes.TextureFormatBGRA8Unorm:
		return "bgra8unorm", true
	case gputypes.TextureFormatRGBA16Float:
		return "rgba16float", true
	case gputypes.TextureFormatRGBA32Float:
		return "rgba32float", true
	case gputypes.TextureFormatR32Float:
		return "r32float", true
	case gputypes.TextureFormatRG32Float:
		return "rg32float", true
	case gputypes.TextureFormatR16Float:
		return "r16float", true
	case gputypes.TextureFormatRG16Float:
		return "rg16float", true
	default:
		return "", false
	}
}
