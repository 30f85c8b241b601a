// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"golang.org/x/image/math/f32"
)

// Context renders the upscaler for one frame in flight.
type Context struct {
	module *Upscaler
	frame  int

	depth *depthBinding
	color *resource.ResizeBinding
	fhd   *resource.ResizeBinding
}

// Frame returns the frame in flight the context renders.
func (c *Context) Frame() int { return c.frame }

// Render upscales through the backend when it is enabled and initialized,
// and falls back to resizing otherwise or when the dispatch fails. Either
// way both outputs end in the General layout.
func (c *Context) Render(f *module.Frame) {
	u := c.module
	if !u.enabled || !u.session.Initialized() {
		c.fallback(f, nil)
		return
	}
	if err := c.dispatch(f); err != nil {
		c.fallback(f, err)
		return
	}
	c.fhd.Record(f.Encoder)
	if u.state != StateActive {
		slogger().Debug("upscaler: backend active", "kind", u.kind.String(), "frame", f.Number)
	}
	u.state = StateActive
}

func (c *Context) dispatch(f *module.Frame) error {
	u := c.module
	enc := f.Encoder
	in, out := u.inputs[c.frame], u.outputs[c.frame]

	if err := c.depth.record(enc, f.Camera.Jitter); err != nil {
		return err
	}
	enc.Transition(
		enc.OnQueue(resource.Transition{
			Image:        in[InputColor],
			SyncBefore:   resource.SyncRayTracingShader | resource.SyncComputeShader,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessMemory,
			AccessAfter:  resource.AccessShaderRead,
			LayoutAfter:  resource.LayoutShaderRead,
		}),
		enc.OnQueue(resource.Transition{
			Image:        out[OutputColor],
			SyncBefore:   resource.SyncComputeShader | resource.SyncTransfer,
			SyncAfter:    resource.SyncComputeShader,
			AccessBefore: resource.AccessMemory,
			AccessAfter:  resource.AccessMemory,
			LayoutAfter:  resource.LayoutGeneral,
		}),
	)

	jitter := f.Camera.Jitter
	return u.session.Dispatch(&Input{
		Encoder:       enc,
		Color:         in[InputColor],
		Velocity:      c.depth.motion,
		Depth:         c.depth.depth,
		Output:        out[OutputColor],
		Jitter:        f32.Vec2{-jitter[0], -jitter[1]},
		ExposureScale: u.preExposure,
		ResetHistory:  u.history.Check(f.Camera.Position, f.Camera.Direction),
		InputExtent:   u.render,
	})
}

// fallback resizes color and first-hit depth from render to display
// resolution. cause is nil when the backend is off or uninitialized.
func (c *Context) fallback(f *module.Frame, cause error) {
	u := c.module
	if u.state != StateFallback {
		args := []any{"kind", u.kind.String(), "frame", f.Number, "backend", u.session.Name()}
		if cause != nil {
			args = append(args, "err", cause)
		}
		slogger().Warn("upscaler: using resize fallback", args...)
	}
	c.color.Record(f.Encoder)
	c.fhd.Record(f.Encoder)
	u.state = StateFallback
}
