// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package upscaler implements the super-resolution world module shared by
// the FSR 3, XeSS and DLSS kinds.
//
// The module renders upstream stages at a reduced render resolution and
// produces display-resolution output. Render resolution comes from the
// backend's optimal-resolution query when it answers, otherwise from the
// fixed ratio table of the selected QualityMode.
//
// When the backend is disabled, fails to initialize, or fails a dispatch,
// the module resizes its render-resolution inputs straight to its outputs
// instead. The fallback fills the same slots and leaves them in the same
// layouts, so downstream modules never see the difference except in quality.
//
// # Slots
//
// Inputs, in descriptor order: color, linear depth, motion vectors, first-hit
// depth. Outputs: color, first-hit depth. Inputs are at render resolution,
// outputs at display resolution.
//
// # Attributes
//
// Keys are accepted bare or prefixed with the kind's attribute prefix, for
// example "render_pipeline.module.xess_sr.attribute.quality_mode":
//
//	enable        1/0/true/false; anything else enables
//	quality_mode  0..6, an alias such as "balanced", or a qualified name
//	pre_exposure  float exposure scale passed to the backend
package upscaler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

// Input slot positions.
const (
	InputColor = iota
	InputDepth
	InputMotion
	InputFirstHitDepth

	inputCount
)

// Output slot positions.
const (
	OutputColor = iota
	OutputFirstHitDepth

	outputCount
)

var (
	// ErrKind is returned when constructing an upscaler for a kind that is
	// not an upscaler.
	ErrKind = errors.New("upscaler: kind is not an upscaler")

	// ErrNotNegotiated is returned by Build when a slot image is missing.
	ErrNotNegotiated = errors.New("upscaler: images not negotiated")
)

// State is the lifecycle position of an Upscaler.
type State uint8

const (
	// StateUnconfigured is the state after construction and teardown.
	StateUnconfigured State = iota
	// StateNegotiated means slot images have been accepted.
	StateNegotiated
	// StateBuilt means Build succeeded and no frame has rendered yet.
	StateBuilt
	// StateActive means the last frame went through the backend.
	StateActive
	// StateFallback means the last frame used the resize path.
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateNegotiated:
		return "negotiated"
	case StateBuilt:
		return "built"
	case StateActive:
		return "active"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

func slogger() *slog.Logger { return framegraph.Logger() }

// Kinds returns the blueprint kinds the upscaler serves.
func Kinds() []blueprint.Kind {
	return []blueprint.Kind{
		blueprint.KindFSR3Upscaler,
		blueprint.KindXeSSUpscaler,
		blueprint.KindDLSSUpscaler,
	}
}

// New returns a constructor for kind. Each module gets its own backend from
// factory; a nil factory yields Unavailable.
func New(kind blueprint.Kind, factory Factory) module.Constructor {
	return func(env *module.Env) (module.Module, error) {
		return NewUpscaler(env, kind, factory)
	}
}

// Upscaler is the super-resolution module.
type Upscaler struct {
	kind    blueprint.Kind
	env     *module.Env
	session *Session

	enabled     bool
	quality     QualityMode
	preExposure float32
	render      resource.Extent
	display     resource.Extent
	history     History
	state       State

	// inputs and outputs hold the negotiated slot images per frame. The
	// pool owns them.
	inputs  [][]*resource.Image
	outputs [][]*resource.Image

	depth       *depthPass
	colorResize *resource.Resizer
	fhdResize   *resource.Resizer
	contexts    []*Context
}

// NewUpscaler creates an unconfigured upscaler for kind.
func NewUpscaler(env *module.Env, kind blueprint.Kind, factory Factory) (*Upscaler, error) {
	if !slices.Contains(Kinds(), kind) {
		return nil, fmt.Errorf("%w: %s", ErrKind, kind)
	}
	if env == nil {
		return nil, module.ErrNoDevice
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	var backend Backend
	if factory != nil {
		backend = factory()
	}
	u := &Upscaler{
		kind:        kind,
		env:         env,
		session:     NewSession(backend),
		enabled:     true,
		quality:     DefaultQuality,
		preExposure: 1,
		inputs:      make([][]*resource.Image, env.Frames),
		outputs:     make([][]*resource.Image, env.Frames),
	}
	for f := range env.Frames {
		u.inputs[f] = make([]*resource.Image, inputCount)
		u.outputs[f] = make([]*resource.Image, outputCount)
	}
	return u, nil
}

// Kind returns the blueprint kind.
func (u *Upscaler) Kind() blueprint.Kind { return u.kind }

// State returns the lifecycle state.
func (u *Upscaler) State() State { return u.state }

// Enabled reports the enable attribute.
func (u *Upscaler) Enabled() bool { return u.enabled }

// Quality returns the selected quality mode.
func (u *Upscaler) Quality() QualityMode { return u.quality }

// PreExposure returns the exposure scale passed to the backend.
func (u *Upscaler) PreExposure() float32 { return u.preExposure }

// RenderExtent returns the resolved render resolution, zero until known.
func (u *Upscaler) RenderExtent() resource.Extent { return u.render }

// DisplayExtent returns the resolved display resolution, zero until known.
func (u *Upscaler) DisplayExtent() resource.Extent { return u.display }

// Session returns the backend session.
func (u *Upscaler) Session() *Session { return u.session }

// deriveRender sets the render resolution for the current display
// resolution and quality: the backend's answer when enabled and the device
// is real hardware, otherwise the ratio table.
func (u *Upscaler) deriveRender() {
	if u.enabled && !u.env.SoftwareAdapter() {
		ext, err := u.session.Query(u.env.Device, u.display, u.quality)
		if err == nil {
			u.render = ext
			return
		}
		slogger().Debug("upscaler: optimal resolution query failed, using ratio table",
			"kind", u.kind.String(), "backend", u.session.Name(), "err", err)
	}
	u.render = u.quality.RenderExtent(u.display)
}

// SetOrCreateOutputImages pins the display resolution to the first existing
// output image, or the swapchain extent, and creates missing outputs at it.
func (u *Upscaler) SetOrCreateOutputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool {
	if len(images) != outputCount || len(formats) != outputCount || frame < 0 || frame >= len(u.outputs) {
		return false
	}
	if u.display.IsZero() {
		if img := firstImage(images); img != nil {
			u.display = img.Extent()
		} else {
			u.display = u.env.Extent
		}
	}
	if !u.fill(images, formats, u.display, "out", frame) {
		return false
	}
	copy(u.outputs[frame], images)
	u.negotiated()
	return true
}

// SetOrCreateInputImages pins the render resolution to the first existing
// input image, or derives it from the display resolution, and creates
// missing inputs at it.
func (u *Upscaler) SetOrCreateInputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool {
	if len(images) != inputCount || len(formats) != inputCount || frame < 0 || frame >= len(u.inputs) {
		return false
	}
	if u.display.IsZero() {
		u.display = u.env.Extent
	}
	if u.render.IsZero() {
		if img := firstImage(images); img != nil {
			u.render = img.Extent()
		} else {
			u.deriveRender()
		}
	}
	if !u.fill(images, formats, u.render, "in", frame) {
		return false
	}
	copy(u.inputs[frame], images)
	u.negotiated()
	return true
}

// fill creates nil entries at extent and reports false if an existing image
// has a different extent or a format other than the slot's.
func (u *Upscaler) fill(images []*resource.Image, formats []gputypes.TextureFormat, extent resource.Extent, side string, frame int) bool {
	for i, img := range images {
		if img != nil {
			if img.Extent() != extent || img.Format() != formats[i] {
				slogger().Debug("upscaler: rejecting image",
					"kind", u.kind.String(),
					"image", img.String(),
					"want", extent.String(),
					"format", formats[i].String())
				return false
			}
			continue
		}
		created, err := resource.NewImage(u.env.Device, resource.ImageDesc{
			Label:  fmt.Sprintf("%s_%s%d_f%d", u.kind.Key(), side, i, frame),
			Extent: extent,
			Format: formats[i],
		})
		if err != nil {
			slogger().Warn("upscaler: create image failed", "kind", u.kind.String(), "err", err)
			return false
		}
		images[i] = created
	}
	return true
}

func (u *Upscaler) negotiated() {
	if u.state == StateUnconfigured {
		u.state = StateNegotiated
	}
}

func firstImage(images []*resource.Image) *resource.Image {
	for _, img := range images {
		if img != nil {
			return img
		}
	}
	return nil
}

// Build initializes the backend when enabled and creates the depth
// conversion pass, the fallback resizers and one context per frame. Any
// previous build is released first. A backend that fails to initialize is
// not an error: the module then runs the fallback path every frame.
func (u *Upscaler) Build() error {
	u.release()
	for f := range u.inputs {
		if slices.Contains(u.inputs[f], nil) || slices.Contains(u.outputs[f], nil) {
			return fmt.Errorf("%w: frame %d", ErrNotNegotiated, f)
		}
	}

	if u.enabled {
		err := u.session.Initialize(Config{
			Device:        u.env.Device,
			Queue:         u.env.Queue,
			Render:        u.render,
			Display:       u.display,
			Quality:       u.quality,
			VelocityScale: f32.Vec2{1, 1},
		})
		if err != nil {
			slogger().Warn("upscaler: backend initialization failed, using fallback",
				"kind", u.kind.String(), "backend", u.session.Name(), "err", err)
		} else {
			slogger().Info("upscaler: backend initialized",
				"kind", u.kind.String(),
				"backend", u.session.Name(),
				"quality", u.quality.String(),
				"render", u.render.String(),
				"display", u.display.String())
		}
	} else {
		u.session.Destroy()
		slogger().Info("upscaler: disabled, using fallback", "kind", u.kind.String())
	}

	if err := u.buildPasses(); err != nil {
		u.release()
		return err
	}
	u.state = StateBuilt
	return nil
}

func (u *Upscaler) buildPasses() error {
	var err error
	dev := u.env.Device
	if u.depth, err = newDepthPass(dev); err != nil {
		return fmt.Errorf("upscaler: depth pass: %w", err)
	}
	if u.colorResize, err = resource.NewResizer(dev, u.outputs[0][OutputColor].Format()); err != nil {
		return err
	}
	if u.fhdResize, err = resource.NewResizer(dev, u.outputs[0][OutputFirstHitDepth].Format()); err != nil {
		return err
	}

	u.contexts = make([]*Context, len(u.inputs))
	for f := range u.inputs {
		in, out := u.inputs[f], u.outputs[f]
		c := &Context{module: u, frame: f}
		u.contexts[f] = c
		if c.depth, err = u.depth.bind(u.env.Queue, in[InputDepth], in[InputMotion], u.render, f); err != nil {
			return err
		}
		if c.color, err = u.colorResize.Bind(in[InputColor], out[OutputColor]); err != nil {
			return err
		}
		if c.fhd, err = u.fhdResize.Bind(in[InputFirstHitDepth], out[OutputFirstHitDepth]); err != nil {
			return err
		}
	}
	return nil
}

// Contexts returns one context per frame in flight.
func (u *Upscaler) Contexts() []module.Context {
	out := make([]module.Context, len(u.contexts))
	for i, c := range u.contexts {
		out[i] = c
	}
	return out
}

// BindTexture is a no-op: the upscaler samples no external textures.
func (u *Upscaler) BindTexture(hal.Sampler, *resource.Image, int) {}

// PreClose releases the backend and forgets camera history.
func (u *Upscaler) PreClose() {
	u.session.Destroy()
	u.history.Reset()
	u.state = StateUnconfigured
}

// Destroy releases the backend and every private GPU resource. Slot images
// belong to the pool and are left alone.
func (u *Upscaler) Destroy() {
	u.PreClose()
	u.release()
}

// release destroys what Build created, bindings before pipelines.
func (u *Upscaler) release() {
	for _, c := range u.contexts {
		if c == nil {
			continue
		}
		c.depth.destroy()
		c.color.Destroy()
		c.fhd.Destroy()
	}
	u.contexts = nil
	u.colorResize.Destroy()
	u.fhdResize.Destroy()
	u.depth.destroy()
	u.colorResize, u.fhdResize, u.depth = nil, nil, nil
}
