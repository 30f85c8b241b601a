// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package passthrough provides a world module that negotiates images like a
// real stage but only forwards its first input to every output.
//
// It stands in for ray tracing, denoising, temporal accumulation, tone
// mapping and post rendering when their GPU algorithms are not linked, so a
// blueprint can be built and executed end to end.
package passthrough

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func slogger() *slog.Logger { return framegraph.Logger() }

// New returns a constructor for kind.
func New(kind blueprint.Kind) module.Constructor {
	return func(env *module.Env) (module.Module, error) {
		return NewPassthrough(env, kind)
	}
}

// Passthrough is the stand-in module.
type Passthrough struct {
	kind   blueprint.Kind
	env    *module.Env
	attrs  []blueprint.Attribute
	output resource.Extent
	input  resource.Extent

	inputs  [][]*resource.Image
	outputs [][]*resource.Image

	resizers map[gputypes.TextureFormat]*resource.Resizer
	contexts []*Context
	bound    map[int]Binding
}

// Binding is a texture handed to BindTexture.
type Binding struct {
	Sampler hal.Sampler
	Image   *resource.Image
}

// NewPassthrough creates a passthrough module with the arity of kind.
func NewPassthrough(env *module.Env, kind blueprint.Kind) (*Passthrough, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: kind %d", blueprint.ErrUnknownModule, kind)
	}
	if env == nil {
		return nil, module.ErrNoDevice
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	in, out := kind.Arity()
	p := &Passthrough{
		kind:    kind,
		env:     env,
		inputs:  make([][]*resource.Image, env.Frames),
		outputs: make([][]*resource.Image, env.Frames),
		bound:   make(map[int]Binding),
	}
	for f := range env.Frames {
		p.inputs[f] = make([]*resource.Image, in)
		p.outputs[f] = make([]*resource.Image, out)
	}
	return p, nil
}

// Kind returns the blueprint kind.
func (p *Passthrough) Kind() blueprint.Kind { return p.kind }

// Attributes returns the attributes last applied.
func (p *Passthrough) Attributes() []blueprint.Attribute { return p.attrs }

// OutputExtent returns the negotiated output extent.
func (p *Passthrough) OutputExtent() resource.Extent { return p.output }

// InputExtent returns the negotiated input extent.
func (p *Passthrough) InputExtent() resource.Extent { return p.input }

// Bound returns the texture bound at index.
func (p *Passthrough) Bound(index int) (Binding, bool) {
	b, ok := p.bound[index]
	return b, ok
}

// SetAttributes keeps the attributes for inspection. None change behavior.
func (p *Passthrough) SetAttributes(attrs []blueprint.Attribute) {
	p.attrs = slices.Clone(attrs)
}

// SetOrCreateOutputImages pins the output extent to the first existing
// output, else the display extent.
func (p *Passthrough) SetOrCreateOutputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool {
	if frame < 0 || frame >= len(p.outputs) || len(images) != len(p.outputs[frame]) || len(formats) != len(images) {
		return false
	}
	if p.output.IsZero() {
		p.output = p.env.Extent
		if img := first(images); img != nil {
			p.output = img.Extent()
		}
	}
	if !p.fill(images, formats, p.output, "out", frame) {
		return false
	}
	copy(p.outputs[frame], images)
	return true
}

// SetOrCreateInputImages pins the input extent to the first existing input,
// else the output extent, else the display extent.
func (p *Passthrough) SetOrCreateInputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool {
	if frame < 0 || frame >= len(p.inputs) || len(images) != len(p.inputs[frame]) || len(formats) != len(images) {
		return false
	}
	if p.input.IsZero() {
		switch img := first(images); {
		case img != nil:
			p.input = img.Extent()
		case !p.output.IsZero():
			p.input = p.output
		default:
			p.input = p.env.Extent
		}
	}
	if !p.fill(images, formats, p.input, "in", frame) {
		return false
	}
	copy(p.inputs[frame], images)
	return true
}

// fill creates nil entries at extent. An existing image must already match
// both the extent and its slot format.
func (p *Passthrough) fill(images []*resource.Image, formats []gputypes.TextureFormat, extent resource.Extent, side string, frame int) bool {
	for i, img := range images {
		if img != nil {
			if img.Extent() != extent || img.Format() != formats[i] {
				return false
			}
			continue
		}
		created, err := resource.NewImage(p.env.Device, resource.ImageDesc{
			Label:  fmt.Sprintf("%s_%s%d_f%d", p.kind.Key(), side, i, frame),
			Extent: extent,
			Format: formats[i],
		})
		if err != nil {
			slogger().Warn("passthrough: create image failed", "kind", p.kind.String(), "err", err)
			return false
		}
		images[i] = created
	}
	return true
}

func first(images []*resource.Image) *resource.Image {
	for _, img := range images {
		if img != nil {
			return img
		}
	}
	return nil
}

// Build prepares, per frame, a copy or resize from the first input to each
// output. Outputs of a module without inputs are only transitioned.
func (p *Passthrough) Build() error {
	p.release()
	p.resizers = make(map[gputypes.TextureFormat]*resource.Resizer)
	p.contexts = make([]*Context, len(p.outputs))
	for f := range p.outputs {
		c := &Context{module: p, frame: f, outputs: p.outputs[f]}
		p.contexts[f] = c
		if len(p.inputs[f]) == 0 {
			continue
		}
		src := p.inputs[f][0]
		if src == nil {
			p.release()
			return fmt.Errorf("passthrough: %s: input not negotiated for frame %d", p.kind, f)
		}
		c.src = src
		for _, dst := range p.outputs[f] {
			if dst == nil {
				p.release()
				return fmt.Errorf("passthrough: %s: output not negotiated for frame %d", p.kind, f)
			}
			if dst.Matches(src.Extent(), src.Format()) {
				c.copies = append(c.copies, dst)
				continue
			}
			b, err := p.resize(src, dst)
			if err != nil {
				p.release()
				return err
			}
			c.resizes = append(c.resizes, b)
		}
	}
	slogger().Debug("passthrough: built",
		"kind", p.kind.String(),
		"input", p.input.String(),
		"output", p.output.String(),
		"resizers", len(p.resizers))
	return nil
}

func (p *Passthrough) resize(src, dst *resource.Image) (*resource.ResizeBinding, error) {
	r, ok := p.resizers[dst.Format()]
	if !ok {
		var err error
		if r, err = resource.NewResizer(p.env.Device, dst.Format()); err != nil {
			return nil, fmt.Errorf("passthrough: %s: %w", p.kind, err)
		}
		p.resizers[dst.Format()] = r
	}
	return r.Bind(src, dst)
}

// Contexts returns one context per frame in flight.
func (p *Passthrough) Contexts() []module.Context {
	out := make([]module.Context, len(p.contexts))
	for i, c := range p.contexts {
		out[i] = c
	}
	return out
}

// BindTexture records the binding.
func (p *Passthrough) BindTexture(sampler hal.Sampler, image *resource.Image, index int) {
	p.bound[index] = Binding{Sampler: sampler, Image: image}
}

// PreClose is a no-op.
func (p *Passthrough) PreClose() {}

// Destroy releases resizers and bindings. Slot images belong to the pool.
func (p *Passthrough) Destroy() {
	p.release()
	clear(p.bound)
}

func (p *Passthrough) release() {
	for _, c := range p.contexts {
		for _, b := range c.resizes {
			b.Destroy()
		}
	}
	p.contexts = nil
	for _, r := range p.resizers {
		r.Destroy()
	}
	p.resizers = nil
}
