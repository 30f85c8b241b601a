// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"io"
	"slices"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// World is a built module chain: the shared image pool, one module instance
// per descriptor and one executor context per frame in flight.
type World struct {
	env      *module.Env
	bp       *blueprint.Blueprint
	pool     *resource.Pool
	modules  []module.Module
	contexts []*Context
}

// Build turns a blueprint into live modules.
//
// Slot 0 is allocated at the display extent in every frame before any module
// runs. Modules are then constructed in reverse declared order so that each
// negotiation sees the slots already pinned by downstream modules. Every
// module gets its attributes, then for each frame its outputs and then its
// inputs negotiated, then Build once.
//
// On any error every resource created so far is released and no World is
// returned.
func Build(env *module.Env, bp *blueprint.Blueprint, reg *Registry, handoff resource.Layout) (*World, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if missing := reg.Missing(bp); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoConstructor, missing)
	}

	w := &World{
		env:     env,
		bp:      bp,
		pool:    resource.NewPool(env.Frames, bp.Slots()),
		modules: make([]module.Module, bp.Len()),
	}

	for f := range env.Frames {
		img, err := resource.NewImage(env.Device, resource.ImageDesc{
			Label:  slotLabel(0, f),
			Extent: env.Extent,
			Format: bp.Format(0),
		})
		if err != nil {
			w.Destroy()
			return nil, fmt.Errorf("pipeline: allocate output slot: %w", err)
		}
		w.pool.Set(f, 0, img)
	}

	for i := bp.Len() - 1; i >= 0; i-- {
		if err := w.buildModule(i, reg); err != nil {
			w.Destroy()
			return nil, err
		}
	}

	w.contexts = make([]*Context, env.Frames)
	for f := range env.Frames {
		w.contexts[f] = &Context{
			frame:   f,
			output:  w.pool.Get(f, 0),
			modules: make([]module.Context, len(w.modules)),
			handoff: handoff,
		}
	}
	for i, m := range w.modules {
		ctxs := m.Contexts()
		if len(ctxs) != env.Frames {
			w.Destroy()
			return nil, fmt.Errorf("%w: module %d (%s) returned %d, want %d",
				ErrContexts, i, m.Kind(), len(ctxs), env.Frames)
		}
		for f, c := range ctxs {
			w.contexts[f].modules[i] = c
		}
	}

	slogger().Info("pipeline: world built",
		"modules", bp.Len(),
		"slots", bp.Slots(),
		"frames", env.Frames,
		"extent", env.Extent.String())
	return w, nil
}

func (w *World) buildModule(i int, reg *Registry) error {
	d := w.bp.Module(i)
	ctor, _ := reg.Lookup(d.Kind)
	m, err := ctor(w.env)
	if err != nil {
		return fmt.Errorf("pipeline: construct module %d (%s): %w", i, d.Kind, err)
	}
	w.modules[i] = m

	m.SetAttributes(d.Attributes)

	for f := range w.env.Frames {
		if err := w.negotiate(i, m, d, f, Outputs); err != nil {
			return err
		}
		if err := w.negotiate(i, m, d, f, Inputs); err != nil {
			return err
		}
	}

	if err := m.Build(); err != nil {
		return fmt.Errorf("%w: module %d (%s): %w", ErrBuild, i, d.Kind, err)
	}
	slogger().Debug("pipeline: module built", "index", i, "kind", d.Kind.String())
	return nil
}

// negotiate runs one negotiate/fallback/retry round for one side of a module.
func (w *World) negotiate(i int, m module.Module, d blueprint.Descriptor, frame int, dir Direction) error {
	slots, call := d.Outputs, m.SetOrCreateOutputImages
	if dir == Inputs {
		slots, call = d.Inputs, m.SetOrCreateInputImages
	}
	if len(slots) == 0 {
		return nil
	}
	formats := w.bp.Formats(slots)

	images := w.pool.Gather(frame, slots)
	if call(images, formats, frame) {
		return w.accept(i, d, frame, dir, slots, images, resource.Extent{})
	}
	w.discard(frame, slots, images)

	extent := w.inferExtent(frame, d)
	slogger().Debug("pipeline: negotiation rejected, allocating fallback images",
		"module", i,
		"kind", d.Kind.String(),
		"frame", frame,
		"direction", dir.String(),
		"extent", extent.String())
	if err := w.allocateMissing(frame, slots, formats, extent); err != nil {
		return err
	}

	images = w.pool.Gather(frame, slots)
	if call(images, formats, frame) {
		return w.accept(i, d, frame, dir, slots, images, extent)
	}
	w.discard(frame, slots, images)
	return &NegotiationError{Module: i, Kind: d.Kind, Frame: frame, Direction: dir, Extent: extent}
}

// accept writes accepted images back to the pool. A module that accepts
// while leaving a slot empty breaks the chain and is reported as a failed
// negotiation. Pool images the module replaced are destroyed; nothing has
// been submitted while the world is built.
func (w *World) accept(i int, d blueprint.Descriptor, frame int, dir Direction, slots []int,
	images []*resource.Image, extent resource.Extent) error {
	for _, img := range images {
		if img == nil {
			w.discard(frame, slots, images)
			return &NegotiationError{Module: i, Kind: d.Kind, Frame: frame, Direction: dir, Extent: extent}
		}
	}
	for _, old := range w.pool.Scatter(frame, slots, images) {
		slogger().Warn("pipeline: module replaced a pooled image",
			"module", i,
			"kind", d.Kind.String(),
			"frame", frame,
			"image", old.String())
		old.Destroy()
	}
	return nil
}

// discard destroys images a module created during a rejected negotiation.
// Images already in the pool are kept.
func (w *World) discard(frame int, slots []int, images []*resource.Image) {
	pooled := w.pool.Gather(frame, slots)
	for j, img := range images {
		if img != nil && !slices.Contains(pooled, img) {
			img.Destroy()
			images[j] = nil
		}
	}
}

// inferExtent picks the size for fallback images: the first resolved output
// slot, else the first resolved input slot, else the display extent.
func (w *World) inferExtent(frame int, d blueprint.Descriptor) resource.Extent {
	for _, slots := range [][]int{d.Outputs, d.Inputs} {
		for _, s := range slots {
			if img := w.pool.Get(frame, s); img != nil {
				return img.Extent()
			}
		}
	}
	return w.env.Extent
}

// allocateMissing creates images for the empty cells among slots.
func (w *World) allocateMissing(frame int, slots []int, formats []gputypes.TextureFormat, extent resource.Extent) error {
	for j, s := range slots {
		if w.pool.Get(frame, s) != nil {
			continue
		}
		img, err := resource.NewImage(w.env.Device, resource.ImageDesc{
			Label:  slotLabel(s, frame),
			Extent: extent,
			Format: formats[j],
		})
		if err != nil {
			return fmt.Errorf("pipeline: allocate slot %d frame %d: %w", s, frame, err)
		}
		w.pool.Set(frame, s, img)
	}
	return nil
}

// Blueprint returns the blueprint the world was built from.
func (w *World) Blueprint() *blueprint.Blueprint { return w.bp }

// Pool returns the shared image pool.
func (w *World) Pool() *resource.Pool { return w.pool }

// Module returns the i-th module in declared order.
func (w *World) Module(i int) module.Module { return w.modules[i] }

// Context returns the executor context of a frame in flight.
func (w *World) Context(frame int) *Context { return w.contexts[frame] }

// Output returns the slot 0 image of a frame in flight.
func (w *World) Output(frame int) *resource.Image { return w.pool.Get(frame, 0) }

// BindTexture forwards an externally owned texture to every module.
func (w *World) BindTexture(sampler hal.Sampler, image *resource.Image, index int) {
	for _, m := range w.modules {
		m.BindTexture(sampler, image, index)
	}
}

// PreClose runs every module's pre-close step in declared order.
func (w *World) PreClose() {
	for _, m := range w.modules {
		if m != nil {
			m.PreClose()
		}
	}
}

// Destroy releases module resources and the pool immediately. Use Retire
// when GPU work may still reference them.
func (w *World) Destroy() {
	w.PreClose()
	for i, m := range w.modules {
		if m != nil {
			m.Destroy()
			w.modules[i] = nil
		}
	}
	w.pool.Destroy()
}

// Retire pre-closes every module and hands modules and pool to the
// collector.
func (w *World) Retire(c *resource.Collector) {
	w.PreClose()
	for _, m := range w.modules {
		if m != nil {
			c.Retire(m)
		}
	}
	c.Retire(w.pool)
}

// Dump writes the shared pool state.
func (w *World) Dump(out io.Writer) error { return w.pool.Dump(out) }

func slotLabel(slot, frame int) string {
	return fmt.Sprintf("slot%d_f%d", slot, frame)
}
