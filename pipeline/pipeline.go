// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline builds a world module chain from a blueprint and records
// it once per displayed frame.
//
// Construction walks the blueprint in reverse declared order and negotiates
// slot images module by module. Execution walks the same modules in forward
// order. Both are plain iterations over one slice: the topology is linear.
package pipeline

import (
	"fmt"
	"io"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline owns the current world and replaces it when the blueprint or the
// display extent changes.
//
// Pipeline is not safe for concurrent use. Recreation and rendering happen on
// the render thread.
type Pipeline struct {
	env       *module.Env
	opts      options
	collector *resource.Collector

	bp     *blueprint.Blueprint
	world  *World
	dirty  bool
	closed bool
	frame  uint64
}

// New creates a pipeline without a world. Call SetBlueprint and Recreate
// before Render.
func New(env *module.Env, opts ...Option) *Pipeline {
	o := defaultOptions(env.Frames)
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{
		env:       env,
		opts:      o,
		collector: resource.NewCollector(env.Queue, o.collectorDepth),
	}
}

// SetBlueprint stores the blueprint the next Recreate builds. Setting an
// equal blueprint does not mark the pipeline dirty.
func (p *Pipeline) SetBlueprint(bp *blueprint.Blueprint) {
	if p.bp != nil && p.bp.Equal(bp) {
		return
	}
	p.bp = bp
	p.dirty = true
}

// Blueprint returns the current blueprint.
func (p *Pipeline) Blueprint() *blueprint.Blueprint { return p.bp }

// Resize changes the display extent. The world is rebuilt on the next
// Recreate.
func (p *Pipeline) Resize(extent resource.Extent) {
	if p.env.Extent == extent {
		return
	}
	p.env.Extent = extent
	p.dirty = true
}

// NeedsRecreate reports whether the blueprint or extent changed since the
// last successful Recreate.
func (p *Pipeline) NeedsRecreate() bool { return p.dirty || p.world == nil }

// Recreate retires the current world and builds a new one from the current
// blueprint. Retired modules are pre-closed immediately and destroyed once
// the collector knows the GPU is done with them.
//
// On error the pipeline has no world.
func (p *Pipeline) Recreate() error {
	if p.closed {
		return ErrClosed
	}
	if p.bp == nil {
		return ErrNoBlueprint
	}
	if p.world != nil {
		p.world.Retire(p.collector)
		p.world = nil
	}

	w, err := Build(p.env, p.bp, p.opts.registry, p.opts.handoff)
	if err != nil {
		return err
	}
	p.world = w
	p.dirty = false
	p.frame = 0
	return nil
}

// World returns the current world, or nil.
func (p *Pipeline) World() *World { return p.world }

// Context returns the executor context of a frame in flight.
func (p *Pipeline) Context(frame int) (*Context, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if p.world == nil {
		return nil, ErrNotBuilt
	}
	if frame < 0 || frame >= p.env.Frames {
		return nil, fmt.Errorf("%w: %d", ErrFrameIndex, frame)
	}
	return p.world.Context(frame), nil
}

// Render records the world for f.Index into f.Encoder, then lets the
// collector release resources that are no longer in flight.
func (p *Pipeline) Render(f *module.Frame) error {
	ctx, err := p.Context(f.Index)
	if err != nil {
		return err
	}
	f.Number = p.frame
	ctx.Render(f)
	p.frame++
	p.collector.Advance()
	return nil
}

// Submitted tells the collector the index of the latest queue submission.
func (p *Pipeline) Submitted(index uint64) { p.collector.Submitted(index) }

// BindTexture forwards an externally owned texture to every module.
func (p *Pipeline) BindTexture(sampler hal.Sampler, image *resource.Image, index int) error {
	if p.world == nil {
		return ErrNotBuilt
	}
	p.world.BindTexture(sampler, image, index)
	return nil
}

// Dump writes the shared image pool state of the current world.
func (p *Pipeline) Dump(w io.Writer) error {
	if p.world == nil {
		return ErrNotBuilt
	}
	return p.world.Dump(w)
}

// Close pre-closes the current world, runs the static pre-closers and
// destroys everything. The caller must have waited for the device to go
// idle. Close is idempotent.
func (p *Pipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	if p.world != nil {
		p.world.Retire(p.collector)
		p.world = nil
	}
	p.opts.registry.runPreClosers()
	p.collector.Flush()
	slogger().Info("pipeline: closed")
}
