// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
)

// Context executes a built world for one frame in flight.
type Context struct {
	frame   int
	output  *resource.Image
	modules []module.Context
	handoff resource.Layout
}

// Frame returns the frame-in-flight index this context belongs to.
func (c *Context) Frame() int { return c.frame }

// Output returns the slot 0 image.
func (c *Context) Output() *resource.Image { return c.output }

// Render records every module in declared order and leaves slot 0 in the
// hand-off layout.
//
// If slot 0 was never written, it is first moved to the hand-off layout so no
// module observes an undefined image. Modules own the transitions of every
// other image they touch.
func (c *Context) Render(f *module.Frame) {
	enc := f.Encoder
	if c.output.Layout() == resource.LayoutUndefined {
		syncAfter, accessAfter := handoffScope(c.handoff)
		enc.Transition(enc.OnQueue(resource.Transition{
			Image:        c.output,
			SyncBefore:   resource.SyncTopOfPipe,
			SyncAfter:    syncAfter,
			AccessBefore: resource.AccessNone,
			AccessAfter:  accessAfter,
			LayoutAfter:  c.handoff,
		}))
	}

	for _, m := range c.modules {
		m.Render(f)
	}

	enc.Transition(enc.OnQueue(resource.Transition{
		Image:        c.output,
		SyncBefore:   resource.SyncFragmentShader | resource.SyncComputeShader | resource.SyncTransfer | resource.SyncRayTracingShader,
		SyncAfter:    resource.SyncFragmentShader | resource.SyncTransfer,
		AccessBefore: resource.AccessMemory,
		AccessAfter:  resource.AccessMemory,
		LayoutAfter:  c.handoff,
	}))
}

func handoffScope(handoff resource.Layout) (resource.Sync, resource.Access) {
	if handoff == resource.LayoutColorAttachment {
		return resource.SyncColorAttachmentOutput,
			resource.AccessColorAttachmentRead | resource.AccessColorAttachmentWrite
	}
	return resource.SyncFragmentShader | resource.SyncTransfer, resource.AccessMemory
}
