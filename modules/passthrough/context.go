// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passthrough

import (
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
)

// Context forwards one frame's first input to its outputs.
type Context struct {
	module  *Passthrough
	frame   int
	src     *resource.Image
	outputs []*resource.Image
	copies  []*resource.Image
	resizes []*resource.ResizeBinding
}

// Frame returns the frame in flight the context renders.
func (c *Context) Frame() int { return c.frame }

// Render leaves every output in the General layout.
func (c *Context) Render(f *module.Frame) {
	enc := f.Encoder
	if c.src == nil {
		ts := make([]resource.Transition, 0, len(c.outputs))
		for _, dst := range c.outputs {
			ts = append(ts, enc.OnQueue(resource.Transition{
				Image:        dst,
				SyncBefore:   resource.SyncAllShaders | resource.SyncTransfer,
				SyncAfter:    resource.SyncComputeShader,
				AccessBefore: resource.AccessMemory,
				AccessAfter:  resource.AccessShaderWrite,
				LayoutAfter:  resource.LayoutGeneral,
			}))
		}
		enc.Transition(ts...)
		return
	}

	if len(c.copies) > 0 {
		ts := []resource.Transition{enc.OnQueue(resource.Transition{
			Image:        c.src,
			SyncBefore:   resource.SyncAllShaders | resource.SyncTransfer,
			SyncAfter:    resource.SyncTransfer,
			AccessBefore: resource.AccessMemoryWrite,
			AccessAfter:  resource.AccessTransferRead,
			LayoutAfter:  resource.LayoutTransferSrc,
		})}
		for _, dst := range c.copies {
			ts = append(ts, enc.OnQueue(resource.Transition{
				Image:        dst,
				SyncBefore:   resource.SyncAllShaders | resource.SyncTransfer,
				SyncAfter:    resource.SyncTransfer,
				AccessBefore: resource.AccessMemory,
				AccessAfter:  resource.AccessTransferWrite,
				LayoutAfter:  resource.LayoutTransferDst,
			}))
		}
		enc.Transition(ts...)
		for _, dst := range c.copies {
			enc.Copy(c.src, dst)
		}
		ts = ts[:0]
		for _, dst := range c.copies {
			ts = append(ts, enc.OnQueue(resource.Transition{
				Image:        dst,
				SyncBefore:   resource.SyncTransfer,
				SyncAfter:    resource.SyncComputeShader | resource.SyncFragmentShader,
				AccessBefore: resource.AccessTransferWrite,
				AccessAfter:  resource.AccessMemory,
				LayoutAfter:  resource.LayoutGeneral,
			}))
		}
		enc.Transition(ts...)
	}

	for _, b := range c.resizes {
		b.Record(enc)
	}
}
