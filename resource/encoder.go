// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Transition declares a layout change of one image together with the
// execution and memory dependency that orders it against surrounding work.
//
// The source layout is not part of the declaration: it is read from the
// image, and the image records LayoutAfter once the transition is encoded.
type Transition struct {
	Image *Image

	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access

	LayoutAfter Layout

	// SrcQueue and DstQueue are queue family indices. Equal values mean no
	// ownership transfer.
	SrcQueue uint32
	DstQueue uint32
}

// Barrier is a transition as the encoder lowered it, with the layout the
// image left.
type Barrier struct {
	Transition
	LayoutBefore Layout
}

// OwnershipTransfer reports whether the barrier moves the image between queue
// families.
func (b Barrier) OwnershipTransfer() bool { return b.SrcQueue != b.DstQueue }

// Encoder records one frame's command stream. It owns the only code path that
// mutates image layouts.
type Encoder struct {
	raw   hal.CommandEncoder
	queue uint32
	trace func(Barrier)
}

// NewEncoder wraps a HAL command encoder that is already recording.
// queueFamily is the family every transition is issued on.
func NewEncoder(raw hal.CommandEncoder, queueFamily uint32) *Encoder {
	return &Encoder{raw: raw, queue: queueFamily}
}

// Raw returns the wrapped HAL encoder for passes and copies.
func (e *Encoder) Raw() hal.CommandEncoder { return e.raw }

// QueueFamily returns the queue family transitions are issued on.
func (e *Encoder) QueueFamily() uint32 { return e.queue }

// Trace installs fn to receive every transition as it is lowered. A HAL
// texture barrier carries only the usages, so the stage, access and queue
// scope of a transition is observable here and in debug logs. nil removes
// the hook.
func (e *Encoder) Trace(fn func(Barrier)) { e.trace = fn }

// OnQueue fills in a transition's queue family indices with the encoder's
// queue, leaving ownership where it is.
func (e *Encoder) OnQueue(t Transition) Transition {
	t.SrcQueue = e.queue
	t.DstQueue = e.queue
	return t
}

// Transition encodes the given transitions as one barrier batch and updates
// each image's tracked layout.
func (e *Encoder) Transition(ts ...Transition) {
	if len(ts) == 0 {
		return
	}
	barriers := make([]hal.TextureBarrier, 0, len(ts))
	for i := range ts {
		t := &ts[i]
		if t.Image == nil {
			continue
		}
		e.observe(Barrier{Transition: *t, LayoutBefore: t.Image.layout})
		barriers = append(barriers, hal.TextureBarrier{
			Texture: t.Image.texture,
			Range: hal.TextureRange{
				Aspect:          gputypes.TextureAspectAll,
				MipLevelCount:   1,
				ArrayLayerCount: 1,
			},
			Usage: hal.TextureUsageTransition{
				OldUsage: t.Image.layout.Usage(),
				NewUsage: t.LayoutAfter.Usage(),
			},
		})
		t.Image.layout = t.LayoutAfter
	}
	if len(barriers) > 0 {
		e.raw.TransitionTextures(barriers)
	}
}

func (e *Encoder) observe(b Barrier) {
	if e.trace != nil {
		e.trace(b)
	}
	log := framegraph.Logger()
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	log.Debug("resource: transition",
		"image", b.Image.Label(),
		"from", b.LayoutBefore.String(),
		"to", b.LayoutAfter.String(),
		"sync", b.SyncBefore.String()+" -> "+b.SyncAfter.String(),
		"access", b.AccessBefore.String()+" -> "+b.AccessAfter.String(),
		"queue", fmt.Sprintf("%d -> %d", b.SrcQueue, b.DstQueue))
}

// Copy records a full-image copy between two images of equal extent.
// Both images must already be in TransferSrc and TransferDst.
func (e *Encoder) Copy(src, dst *Image) {
	e.raw.CopyTextureToTexture(src.texture, dst.texture, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: src.texture, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: dst.texture, Aspect: gputypes.TextureAspectAll},
		Size: hal.Extent3D{
			Width:              src.extent.Width,
			Height:             src.extent.Height,
			DepthOrArrayLayers: 1,
		},
	}})
}
