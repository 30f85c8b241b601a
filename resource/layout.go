// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Layout is the GPU access state of an image between two transitions.
type Layout uint8

const (
	// LayoutUndefined is the state of an image that was never written.
	LayoutUndefined Layout = iota
	// LayoutGeneral allows storage reads and writes from compute shaders.
	LayoutGeneral
	// LayoutShaderRead allows sampled reads.
	LayoutShaderRead
	// LayoutColorAttachment allows use as a render target.
	LayoutColorAttachment
	// LayoutTransferSrc allows use as a copy source.
	LayoutTransferSrc
	// LayoutTransferDst allows use as a copy destination.
	LayoutTransferDst
	// LayoutPresent is the hand-off state consumed by the presentation compositor.
	LayoutPresent
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutUndefined:
		return "Undefined"
	case LayoutGeneral:
		return "General"
	case LayoutShaderRead:
		return "ShaderRead"
	case LayoutColorAttachment:
		return "ColorAttachment"
	case LayoutTransferSrc:
		return "TransferSrc"
	case LayoutTransferDst:
		return "TransferDst"
	case LayoutPresent:
		return "Present"
	default:
		return "Unknown"
	}
}

// Usage lowers the layout to the texture usage the HAL tracks for barriers.
// The compositor reads the presented image with a copy, so LayoutPresent
// lowers to CopySrc.
func (l Layout) Usage() gputypes.TextureUsage {
	switch l {
	case LayoutGeneral:
		return gputypes.TextureUsageStorageBinding
	case LayoutShaderRead:
		return gputypes.TextureUsageTextureBinding
	case LayoutColorAttachment:
		return gputypes.TextureUsageRenderAttachment
	case LayoutTransferSrc, LayoutPresent:
		return gputypes.TextureUsageCopySrc
	case LayoutTransferDst:
		return gputypes.TextureUsageCopyDst
	default:
		return gputypes.TextureUsageNone
	}
}

// Sync is a set of pipeline stages a transition waits on or blocks.
type Sync uint32

const (
	SyncTopOfPipe Sync = 1 << iota
	SyncComputeShader
	SyncFragmentShader
	SyncColorAttachmentOutput
	SyncTransfer
	SyncRayTracingShader
	SyncBottomOfPipe

	// SyncNone is the empty stage set.
	SyncNone Sync = 0
	// SyncAllShaders covers every shader stage used by world modules.
	SyncAllShaders = SyncComputeShader | SyncFragmentShader | SyncRayTracingShader
)

var syncNames = []string{
	"TopOfPipe",
	"ComputeShader",
	"FragmentShader",
	"ColorAttachmentOutput",
	"Transfer",
	"RayTracingShader",
	"BottomOfPipe",
}

// String returns the stage names joined by "|".
func (s Sync) String() string {
	return flagString(uint32(s), syncNames)
}

// Access is a set of memory access kinds made visible or available by a transition.
type Access uint32

const (
	AccessShaderRead Access = 1 << iota
	AccessShaderWrite
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessTransferRead
	AccessTransferWrite
	AccessMemoryRead
	AccessMemoryWrite

	// AccessNone is the empty access set.
	AccessNone Access = 0
	// AccessMemory covers every read and write.
	AccessMemory = AccessMemoryRead | AccessMemoryWrite
)

var accessNames = []string{
	"ShaderRead",
	"ShaderWrite",
	"ColorAttachmentRead",
	"ColorAttachmentWrite",
	"TransferRead",
	"TransferWrite",
	"MemoryRead",
	"MemoryWrite",
}

// String returns the access names joined by "|".
func (a Access) String() string {
	return flagString(uint32(a), accessNames)
}

func flagString(v uint32, names []string) string {
	if v == 0 {
		return "None"
	}
	var b strings.Builder
	for i, name := range names {
		if v&(1<<i) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}
