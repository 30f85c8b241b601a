// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// History reset thresholds. A camera that moves farther than ResetDistance
// world units, or turns so that the cosine between successive view
// directions drops below ResetCosine (about 30 degrees), invalidates the
// backend's temporal history.
const (
	ResetDistance = 1.0
	ResetCosine   = 0.866
)

// History tracks the camera between dispatches to decide when temporal
// accumulation must restart.
type History struct {
	started  bool
	position f32.Vec3
	forward  f32.Vec3
}

// Reset forces the next Check to report a reset.
func (h *History) Reset() { h.started = false }

// Check records the camera and reports whether history must be discarded.
// The first call after construction or Reset always reports true.
func (h *History) Check(position, direction f32.Vec3) bool {
	if !h.started {
		h.started = true
		h.position, h.forward = position, direction
		return true
	}

	delta := length(sub(position, h.position))
	reset := delta > ResetDistance
	// A zero direction has no angle, so only the distance test applies.
	if a, b := length(direction), length(h.forward); a > 0 && b > 0 {
		cos := dot(direction, h.forward) / (a * b)
		reset = reset || cos < ResetCosine
	}

	h.position, h.forward = position, direction
	return reset
}

func sub(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b f32.Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func length(v f32.Vec3) float32 {
	return math32.Sqrt(dot(v, v))
}
