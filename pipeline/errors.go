// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/resource"
)

var (
	// ErrNoConstructor is returned when a blueprint names a kind that has no
	// registered constructor.
	ErrNoConstructor = errors.New("pipeline: no constructor registered for module kind")

	// ErrNegotiation is wrapped by NegotiationError.
	ErrNegotiation = errors.New("pipeline: module rejected slot images twice")

	// ErrBuild is returned when a module's build step fails.
	ErrBuild = errors.New("pipeline: module build failed")

	// ErrContexts is returned when a module does not provide one context per
	// frame in flight.
	ErrContexts = errors.New("pipeline: module context count does not match frames in flight")

	// ErrNoBlueprint is returned by Recreate before SetBlueprint.
	ErrNoBlueprint = errors.New("pipeline: no blueprint set")

	// ErrNotBuilt is returned by Render before a successful Recreate.
	ErrNotBuilt = errors.New("pipeline: world not built")

	// ErrFrameIndex is returned by Render for a frame index outside [0, frames).
	ErrFrameIndex = errors.New("pipeline: frame index out of range")

	// ErrClosed is returned by operations on a closed pipeline.
	ErrClosed = errors.New("pipeline: closed")
)

// Direction tells which side of a module a negotiation covered.
type Direction uint8

const (
	// Outputs is the negotiation of a module's output slots.
	Outputs Direction = iota
	// Inputs is the negotiation of a module's input slots.
	Inputs
)

func (d Direction) String() string {
	if d == Outputs {
		return "outputs"
	}
	return "inputs"
}

// NegotiationError reports a module that rejected its slot images after the
// builder allocated fallback images, or accepted them while leaving a slot
// empty.
type NegotiationError struct {
	Module    int
	Kind      blueprint.Kind
	Frame     int
	Direction Direction
	// Extent is the fallback extent the builder allocated missing images at.
	Extent resource.Extent
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("%v: module %d (%s) %s, frame %d, fallback extent %s",
		ErrNegotiation, e.Module, e.Kind, e.Direction, e.Frame, e.Extent)
}

func (e *NegotiationError) Unwrap() error { return ErrNegotiation }
