// Package module defines the contract between the pipeline and the world
// modules it chains together.
package module

import (
	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Module is one stage of a world pipeline.
//
// The builder drives a module through SetAttributes, then for every frame in
// flight SetOrCreateOutputImages followed by SetOrCreateInputImages, then
// Build exactly once. Contexts are requested after Build.
type Module interface {
	// Kind returns the blueprint kind this module was constructed for.
	Kind() blueprint.Kind

	// SetAttributes applies the descriptor's attributes. Unknown keys are
	// ignored.
	SetAttributes(attrs []blueprint.Attribute)

	// SetOrCreateOutputImages receives the current pool images of the
	// module's output slots for one frame, nil where unallocated, together
	// with each slot's declared format. The module fills nil entries with
	// images it creates and returns false if an existing image is unusable.
	SetOrCreateOutputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool

	// SetOrCreateInputImages is SetOrCreateOutputImages for input slots.
	SetOrCreateInputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool

	// Build creates pipelines, bind groups and private images.
	Build() error

	// Contexts returns one render context per frame in flight.
	Contexts() []Context

	// BindTexture makes an externally owned texture available at index.
	BindTexture(sampler hal.Sampler, image *resource.Image, index int)

	// PreClose releases resources tied to external SDK state. It runs before
	// the module is handed to deferred destruction.
	PreClose()

	// Destroy releases every private GPU resource.
	Destroy()
}

// Context records one module's work for one frame in flight.
type Context interface {
	Render(f *Frame)
}

// Constructor creates an unconfigured module.
type Constructor func(env *Env) (Module, error)
