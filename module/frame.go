package module

import (
	"github.com/gogpu/framegraph/resource"
	"golang.org/x/image/math/f32"
)

// Camera is the per-frame view state modules consume.
type Camera struct {
	Position  f32.Vec3
	Direction f32.Vec3
	// Jitter is the sub-pixel projection offset in pixels.
	Jitter f32.Vec2
}

// Frame carries the per-frame inputs of one pipeline execution.
type Frame struct {
	// Index selects the frame in flight, in [0, Env.Frames).
	Index int
	// Number counts rendered frames since the pipeline was built.
	Number uint64
	// Encoder is the frame's command stream.
	Encoder *resource.Encoder
	Camera  Camera
}
