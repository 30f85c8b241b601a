package headless

import (
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Recorder is a command encoder that keeps what was recorded into it.
type Recorder struct {
	noop.CommandEncoder

	Barriers [][]hal.TextureBarrier
	Copies   int
	Passes   []string
}

var _ hal.CommandEncoder = (*Recorder)(nil)

// TransitionTextures records one barrier batch.
func (r *Recorder) TransitionTextures(b []hal.TextureBarrier) {
	r.Barriers = append(r.Barriers, append([]hal.TextureBarrier(nil), b...))
}

// CopyTextureToTexture counts the copy.
func (r *Recorder) CopyTextureToTexture(_, _ hal.Texture, _ []hal.TextureCopy) {
	r.Copies++
}

// BeginComputePass records the pass label.
func (r *Recorder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	label := ""
	if desc != nil {
		label = desc.Label
	}
	r.Passes = append(r.Passes, label)
	return &noop.ComputePassEncoder{}
}

// BarrierCount returns the total number of texture barriers recorded.
func (r *Recorder) BarrierCount() int {
	n := 0
	for _, b := range r.Barriers {
		n += len(b)
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.Barriers = nil
	r.Copies = 0
	r.Passes = nil
}
