package blueprint

import (
	"fmt"
	"strings"
)

// Kind identifies a world module type. The set is closed: a blueprint can
// only reference kinds declared here.
type Kind uint8

const (
	// KindUnknown is the zero Kind and never valid in a blueprint.
	KindUnknown Kind = iota
	// KindRayTracing traces primary and secondary rays into HDR color and
	// geometry buffers.
	KindRayTracing
	// KindDenoiser filters noisy ray-traced lighting.
	KindDenoiser
	// KindTemporalAccumulation blends the current frame with reprojected history.
	KindTemporalAccumulation
	// KindFSR3Upscaler is super-resolution upscaling through FSR 3.
	KindFSR3Upscaler
	// KindXeSSUpscaler is super-resolution upscaling through XeSS.
	KindXeSSUpscaler
	// KindDLSSUpscaler is super-resolution upscaling through DLSS.
	KindDLSSUpscaler
	// KindToneMapping maps HDR color to the display range.
	KindToneMapping
	// KindPostRender composites post effects into the final image.
	KindPostRender

	kindCount
)

type kindInfo struct {
	key     string
	inputs  int
	outputs int
}

// kinds holds the fixed input and output slot counts of every module kind.
var kinds = [kindCount]kindInfo{
	KindUnknown:              {key: "unknown"},
	KindRayTracing:           {key: "ray_tracing", inputs: 0, outputs: 4},
	KindDenoiser:             {key: "nrd", inputs: 3, outputs: 1},
	KindTemporalAccumulation: {key: "temporal_accumulation", inputs: 3, outputs: 1},
	KindFSR3Upscaler:         {key: "fsr3", inputs: 4, outputs: 2},
	KindXeSSUpscaler:         {key: "xess_sr", inputs: 4, outputs: 2},
	KindDLSSUpscaler:         {key: "dlss", inputs: 4, outputs: 2},
	KindToneMapping:          {key: "tone_mapping", inputs: 1, outputs: 1},
	KindPostRender:           {key: "post_render", inputs: 2, outputs: 1},
}

// namePrefix starts every fully-qualified module and attribute name.
const namePrefix = "render_pipeline.module."

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k > KindUnknown && k < kindCount }

// Key returns the short identifier, e.g. "xess_sr".
func (k Kind) Key() string {
	if k >= kindCount {
		return kinds[KindUnknown].key
	}
	return kinds[k].key
}

// Name returns the fully-qualified module name used in blueprints,
// e.g. "render_pipeline.module.xess_sr.name".
func (k Kind) Name() string { return namePrefix + k.Key() + ".name" }

// AttributePrefix returns the prefix of the kind's fully-qualified attribute
// keys, e.g. "render_pipeline.module.xess_sr.attribute.".
func (k Kind) AttributePrefix() string { return namePrefix + k.Key() + ".attribute." }

// Arity returns the number of input and output slots a descriptor of this
// kind must reference.
func (k Kind) Arity() (inputs, outputs int) {
	if !k.Valid() {
		return 0, 0
	}
	return kinds[k].inputs, kinds[k].outputs
}

func (k Kind) String() string { return k.Key() }

// ParseKind resolves a fully-qualified module name or a short key.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(name)
	for _, k := range Kinds() {
		if name == k.Name() || name == k.Key() {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownModule, name)
}
