// Command fgdemo builds a world pipeline from a blueprint file on a headless
// device, records a number of frames and prints what was recorded.
//
// Usage:
//
//	fgdemo [-blueprint chain.toml] [-width 1920] [-height 1080] [-count 8] [-trace]
package main

import (
	"bytes"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"slices"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/internal/headless"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/modules/passthrough"
	"github.com/gogpu/framegraph/modules/upscaler"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

//go:embed testdata/chain.toml
var defaultBlueprint []byte

func main() {
	var (
		path       = flag.String("blueprint", "", "blueprint file (.toml, .yaml); empty uses the built-in chain")
		width      = flag.Uint("width", 1920, "display width")
		height     = flag.Uint("height", 1080, "display height")
		frames     = flag.Int("frames", 2, "frames in flight")
		count      = flag.Int("count", 8, "frames to render")
		attachment = flag.Bool("attachment", false, "hand slot 0 off in the color attachment layout")
		software   = flag.Bool("software", false, "report a software adapter")
		resizeTo   = flag.String("resize", "", "display extent WxH to switch to halfway through")
		verbose    = flag.Bool("v", false, "debug logging")
		dump       = flag.Bool("dump", false, "print the slot pool after the last frame")
		trace      = flag.Bool("trace", false, "print every image transition with its scope")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	bp, err := loadBlueprint(*path)
	if err != nil {
		log.Fatalf("Failed to load blueprint: %v", err)
	}

	provider, err := headless.Open()
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer provider.Close()
	if *software {
		provider.WithAdapterType(gpucontext.AdapterTypeSoftware)
	}

	display := resource.Extent{Width: uint32(*width), Height: uint32(*height)}
	env, err := module.NewEnv(provider, display, *frames)
	if err != nil {
		log.Fatalf("Failed to create environment: %v", err)
	}

	opts := []pipeline.Option{pipeline.WithRegistry(newRegistry())}
	if *attachment {
		opts = append(opts, pipeline.WithAttachmentHandoff())
	}
	p := pipeline.New(env, opts...)
	defer p.Close()
	p.SetBlueprint(bp)

	var next resource.Extent
	if *resizeTo != "" {
		if _, err := fmt.Sscanf(*resizeTo, "%dx%d", &next.Width, &next.Height); err != nil || next.IsZero() {
			log.Fatalf("Invalid -resize %q: want WxH", *resizeTo)
		}
	}

	stats := frameStats{trace: *trace}
	for i := range *count {
		if i == *count/2 && !next.IsZero() {
			p.Resize(next)
		}
		if p.NeedsRecreate() {
			if err := p.Recreate(); err != nil {
				log.Fatalf("Failed to build pipeline: %v", err)
			}
			log.Printf("Built %d modules, %d slots at %s", bp.Len(), bp.Slots(), env.Extent)
		}
		if err := renderFrame(p, env, i, &stats); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
	}

	log.Printf("Rendered %d frames: %d barriers (%d from undefined), %d copies, %d compute passes",
		*count, stats.barriers, stats.undefined, stats.copies, stats.passes)
	if *dump {
		if err := p.Dump(os.Stdout); err != nil {
			log.Fatalf("Failed to dump pool: %v", err)
		}
	}
}

func loadBlueprint(path string) (*blueprint.Blueprint, error) {
	if path == "" {
		return blueprint.DecodeTOML(bytes.NewReader(defaultBlueprint))
	}
	return blueprint.Load(path)
}

// newRegistry maps the upscaler kinds to the upscaler with no SDK linked and
// every other kind to a passthrough stand-in.
func newRegistry() *pipeline.Registry {
	reg := pipeline.NewRegistry()
	for _, k := range blueprint.Kinds() {
		ctor := passthrough.New(k)
		if slices.Contains(upscaler.Kinds(), k) {
			ctor = upscaler.New(k, nil)
		}
		if err := reg.Register(k, ctor); err != nil {
			log.Fatalf("Failed to register %s: %v", k, err)
		}
	}
	return reg
}

type frameStats struct {
	barriers  int
	undefined int
	copies    int
	passes    int
	trace     bool
}

func (s *frameStats) observe(b resource.Barrier) {
	if b.LayoutBefore == resource.LayoutUndefined {
		s.undefined++
	}
	if s.trace {
		fmt.Printf("%-16s %s -> %s  sync %s -> %s  access %s -> %s\n",
			b.Image.Label(), b.LayoutBefore, b.LayoutAfter,
			b.SyncBefore, b.SyncAfter, b.AccessBefore, b.AccessAfter)
	}
}

func renderFrame(p *pipeline.Pipeline, env *module.Env, i int, stats *frameStats) error {
	rec := &headless.Recorder{}
	if err := rec.BeginEncoding(fmt.Sprintf("frame_%d", i)); err != nil {
		return err
	}
	f := &module.Frame{
		Index:   i % env.Frames,
		Encoder: resource.NewEncoder(rec, env.QueueFamily),
		Camera: module.Camera{
			Position:  f32.Vec3{0, 1.5, float32(i) * 0.25},
			Direction: f32.Vec3{0, 0, 1},
			Jitter:    halton(i),
		},
	}
	f.Encoder.Trace(stats.observe)
	if err := p.Render(f); err != nil {
		return err
	}
	cmd, err := rec.EndEncoding()
	if err != nil {
		return err
	}
	index, err := env.Queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	p.Submitted(index)

	stats.barriers += rec.BarrierCount()
	stats.copies += rec.Copies
	stats.passes += len(rec.Passes)
	return nil
}

// halton returns the (2, 3) Halton jitter for frame i, centered on the pixel.
func halton(i int) f32.Vec2 {
	return f32.Vec2{radicalInverse(i+1, 2) - 0.5, radicalInverse(i+1, 3) - 0.5}
}

func radicalInverse(i, base int) float32 {
	var r float32
	f := float32(1)
	for ; i > 0; i /= base {
		f /= float32(base)
		r += f * float32(i%base)
	}
	return r
}
