// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline_test

import (
	"slices"
	"testing"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/internal/headless"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/modules/passthrough"
	"github.com/gogpu/framegraph/modules/upscaler"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
)

func newRegistry(t *testing.T) *pipeline.Registry {
	t.Helper()
	reg := pipeline.NewRegistry()
	for _, k := range blueprint.Kinds() {
		ctor := passthrough.New(k)
		if slices.Contains(upscaler.Kinds(), k) {
			ctor = upscaler.New(k, nil)
		}
		if err := reg.Register(k, ctor); err != nil {
			t.Fatalf("Register(%s) error = %v", k, err)
		}
	}
	return reg
}

// TestUpscaledChain builds ray tracing into an upscaler into tone mapping and
// renders it with no upscaling SDK linked.
func TestUpscaledChain(t *testing.T) {
	p, err := headless.Open()
	if err != nil {
		t.Fatalf("headless.Open() error = %v", err)
	}
	defer p.Close()
	display := resource.Extent{Width: 640, Height: 360}
	env, err := module.NewEnv(p, display, 2)
	if err != nil {
		t.Fatalf("module.NewEnv() error = %v", err)
	}

	bp, err := blueprint.New([]blueprint.Descriptor{
		{Kind: blueprint.KindRayTracing, Outputs: []int{1, 2, 3, 4}},
		{
			Kind:       blueprint.KindXeSSUpscaler,
			Attributes: []blueprint.Attribute{{Key: "quality_mode", Value: "balanced"}},
			Inputs:     []int{1, 2, 3, 4},
			Outputs:    []int{5, 6},
		},
		{Kind: blueprint.KindToneMapping, Inputs: []int{5}, Outputs: []int{0}},
	}, []gputypes.TextureFormat{
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatR32Float,
		gputypes.TextureFormatRG32Float,
		gputypes.TextureFormatR32Float,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatR32Float,
	})
	if err != nil {
		t.Fatalf("blueprint.New() error = %v", err)
	}

	pl := pipeline.New(env, pipeline.WithRegistry(newRegistry(t)))
	defer pl.Close()
	pl.SetBlueprint(bp)
	if err := pl.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}

	w := pl.World()
	render := resource.Extent{Width: 320, Height: 180}
	wantExtent := map[int]resource.Extent{0: display, 1: render, 2: render, 3: render, 4: render, 5: display, 6: display}
	w.Pool().Each(func(frame, slot int, img *resource.Image) {
		if img == nil {
			t.Errorf("frame %d slot %d is empty", frame, slot)
			return
		}
		if img.Extent() != wantExtent[slot] {
			t.Errorf("frame %d slot %d extent = %s, want %s", frame, slot, img.Extent(), wantExtent[slot])
		}
	})

	up, ok := w.Module(1).(*upscaler.Upscaler)
	if !ok {
		t.Fatalf("Module(1) = %T, want *upscaler.Upscaler", w.Module(1))
	}
	for i := range 3 {
		rec := &headless.Recorder{}
		f := &module.Frame{Index: i % env.Frames, Encoder: resource.NewEncoder(rec, env.QueueFamily)}
		if err := pl.Render(f); err != nil {
			t.Fatalf("Render(%d) error = %v", i, err)
		}
		want := []string{"resize_rgba16float", "resize_r32float", "resize_rgba8unorm"}
		if !slices.Equal(rec.Passes, want) {
			t.Errorf("frame %d passes = %v, want %v", i, rec.Passes, want)
		}
		if got := w.Output(f.Index).Layout(); got != resource.LayoutPresent {
			t.Errorf("frame %d slot 0 layout = %s, want Present", i, got)
		}
	}
	if up.State() != upscaler.StateFallback {
		t.Errorf("upscaler state = %s, want fallback", up.State())
	}
}
