// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passthrough

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/internal/headless"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
)

var display = resource.Extent{Width: 640, Height: 360}

func newTestEnv(t *testing.T, frames int) *module.Env {
	t.Helper()
	p, err := headless.Open()
	if err != nil {
		t.Fatalf("headless.Open() error = %v", err)
	}
	t.Cleanup(p.Close)
	env, err := module.NewEnv(p, display, frames)
	if err != nil {
		t.Fatalf("module.NewEnv() error = %v", err)
	}
	return env
}

func formats(n int, f gputypes.TextureFormat) []gputypes.TextureFormat {
	out := make([]gputypes.TextureFormat, n)
	for i := range out {
		out[i] = f
	}
	return out
}

func destroyAll(t *testing.T, images []*resource.Image) {
	t.Helper()
	t.Cleanup(func() {
		for _, img := range images {
			img.Destroy()
		}
	})
}

func TestNewPassthrough(t *testing.T) {
	env := newTestEnv(t, 2)
	m, err := New(blueprint.KindDenoiser)(env)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Kind() != blueprint.KindDenoiser {
		t.Errorf("Kind() = %s", m.Kind())
	}
	if _, err := NewPassthrough(env, blueprint.KindUnknown); !errors.Is(err, blueprint.ErrUnknownModule) {
		t.Errorf("NewPassthrough(unknown) error = %v, want ErrUnknownModule", err)
	}
	if _, err := NewPassthrough(nil, blueprint.KindDenoiser); !errors.Is(err, module.ErrNoDevice) {
		t.Errorf("NewPassthrough(nil) error = %v, want ErrNoDevice", err)
	}
}

func TestNegotiationExtents(t *testing.T) {
	env := newTestEnv(t, 1)

	t.Run("display fallback", func(t *testing.T) {
		p, _ := NewPassthrough(env, blueprint.KindToneMapping)
		outs := make([]*resource.Image, 1)
		ins := make([]*resource.Image, 1)
		if !p.SetOrCreateOutputImages(outs, formats(1, gputypes.TextureFormatRGBA8Unorm), 0) {
			t.Fatal("SetOrCreateOutputImages() = false")
		}
		destroyAll(t, outs)
		if !p.SetOrCreateInputImages(ins, formats(1, gputypes.TextureFormatRGBA16Float), 0) {
			t.Fatal("SetOrCreateInputImages() = false")
		}
		destroyAll(t, ins)
		if p.OutputExtent() != display || p.InputExtent() != display {
			t.Errorf("extents = %s, %s, want %s", p.OutputExtent(), p.InputExtent(), display)
		}
	})

	t.Run("existing images pin extents", func(t *testing.T) {
		p, _ := NewPassthrough(env, blueprint.KindPostRender)
		out, err := resource.NewImage(env.Device, resource.ImageDesc{
			Label: "out", Extent: resource.Extent{Width: 320, Height: 180}, Format: gputypes.TextureFormatRGBA8Unorm,
		})
		if err != nil {
			t.Fatalf("NewImage() error = %v", err)
		}
		in, err := resource.NewImage(env.Device, resource.ImageDesc{
			Label: "in", Extent: resource.Extent{Width: 100, Height: 50}, Format: gputypes.TextureFormatRGBA16Float,
		})
		if err != nil {
			t.Fatalf("NewImage() error = %v", err)
		}
		destroyAll(t, []*resource.Image{out, in})

		if !p.SetOrCreateOutputImages([]*resource.Image{out}, formats(1, gputypes.TextureFormatRGBA8Unorm), 0) {
			t.Fatal("SetOrCreateOutputImages() = false")
		}
		ins := []*resource.Image{nil, in}
		if !p.SetOrCreateInputImages(ins, formats(2, gputypes.TextureFormatRGBA16Float), 0) {
			t.Fatal("SetOrCreateInputImages() = false")
		}
		destroyAll(t, ins[:1])
		if ins[0].Extent() != in.Extent() {
			t.Errorf("created input extent = %s, want %s", ins[0].Extent(), in.Extent())
		}
		if p.OutputExtent() != out.Extent() {
			t.Errorf("OutputExtent() = %s, want %s", p.OutputExtent(), out.Extent())
		}
	})

	t.Run("inputs follow outputs", func(t *testing.T) {
		p, _ := NewPassthrough(env, blueprint.KindDenoiser)
		out, err := resource.NewImage(env.Device, resource.ImageDesc{
			Label: "out", Extent: resource.Extent{Width: 300, Height: 200}, Format: gputypes.TextureFormatRGBA16Float,
		})
		if err != nil {
			t.Fatalf("NewImage() error = %v", err)
		}
		destroyAll(t, []*resource.Image{out})
		p.SetOrCreateOutputImages([]*resource.Image{out}, formats(1, gputypes.TextureFormatRGBA16Float), 0)
		ins := make([]*resource.Image, 3)
		if !p.SetOrCreateInputImages(ins, formats(3, gputypes.TextureFormatRGBA16Float), 0) {
			t.Fatal("SetOrCreateInputImages() = false")
		}
		destroyAll(t, ins)
		if p.InputExtent() != out.Extent() {
			t.Errorf("InputExtent() = %s, want %s", p.InputExtent(), out.Extent())
		}
	})

	t.Run("mismatch and arity", func(t *testing.T) {
		p, _ := NewPassthrough(env, blueprint.KindToneMapping)
		outs := make([]*resource.Image, 1)
		p.SetOrCreateOutputImages(outs, formats(1, gputypes.TextureFormatRGBA8Unorm), 0)
		destroyAll(t, outs)
		small, err := resource.NewImage(env.Device, resource.ImageDesc{
			Label: "small", Extent: resource.Extent{Width: 8, Height: 8}, Format: gputypes.TextureFormatRGBA8Unorm,
		})
		if err != nil {
			t.Fatalf("NewImage() error = %v", err)
		}
		destroyAll(t, []*resource.Image{small})
		if p.SetOrCreateOutputImages([]*resource.Image{small}, formats(1, gputypes.TextureFormatRGBA8Unorm), 0) {
			t.Error("accepted an output at a different extent")
		}
		mistyped, err := resource.NewImage(env.Device, resource.ImageDesc{
			Label: "mistyped", Extent: display, Format: gputypes.TextureFormatRGBA16Float,
		})
		if err != nil {
			t.Fatalf("NewImage() error = %v", err)
		}
		destroyAll(t, []*resource.Image{mistyped})
		if p.SetOrCreateOutputImages([]*resource.Image{mistyped}, formats(1, gputypes.TextureFormatRGBA8Unorm), 0) {
			t.Error("accepted an output in a different format")
		}
		if p.SetOrCreateInputImages(make([]*resource.Image, 2), formats(2, gputypes.TextureFormatRGBA8Unorm), 0) {
			t.Error("accepted the wrong input arity")
		}
	})
}

// negotiate drives a module the way the builder does with empty slots. The
// created images are destroyed at cleanup.
func negotiate(t *testing.T, p *Passthrough, frames int, in, out gputypes.TextureFormat) {
	t.Helper()
	nIn, nOut := p.Kind().Arity()
	for f := range frames {
		outs := make([]*resource.Image, nOut)
		if !p.SetOrCreateOutputImages(outs, formats(nOut, out), f) {
			t.Fatalf("SetOrCreateOutputImages(%d) = false", f)
		}
		destroyAll(t, outs)
		ins := make([]*resource.Image, nIn)
		if !p.SetOrCreateInputImages(ins, formats(nIn, in), f) {
			t.Fatalf("SetOrCreateInputImages(%d) = false", f)
		}
		destroyAll(t, ins)
	}
}

func render(p *Passthrough, frame int) *headless.Recorder {
	rec := &headless.Recorder{}
	p.Contexts()[frame].Render(&module.Frame{Index: frame, Encoder: resource.NewEncoder(rec, 0)})
	return rec
}

func TestRenderCopy(t *testing.T) {
	env := newTestEnv(t, 2)
	p, _ := NewPassthrough(env, blueprint.KindTemporalAccumulation)
	t.Cleanup(p.Destroy)
	negotiate(t, p, 2, gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatRGBA16Float)
	if err := p.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if n := len(p.Contexts()); n != 2 {
		t.Fatalf("len(Contexts()) = %d, want 2", n)
	}

	rec := render(p, 1)
	if rec.Copies != 1 {
		t.Errorf("Copies = %d, want 1", rec.Copies)
	}
	if len(rec.Passes) != 0 {
		t.Errorf("Passes = %v, want none", rec.Passes)
	}
	if got := p.outputs[1][0].Layout(); got != resource.LayoutGeneral {
		t.Errorf("output layout = %s, want General", got)
	}
	if got := p.inputs[1][0].Layout(); got != resource.LayoutTransferSrc {
		t.Errorf("input layout = %s, want TransferSrc", got)
	}
}

func TestRenderResize(t *testing.T) {
	env := newTestEnv(t, 1)
	p, _ := NewPassthrough(env, blueprint.KindToneMapping)
	t.Cleanup(p.Destroy)
	negotiate(t, p, 1, gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatRGBA8Unorm)
	if err := p.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	rec := render(p, 0)
	if rec.Copies != 0 {
		t.Errorf("Copies = %d, want 0", rec.Copies)
	}
	if len(rec.Passes) != 1 || rec.Passes[0] != "resize_rgba8unorm" {
		t.Errorf("Passes = %v, want [resize_rgba8unorm]", rec.Passes)
	}
	if got := p.outputs[0][0].Layout(); got != resource.LayoutGeneral {
		t.Errorf("output layout = %s, want General", got)
	}
}

func TestRenderWithoutInputs(t *testing.T) {
	env := newTestEnv(t, 1)
	p, _ := NewPassthrough(env, blueprint.KindRayTracing)
	t.Cleanup(p.Destroy)
	negotiate(t, p, 1, gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatRGBA16Float)
	if err := p.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	rec := render(p, 0)
	if len(rec.Barriers) != 1 || len(rec.Barriers[0]) != 4 {
		t.Fatalf("Barriers = %v, want one batch of 4", rec.Barriers)
	}
	for _, img := range p.outputs[0] {
		if img.Layout() != resource.LayoutGeneral {
			t.Errorf("%s layout = %s, want General", img.Label(), img.Layout())
		}
	}
}

func TestBuildRequiresNegotiation(t *testing.T) {
	env := newTestEnv(t, 1)
	p, _ := NewPassthrough(env, blueprint.KindDenoiser)
	if err := p.Build(); err == nil {
		t.Error("Build() without negotiation succeeded")
	}
	if n := len(p.Contexts()); n != 0 {
		t.Errorf("len(Contexts()) = %d after failed Build, want 0", n)
	}
}

func TestAttributesAndBindTexture(t *testing.T) {
	env := newTestEnv(t, 1)
	p, _ := NewPassthrough(env, blueprint.KindToneMapping)

	attrs := []blueprint.Attribute{{Key: "exposure", Value: "1.5"}}
	p.SetAttributes(attrs)
	attrs[0].Value = "changed"
	if got := p.Attributes(); len(got) != 1 || got[0].Value != "1.5" {
		t.Errorf("Attributes() = %v, want an independent copy", got)
	}

	img, err := resource.NewImage(env.Device, resource.ImageDesc{
		Label: "lut", Extent: resource.Extent{Width: 16, Height: 16}, Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	defer img.Destroy()
	p.BindTexture(nil, img, 3)
	if b, ok := p.Bound(3); !ok || b.Image != img {
		t.Errorf("Bound(3) = %v, %v", b, ok)
	}
	if _, ok := p.Bound(0); ok {
		t.Error("Bound(0) reported a binding")
	}
	p.Destroy()
	if _, ok := p.Bound(3); ok {
		t.Error("binding survived Destroy")
	}
}
