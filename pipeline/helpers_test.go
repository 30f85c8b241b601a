// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/internal/headless"
	"github.com/gogpu/framegraph/module"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
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

// slotFormats declares slot 0 as the display format and every other slot as
// HDR color.
func slotFormats(n int) []gputypes.TextureFormat {
	out := make([]gputypes.TextureFormat, n)
	for i := range out {
		out[i] = gputypes.TextureFormatRGBA16Float
	}
	out[0] = gputypes.TextureFormatRGBA8Unorm
	return out
}

func newBlueprint(t *testing.T, slots int, ds ...blueprint.Descriptor) *blueprint.Blueprint {
	t.Helper()
	bp, err := blueprint.New(ds, slotFormats(slots))
	if err != nil {
		t.Fatalf("blueprint.New() error = %v", err)
	}
	return bp
}

// chain is ray tracing into a denoiser into tone mapping.
func chain(t *testing.T) *blueprint.Blueprint {
	t.Helper()
	return newBlueprint(t, 6,
		blueprint.Descriptor{Kind: blueprint.KindRayTracing, Outputs: []int{1, 2, 3, 4}},
		blueprint.Descriptor{Kind: blueprint.KindDenoiser, Inputs: []int{1, 2, 3}, Outputs: []int{5}},
		blueprint.Descriptor{Kind: blueprint.KindToneMapping, Inputs: []int{5}, Outputs: []int{0}},
	)
}

// events is the shared call log of every fake module.
type events struct {
	log []string
}

func (e *events) add(format string, args ...any) {
	e.log = append(e.log, fmt.Sprintf(format, args...))
}

func (e *events) withPrefix(prefix string) []string {
	var out []string
	for _, s := range e.log {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func (e *events) forKind(kind blueprint.Kind) []string {
	var out []string
	for _, s := range e.log {
		if f := strings.Fields(s); len(f) > 1 && f[1] == kind.Key() {
			out = append(out, s)
		}
	}
	return out
}

// fakeModule is a scripted module. It creates missing images at extent, or
// at the display extent when extent is zero.
type fakeModule struct {
	kind blueprint.Kind
	env  *module.Env
	ev   *events

	extent    resource.Extent
	rejectOut int // rejected output calls per frame
	rejectIn  int // rejected input calls per frame
	leaveNil  bool
	replace   bool // swap existing output images for new ones
	buildErr  error
	contexts  int

	outCalls map[int]int
	inCalls  map[int]int
	lastOut  map[int][]*resource.Image
	lastIn   map[int][]*resource.Image
	attrs    []blueprint.Attribute
	bound    []int
	numbers  []uint64

	preClosed int
	destroyed int
	replaced  []*resource.Image
}

func (m *fakeModule) Kind() blueprint.Kind { return m.kind }

func (m *fakeModule) SetAttributes(attrs []blueprint.Attribute) {
	m.ev.add("attrs %s", m.kind.Key())
	m.attrs = slices.Clone(attrs)
}

func (m *fakeModule) SetOrCreateOutputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool {
	m.ev.add("out %s f%d", m.kind.Key(), frame)
	m.outCalls[frame]++
	if m.outCalls[frame] <= m.rejectOut {
		return false
	}
	if m.replace {
		for i, img := range images {
			if img != nil {
				m.replaced = append(m.replaced, img)
				images[i] = nil
			}
		}
	}
	if !m.fill(images, formats, "out", frame) {
		return false
	}
	m.lastOut[frame] = slices.Clone(images)
	return true
}

func (m *fakeModule) SetOrCreateInputImages(images []*resource.Image, formats []gputypes.TextureFormat, frame int) bool {
	m.ev.add("in %s f%d", m.kind.Key(), frame)
	m.inCalls[frame]++
	if m.inCalls[frame] <= m.rejectIn {
		return false
	}
	if !m.fill(images, formats, "in", frame) {
		return false
	}
	m.lastIn[frame] = slices.Clone(images)
	return true
}

func (m *fakeModule) fill(images []*resource.Image, formats []gputypes.TextureFormat, side string, frame int) bool {
	if m.leaveNil {
		return true
	}
	extent := m.extent
	if extent.IsZero() {
		extent = m.env.Extent
	}
	for i, img := range images {
		if img != nil {
			continue
		}
		created, err := resource.NewImage(m.env.Device, resource.ImageDesc{
			Label:  fmt.Sprintf("fake_%s_%s%d_f%d", m.kind.Key(), side, i, frame),
			Extent: extent,
			Format: formats[i],
		})
		if err != nil {
			return false
		}
		images[i] = created
	}
	return true
}

func (m *fakeModule) Build() error {
	m.ev.add("build %s", m.kind.Key())
	return m.buildErr
}

func (m *fakeModule) Contexts() []module.Context {
	n := m.env.Frames
	if m.contexts > 0 {
		n = m.contexts
	}
	out := make([]module.Context, n)
	for f := range out {
		out[f] = &fakeContext{module: m, frame: f}
	}
	return out
}

func (m *fakeModule) BindTexture(_ hal.Sampler, _ *resource.Image, index int) {
	m.bound = append(m.bound, index)
}

func (m *fakeModule) PreClose() {
	m.ev.add("preclose %s", m.kind.Key())
	m.preClosed++
}

func (m *fakeModule) Destroy() {
	m.ev.add("destroy %s", m.kind.Key())
	m.destroyed++
}

type fakeContext struct {
	module *fakeModule
	frame  int
}

func (c *fakeContext) Render(f *module.Frame) {
	c.module.ev.add("render %s f%d", c.module.kind.Key(), f.Index)
	c.module.numbers = append(c.module.numbers, f.Number)
}

// fakes constructs scripted modules and remembers every instance.
type fakes struct {
	ev      events
	setup   map[blueprint.Kind]func(*fakeModule)
	ctorErr map[blueprint.Kind]error
	all     []*fakeModule
}

func newFakes() *fakes {
	return &fakes{
		setup:   make(map[blueprint.Kind]func(*fakeModule)),
		ctorErr: make(map[blueprint.Kind]error),
	}
}

func (fs *fakes) constructor(kind blueprint.Kind) module.Constructor {
	return func(env *module.Env) (module.Module, error) {
		if err := fs.ctorErr[kind]; err != nil {
			return nil, err
		}
		m := &fakeModule{
			kind:     kind,
			env:      env,
			ev:       &fs.ev,
			outCalls: make(map[int]int),
			inCalls:  make(map[int]int),
			lastOut:  make(map[int][]*resource.Image),
			lastIn:   make(map[int][]*resource.Image),
		}
		if fn := fs.setup[kind]; fn != nil {
			fn(m)
		}
		fs.ev.add("new %s", kind.Key())
		fs.all = append(fs.all, m)
		return m, nil
	}
}

// registry registers a fake constructor for every kind.
func (fs *fakes) registry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, k := range blueprint.Kinds() {
		if err := reg.Register(k, fs.constructor(k)); err != nil {
			t.Fatalf("Register(%s) error = %v", k, err)
		}
	}
	return reg
}

// get returns the latest instance of kind, or nil.
func (fs *fakes) get(kind blueprint.Kind) *fakeModule {
	for i := len(fs.all) - 1; i >= 0; i-- {
		if fs.all[i].kind == kind {
			return fs.all[i]
		}
	}
	return nil
}

func newFrame(index int) (*module.Frame, *headless.Recorder) {
	rec := &headless.Recorder{}
	return &module.Frame{Index: index, Encoder: resource.NewEncoder(rec, 0)}, rec
}
