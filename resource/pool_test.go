package resource

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestPoolGatherScatter(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewPool(2, 4)
	if p.Frames() != 2 || p.Slots() != 4 {
		t.Fatalf("pool = %dx%d, want 2x4", p.Frames(), p.Slots())
	}

	img := newTestImage(t, device, "s2", 16, 16, gputypes.TextureFormatR32Float)
	images := p.Gather(1, []int{2, 3})
	if images[0] != nil || images[1] != nil {
		t.Fatal("new pool cells should be nil")
	}
	images[0] = img
	p.Scatter(1, []int{2, 3}, images)

	if p.Get(1, 2) != img {
		t.Error("Scatter did not store the image")
	}
	if p.Get(0, 2) != nil {
		t.Error("Scatter leaked into another frame")
	}

	count := 0
	p.Each(func(_, _ int, img *Image) {
		if img != nil {
			count++
		}
	})
	if count != 1 {
		t.Errorf("Each saw %d images, want 1", count)
	}
}

func TestPoolDestroySharedImage(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewPool(1, 3)
	shared := newTestImage(t, device, "shared", 16, 16, gputypes.TextureFormatR32Float)
	p.Set(0, 0, shared)
	p.Set(0, 2, shared)

	p.Destroy()
	if !shared.Destroyed() {
		t.Error("Destroy() did not release the image")
	}
	if p.Get(0, 0) != nil || p.Get(0, 2) != nil {
		t.Error("Destroy() should clear cells")
	}
}

func TestPoolDump(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewPool(1, 2)
	p.Set(0, 0, newTestImage(t, device, "final", 1920, 1080, gputypes.TextureFormatRGBA8Unorm))

	var buf bytes.Buffer
	if err := p.Dump(&buf); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FRAME", "1920x1080", "RGBA8Unorm", "Undefined", "final"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 3 {
		t.Errorf("Dump() lines = %d, want 3", lines)
	}
}

func TestNewPoolEmpty(t *testing.T) {
	if got := NewPool(0, 3).Slots(); got != 0 {
		t.Errorf("Slots() of frameless pool = %d, want 0", got)
	}
}

func TestPoolScatterDisplaced(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	p := NewPool(2, 3)
	old := newTestImage(t, device, "old", 16, 16, gputypes.TextureFormatR32Float)
	shared := newTestImage(t, device, "shared", 16, 16, gputypes.TextureFormatR32Float)
	next := newTestImage(t, device, "next", 16, 16, gputypes.TextureFormatR32Float)
	p.Set(0, 0, old)
	p.Set(0, 1, shared)
	p.Set(1, 1, shared)

	tests := []struct {
		name   string
		slots  []int
		images []*Image
		want   []*Image
	}{
		{"unchanged", []int{0, 1}, []*Image{old, shared}, nil},
		{"still referenced", []int{1}, []*Image{next}, nil},
		{"replaced", []int{0}, []*Image{next}, []*Image{old}},
	}
	for _, tt := range tests {
		got := p.Scatter(0, tt.slots, tt.images)
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s: Scatter() displaced %v, want %v", tt.name, got, tt.want)
		}
	}
	if !p.Contains(shared) || p.Contains(old) {
		t.Error("Contains() disagrees with the cells")
	}
}
