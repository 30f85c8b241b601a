package blueprint

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

const chainTOML = `
formats = ["RGBA8Unorm", "rgba16float", "R32Float", "RG16Float", "r32float", "RGBA16Float", "R32Float"]

[[module]]
name = "render_pipeline.module.ray_tracing.name"
inputs = []
outputs = [1, 2, 3, 4]

[[module]]
name = "render_pipeline.module.xess_sr.name"
inputs = [1, 2, 3, 4]
outputs = [5, 6]

  [[module.attribute]]
  key = "render_pipeline.module.xess_sr.attribute.quality_mode"
  value = "balanced"

  [[module.attribute]]
  key = "render_pipeline.module.xess_sr.attribute.enable"
  value = "true"

[[module]]
name = "tone_mapping"
inputs = [5]
outputs = [0]
`

const chainYAML = `
formats: [RGBA8Unorm, RGBA16Float, R32Float, RG16Float, R32Float, RGBA16Float, R32Float]
modules:
  - name: render_pipeline.module.ray_tracing.name
    outputs: [1, 2, 3, 4]
  - name: render_pipeline.module.xess_sr.name
    inputs: [1, 2, 3, 4]
    outputs: [5, 6]
    attributes:
      - key: render_pipeline.module.xess_sr.attribute.quality_mode
        value: balanced
      - key: render_pipeline.module.xess_sr.attribute.enable
        value: "true"
  - name: tone_mapping
    inputs: [5]
    outputs: [0]
`

func checkChain(t *testing.T, b *Blueprint) {
	t.Helper()
	if b.Len() != 3 || b.Slots() != 7 {
		t.Fatalf("blueprint = %d modules %d slots, want 3 and 7", b.Len(), b.Slots())
	}
	if b.Module(1).Kind != KindXeSSUpscaler {
		t.Errorf("module 1 kind = %v, want xess_sr", b.Module(1).Kind)
	}
	if b.Module(2).Kind != KindToneMapping {
		t.Errorf("module 2 kind = %v, want tone_mapping", b.Module(2).Kind)
	}
	attrs := b.Module(1).Attributes
	if len(attrs) != 2 || attrs[0].Value != "balanced" || attrs[1].Value != "true" {
		t.Errorf("module 1 attributes = %v", attrs)
	}
	if b.Format(1) != gputypes.TextureFormatRGBA16Float {
		t.Errorf("slot 1 format = %v, want RGBA16Float", b.Format(1))
	}
}

func TestDecodeTOML(t *testing.T) {
	b, err := DecodeTOML(strings.NewReader(chainTOML))
	if err != nil {
		t.Fatalf("DecodeTOML() error = %v", err)
	}
	checkChain(t, b)
}

func TestDecodeYAML(t *testing.T) {
	b, err := DecodeYAML(strings.NewReader(chainYAML))
	if err != nil {
		t.Fatalf("DecodeYAML() error = %v", err)
	}
	checkChain(t, b)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want error
	}{
		{
			name: "unknown module",
			toml: "formats = [\"RGBA8Unorm\"]\n[[module]]\nname = \"svgf\"\n",
			want: ErrUnknownModule,
		},
		{
			name: "unknown format",
			toml: "formats = [\"RGBA9Magic\"]\n",
			want: ErrUnknownFormat,
		},
		{
			name: "gap",
			toml: "formats = [\"RGBA8Unorm\", \"RGBA8Unorm\", \"RGBA8Unorm\"]\n" +
				"[[module]]\nname = \"tone_mapping\"\ninputs = [2]\noutputs = [0]\n",
			want: ErrTopology,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTOML(strings.NewReader(tt.toml)); !errors.Is(err, tt.want) {
				t.Errorf("DecodeTOML() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := DecodeTOML(strings.NewReader("formats = []\nslots = 3\n")); err == nil {
		t.Error("DecodeTOML() should reject unknown fields")
	}
	if _, err := DecodeYAML(strings.NewReader("formats: []\nslots: 3\n")); err == nil {
		t.Error("DecodeYAML() should reject unknown fields")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"chain.toml": chainTOML,
		"chain.yaml": chainYAML,
		"chain.yml":  chainYAML,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		b, err := Load(path)
		if err != nil {
			t.Errorf("Load(%s) error = %v", name, err)
			continue
		}
		checkChain(t, b)
	}

	txt := filepath.Join(dir, "chain.txt")
	if err := os.WriteFile(txt, []byte(chainTOML), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(txt); err == nil {
		t.Error("Load() should reject unknown extensions")
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestEncodeTOML(t *testing.T) {
	b, err := DecodeTOML(strings.NewReader(chainTOML))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := b.EncodeTOML(&buf); err != nil {
		t.Fatalf("EncodeTOML() error = %v", err)
	}
	again, err := DecodeTOML(&buf)
	if err != nil {
		t.Fatalf("DecodeTOML(encoded) error = %v\n%s", err, buf.String())
	}
	if !b.Equal(again) {
		t.Error("encoded blueprint does not decode to the same pipeline")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want gputypes.TextureFormat
	}{
		{"RGBA16Float", gputypes.TextureFormatRGBA16Float},
		{"rgba16float", gputypes.TextureFormatRGBA16Float},
		{" R32Float ", gputypes.TextureFormatR32Float},
		{"BGRA8UnormSrgb", gputypes.TextureFormatBGRA8UnormSrgb},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%v, %v), want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("Undefined"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(Undefined) error = %v, want ErrUnknownFormat", err)
	}
}
