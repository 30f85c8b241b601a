package blueprint

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a blueprint.
//
// TOML:
//
//	formats = ["RGBA8Unorm", "RGBA16Float", "R32Float", "RG16Float", "R32Float"]
//
//	[[module]]
//	name = "render_pipeline.module.xess_sr.name"
//	inputs = [1, 2, 3, 4]
//	outputs = [0, 5]
//
//	  [[module.attribute]]
//	  key = "quality_mode"
//	  value = "balanced"
type File struct {
	Formats []string     `toml:"formats" yaml:"formats"`
	Modules []FileModule `toml:"module" yaml:"modules"`
}

// FileModule is the on-disk form of a Descriptor.
type FileModule struct {
	Name       string          `toml:"name" yaml:"name"`
	Inputs     []int           `toml:"inputs" yaml:"inputs"`
	Outputs    []int           `toml:"outputs" yaml:"outputs"`
	Attributes []FileAttribute `toml:"attribute" yaml:"attributes"`
}

// FileAttribute is the on-disk form of an Attribute.
type FileAttribute struct {
	Key   string `toml:"key" yaml:"key"`
	Value string `toml:"value" yaml:"value"`
}

// Blueprint converts the file form into a validated Blueprint.
func (f *File) Blueprint() (*Blueprint, error) {
	formats := make([]gputypes.TextureFormat, len(f.Formats))
	for i, name := range f.Formats {
		format, err := ParseFormat(name)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		formats[i] = format
	}

	modules := make([]Descriptor, len(f.Modules))
	for i, m := range f.Modules {
		kind, err := ParseKind(m.Name)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
		attrs := make([]Attribute, len(m.Attributes))
		for j, a := range m.Attributes {
			attrs[j] = Attribute(a)
		}
		modules[i] = Descriptor{
			Kind:       kind,
			Attributes: attrs,
			Inputs:     m.Inputs,
			Outputs:    m.Outputs,
		}
	}
	return New(modules, formats)
}

// DecodeTOML reads a TOML blueprint. Unknown fields are rejected.
func DecodeTOML(r io.Reader) (*Blueprint, error) {
	var f File
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("blueprint: decode toml: %w", err)
	}
	return f.Blueprint()
}

// DecodeYAML reads a YAML blueprint. Unknown fields are rejected.
func DecodeYAML(r io.Reader) (*Blueprint, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("blueprint: decode yaml: %w", err)
	}
	return f.Blueprint()
}

// Load reads a blueprint file, choosing the decoder by extension
// (.toml, .yaml or .yml).
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blueprint: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return DecodeTOML(bytes.NewReader(data))
	case ".yaml", ".yml":
		return DecodeYAML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("blueprint: unsupported file extension %q", filepath.Ext(path))
	}
}

// ToFile converts a Blueprint back into its file form.
func (b *Blueprint) ToFile() *File {
	f := &File{
		Formats: make([]string, len(b.formats)),
		Modules: make([]FileModule, len(b.modules)),
	}
	for i, format := range b.formats {
		f.Formats[i] = format.String()
	}
	for i, d := range b.modules {
		attrs := make([]FileAttribute, len(d.Attributes))
		for j, a := range d.Attributes {
			attrs[j] = FileAttribute(a)
		}
		f.Modules[i] = FileModule{
			Name:       d.Kind.Name(),
			Inputs:     d.Inputs,
			Outputs:    d.Outputs,
			Attributes: attrs,
		}
	}
	return f
}

// EncodeTOML writes the blueprint in TOML form.
func (b *Blueprint) EncodeTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(b.ToFile()); err != nil {
		return fmt.Errorf("blueprint: encode toml: %w", err)
	}
	return nil
}
