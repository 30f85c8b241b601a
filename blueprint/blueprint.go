// Package blueprint describes the topology of a world pipeline: an ordered
// list of module descriptors connected through dense image slot indices, and
// the declared format of every slot.
package blueprint

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
)

// Attribute is one free-form key/value pair interpreted by the addressed module.
type Attribute struct {
	Key   string
	Value string
}

// Descriptor declares one module of a pipeline.
type Descriptor struct {
	Kind       Kind
	Attributes []Attribute
	// Inputs and Outputs are slot indices, in the order the module expects.
	Inputs  []int
	Outputs []int
}

// Blueprint is an immutable, validated pipeline topology.
type Blueprint struct {
	modules []Descriptor
	formats []gputypes.TextureFormat
}

// New validates the descriptors and slot formats and returns a Blueprint.
//
// Every descriptor must be of a known kind and reference exactly as many
// slots as the kind declares. The union of all referenced slots must be
// 0..N-1, and formats must hold one defined format per slot.
func New(modules []Descriptor, formats []gputypes.TextureFormat) (*Blueprint, error) {
	if len(modules) == 0 {
		return nil, ErrEmpty
	}

	used := make(map[int]struct{})
	var negative []int
	highest := -1
	for i, d := range modules {
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("%w: module %d has kind %d", ErrUnknownModule, i, d.Kind)
		}
		wantIn, wantOut := d.Kind.Arity()
		if len(d.Inputs) != wantIn || len(d.Outputs) != wantOut {
			return nil, &ArityError{
				Index:   i,
				Kind:    d.Kind,
				Inputs:  len(d.Inputs),
				Outputs: len(d.Outputs),
				WantIn:  wantIn,
				WantOut: wantOut,
			}
		}
		for _, s := range slices.Concat(d.Inputs, d.Outputs) {
			if s < 0 {
				negative = append(negative, s)
				continue
			}
			used[s] = struct{}{}
			highest = max(highest, s)
		}
	}
	if len(negative) > 0 {
		return nil, &TopologyError{Slots: highest + 1, Negative: negative}
	}
	if highest < 0 {
		return nil, ErrEmpty
	}

	slots := highest + 1
	if len(used) != slots {
		var missing []int
		for s := range slots {
			if _, ok := used[s]; !ok {
				missing = append(missing, s)
			}
		}
		return nil, &TopologyError{Slots: slots, Missing: missing}
	}

	if len(formats) != slots {
		return nil, fmt.Errorf("%w: %d formats for %d slots", ErrSlotFormat, len(formats), slots)
	}
	for s, f := range formats {
		if f == gputypes.TextureFormatUndefined {
			return nil, fmt.Errorf("%w: slot %d is undefined", ErrSlotFormat, s)
		}
	}

	b := &Blueprint{
		modules: make([]Descriptor, len(modules)),
		formats: slices.Clone(formats),
	}
	for i, d := range modules {
		b.modules[i] = Descriptor{
			Kind:       d.Kind,
			Attributes: slices.Clone(d.Attributes),
			Inputs:     slices.Clone(d.Inputs),
			Outputs:    slices.Clone(d.Outputs),
		}
	}
	return b, nil
}

// Len returns the number of modules.
func (b *Blueprint) Len() int { return len(b.modules) }

// Module returns the i-th descriptor. The returned slices must not be modified.
func (b *Blueprint) Module(i int) Descriptor { return b.modules[i] }

// Modules returns all descriptors in declared order.
func (b *Blueprint) Modules() []Descriptor { return slices.Clone(b.modules) }

// Slots returns the number of image slots.
func (b *Blueprint) Slots() int { return len(b.formats) }

// Format returns the declared format of a slot.
func (b *Blueprint) Format(slot int) gputypes.TextureFormat { return b.formats[slot] }

// Formats returns the declared formats of the given slots, in order.
func (b *Blueprint) Formats(slots []int) []gputypes.TextureFormat {
	out := make([]gputypes.TextureFormat, len(slots))
	for i, s := range slots {
		out[i] = b.formats[s]
	}
	return out
}

// Equal reports whether two blueprints describe the same pipeline.
func (b *Blueprint) Equal(o *Blueprint) bool {
	if b == nil || o == nil {
		return b == o
	}
	return slices.Equal(b.formats, o.formats) &&
		slices.EqualFunc(b.modules, o.modules, func(x, y Descriptor) bool {
			return x.Kind == y.Kind &&
				slices.Equal(x.Attributes, y.Attributes) &&
				slices.Equal(x.Inputs, y.Inputs) &&
				slices.Equal(x.Outputs, y.Outputs)
		})
}
