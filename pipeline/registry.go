// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/module"
)

// Registry maps module kinds to constructors and to optional static
// pre-closers that tear down process-wide SDK state when the pipeline closes.
type Registry struct {
	ctors      map[blueprint.Kind]module.Constructor
	preClosers map[blueprint.Kind]func()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ctors:      make(map[blueprint.Kind]module.Constructor),
		preClosers: make(map[blueprint.Kind]func()),
	}
}

// Register sets the constructor for a kind, replacing any previous one.
func (r *Registry) Register(kind blueprint.Kind, ctor module.Constructor) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: kind %d", blueprint.ErrUnknownModule, kind)
	}
	if ctor == nil {
		return fmt.Errorf("pipeline: nil constructor for %s", kind)
	}
	r.ctors[kind] = ctor
	return nil
}

// RegisterPreCloser sets a function run once when a pipeline closes.
func (r *Registry) RegisterPreCloser(kind blueprint.Kind, fn func()) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: kind %d", blueprint.ErrUnknownModule, kind)
	}
	if fn == nil {
		return fmt.Errorf("pipeline: nil pre-closer for %s", kind)
	}
	r.preClosers[kind] = fn
	return nil
}

// Lookup returns the constructor for a kind.
func (r *Registry) Lookup(kind blueprint.Kind) (module.Constructor, bool) {
	ctor, ok := r.ctors[kind]
	return ctor, ok
}

// Kinds returns the kinds with a registered constructor, sorted.
func (r *Registry) Kinds() []blueprint.Kind {
	return slices.Sorted(maps.Keys(r.ctors))
}

// Missing returns the kinds used by bp that have no constructor.
func (r *Registry) Missing(bp *blueprint.Blueprint) []blueprint.Kind {
	var missing []blueprint.Kind
	for i := range bp.Len() {
		k := bp.Module(i).Kind
		if _, ok := r.ctors[k]; !ok && !slices.Contains(missing, k) {
			missing = append(missing, k)
		}
	}
	return missing
}

func (r *Registry) runPreClosers() {
	for _, k := range slices.Sorted(maps.Keys(r.preClosers)) {
		r.preClosers[k]()
	}
}
