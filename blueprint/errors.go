package blueprint

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModule is returned for a module name outside the known kinds.
	ErrUnknownModule = errors.New("blueprint: unknown module")

	// ErrTopology is wrapped by TopologyError.
	ErrTopology = errors.New("blueprint: slot indices are not contiguous")

	// ErrArity is wrapped by ArityError.
	ErrArity = errors.New("blueprint: slot count does not match module kind")

	// ErrEmpty is returned for a blueprint without modules or slots.
	ErrEmpty = errors.New("blueprint: no modules")

	// ErrSlotFormat is returned when slot formats are missing or undefined.
	ErrSlotFormat = errors.New("blueprint: invalid slot format")

	// ErrUnknownFormat is returned when a format name cannot be parsed.
	ErrUnknownFormat = errors.New("blueprint: unknown texture format")
)

// TopologyError reports slot indices that do not form 0..Slots-1.
type TopologyError struct {
	// Slots is one past the highest referenced index.
	Slots int
	// Missing lists indices in 0..Slots-1 that no module references.
	Missing []int
	// Negative lists referenced indices below zero.
	Negative []int
}

func (e *TopologyError) Error() string {
	if len(e.Negative) > 0 {
		return fmt.Sprintf("%v: negative indices %v", ErrTopology, e.Negative)
	}
	return fmt.Sprintf("%v: missing %v in 0..%d", ErrTopology, e.Missing, e.Slots-1)
}

func (e *TopologyError) Unwrap() error { return ErrTopology }

// ArityError reports a descriptor whose slot counts differ from its kind.
type ArityError struct {
	Index           int
	Kind            Kind
	Inputs, Outputs int
	WantIn, WantOut int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%v: module %d (%s) has %d inputs and %d outputs, want %d and %d",
		ErrArity, e.Index, e.Kind, e.Inputs, e.Outputs, e.WantIn, e.WantOut)
}

func (e *ArityError) Unwrap() error { return ErrArity }
