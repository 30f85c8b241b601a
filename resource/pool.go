// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
)

// Pool holds the shared slot images of a pipeline, one row per frame in flight.
// A cell is nil until a module or the builder allocates it.
//
// The pool is mutated only while a pipeline is built. During rendering it is
// read-only.
type Pool struct {
	cells [][]*Image
}

// NewPool returns an empty pool of frames x slots cells.
func NewPool(frames, slots int) *Pool {
	cells := make([][]*Image, frames)
	for f := range cells {
		cells[f] = make([]*Image, slots)
	}
	return &Pool{cells: cells}
}

// Frames returns the number of frames in flight.
func (p *Pool) Frames() int { return len(p.cells) }

// Slots returns the number of slots per frame.
func (p *Pool) Slots() int {
	if len(p.cells) == 0 {
		return 0
	}
	return len(p.cells[0])
}

// Get returns the image in a cell, or nil.
func (p *Pool) Get(frame, slot int) *Image { return p.cells[frame][slot] }

// Set stores an image in a cell.
func (p *Pool) Set(frame, slot int, img *Image) { p.cells[frame][slot] = img }

// Gather returns the images of the given slots for one frame, in slot order.
// The returned slice is a copy; modify it and pass it to Scatter.
func (p *Pool) Gather(frame int, slots []int) []*Image {
	out := make([]*Image, len(slots))
	for i, s := range slots {
		out[i] = p.cells[frame][s]
	}
	return out
}

// Scatter writes images back to the given slots of one frame. It returns the
// images it displaced that no cell references any more; the caller owns them.
func (p *Pool) Scatter(frame int, slots []int, images []*Image) []*Image {
	var displaced []*Image
	for i, s := range slots {
		old := p.cells[frame][s]
		p.cells[frame][s] = images[i]
		if old != nil && old != images[i] && !slices.Contains(displaced, old) {
			displaced = append(displaced, old)
		}
	}
	return slices.DeleteFunc(displaced, p.Contains)
}

// Contains reports whether any cell holds img.
func (p *Pool) Contains(img *Image) bool {
	for _, row := range p.cells {
		if slices.Contains(row, img) {
			return true
		}
	}
	return false
}

// Each calls fn for every cell, frame-major.
func (p *Pool) Each(fn func(frame, slot int, img *Image)) {
	for f, row := range p.cells {
		for s, img := range row {
			fn(f, s, img)
		}
	}
}

// Destroy releases every distinct image in the pool and clears all cells.
func (p *Pool) Destroy() {
	seen := make(map[*Image]struct{})
	for _, row := range p.cells {
		for s, img := range row {
			row[s] = nil
			if img == nil {
				continue
			}
			if _, ok := seen[img]; ok {
				continue
			}
			seen[img] = struct{}{}
			img.Destroy()
		}
	}
}

// Dump writes one line per cell: frame, slot, extent, format and layout.
func (p *Pool) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tSLOT\tEXTENT\tFORMAT\tLAYOUT\tLABEL")
	p.Each(func(frame, slot int, img *Image) {
		if img == nil {
			fmt.Fprintf(tw, "%d\t%d\t-\t-\t-\t-\n", frame, slot)
			return
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			frame, slot, img.Extent(), img.Format(), img.Layout(), img.Label())
	})
	return tw.Flush()
}
