// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/wgpu/hal"
)

// Destroyer is anything that releases GPU memory on Destroy.
type Destroyer interface {
	Destroy()
}

// DestroyFunc adapts a function to Destroyer.
type DestroyFunc func()

// Destroy calls f.
func (f DestroyFunc) Destroy() { f() }

type retired struct {
	res        Destroyer
	frame      uint64
	submission uint64
}

// Collector defers destruction of resources that in-flight GPU work may still
// reference.
//
// A retired resource is destroyed once depth frames have been advanced past
// its retirement and, when a queue is attached, once the queue reports the
// last submission recorded before retirement as completed.
type Collector struct {
	mu        sync.Mutex
	queue     hal.Queue
	depth     uint64
	frame     uint64
	submitted uint64
	pending   []retired
}

// NewCollector returns a collector that keeps resources alive for depth
// frames. queue may be nil.
func NewCollector(queue hal.Queue, depth int) *Collector {
	if depth < 1 {
		depth = 1
	}
	return &Collector{queue: queue, depth: uint64(depth)}
}

// Retire queues a resource for deferred destruction.
func (c *Collector) Retire(res Destroyer) {
	if res == nil {
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, retired{res: res, frame: c.frame, submission: c.submitted})
	c.mu.Unlock()
}

// Submitted records the index returned by the latest queue submission.
func (c *Collector) Submitted(index uint64) {
	c.mu.Lock()
	if index > c.submitted {
		c.submitted = index
	}
	c.mu.Unlock()
}

// Advance marks the end of a frame and destroys every resource that is no
// longer reachable by GPU work. It returns the number destroyed.
func (c *Collector) Advance() int {
	c.mu.Lock()
	c.frame++
	var completed uint64
	if c.queue != nil {
		completed = c.queue.PollCompleted()
	}
	var ready []Destroyer
	kept := c.pending[:0]
	for _, r := range c.pending {
		if c.frame-r.frame < c.depth || (c.queue != nil && completed < r.submission) {
			kept = append(kept, r)
			continue
		}
		ready = append(ready, r.res)
	}
	clear(c.pending[len(kept):])
	c.pending = kept
	c.mu.Unlock()

	for _, res := range ready {
		res.Destroy()
	}
	if len(ready) > 0 {
		framegraph.Logger().Debug("resource: collected retired resources", "count", len(ready))
	}
	return len(ready)
}

// Pending returns the number of resources awaiting destruction.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush destroys every pending resource immediately. The caller must have
// waited for the device to go idle.
func (c *Collector) Flush() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, r := range pending {
		r.res.Destroy()
	}
}
