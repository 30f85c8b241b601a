// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	"fmt"

	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/wgpu/hal"
)

// Session guards a Backend: it validates requests before they reach the SDK
// and tracks whether initialization succeeded.
type Session struct {
	backend     Backend
	cfg         Config
	initialized bool
}

// NewSession wraps b. A nil backend is replaced by Unavailable.
func NewSession(b Backend) *Session {
	if b == nil {
		b = Unavailable{}
	}
	return &Session{backend: b}
}

// Name returns the backend name.
func (s *Session) Name() string { return s.backend.Name() }

// Available reports whether the backend can run at all.
func (s *Session) Available() bool { return s.backend.Available() }

// Initialized reports whether the last Initialize succeeded and Destroy has
// not run since.
func (s *Session) Initialized() bool { return s.initialized }

// Config returns the configuration of the last Initialize or Resize.
func (s *Session) Config() Config { return s.cfg }

// Query returns the backend's preferred render resolution for display, or
// an error when the backend cannot answer.
func (s *Session) Query(device hal.Device, display resource.Extent, mode QualityMode) (resource.Extent, error) {
	if device == nil || display.IsZero() {
		return resource.Extent{}, ErrInvalidConfig
	}
	ext, err := s.backend.QueryOptimalInputResolution(device, display, mode)
	if err != nil {
		return resource.Extent{}, err
	}
	if ext.IsZero() {
		return resource.Extent{}, fmt.Errorf("%w: %s returned %s", ErrUnavailable, s.Name(), ext)
	}
	return ext, nil
}

// Initialize tears down any previous state and initializes the backend.
func (s *Session) Initialize(cfg Config) error {
	s.Destroy()
	s.cfg = cfg
	if cfg.Device == nil || cfg.Render.IsZero() || cfg.Display.IsZero() {
		return fmt.Errorf("%w: render %s display %s", ErrInvalidConfig, cfg.Render, cfg.Display)
	}
	if err := s.backend.Initialize(cfg); err != nil {
		return fmt.Errorf("upscaler: initialize %s: %w", s.Name(), err)
	}
	s.initialized = true
	return nil
}

// Resize reinitializes the backend for new extents.
func (s *Session) Resize(render, display resource.Extent) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	s.cfg.Render, s.cfg.Display = render, display
	if err := s.backend.Resize(render, display); err != nil {
		return fmt.Errorf("upscaler: resize %s: %w", s.Name(), err)
	}
	return nil
}

// Dispatch validates in and forwards it to the backend.
func (s *Session) Dispatch(in *Input) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if in == nil || in.Encoder == nil {
		return fmt.Errorf("%w: no command stream", ErrInvalidInput)
	}
	for _, img := range []*resource.Image{in.Color, in.Velocity, in.Output} {
		if !usable(img) {
			return fmt.Errorf("%w: missing or destroyed image", ErrInvalidInput)
		}
	}
	if in.InputExtent.IsZero() {
		return fmt.Errorf("%w: input extent %s", ErrInvalidInput, in.InputExtent)
	}
	return s.backend.Dispatch(in)
}

// Destroy releases backend state. The session can be initialized again.
func (s *Session) Destroy() {
	if s.initialized {
		s.backend.Destroy()
	}
	s.initialized = false
}

func usable(img *resource.Image) bool {
	return img != nil && !img.Destroyed() && !img.Extent().IsZero()
}
