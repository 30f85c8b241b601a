// Package shader compiles WGSL compute shaders and assembles the HAL objects
// needed to dispatch them.
package shader

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// spirvCache memoizes compiled SPIR-V by WGSL source. Shaders are compiled
// once per process even when pipelines are rebuilt on every recreation.
var spirvCache sync.Map // map[string][]uint32

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	if words, ok := spirvCache.Load(wgsl); ok {
		return words.([]uint32), nil
	}

	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: compile: SPIR-V size %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	spirvCache.Store(wgsl, words)
	return words, nil
}
