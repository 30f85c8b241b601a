// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	"strings"

	"github.com/gogpu/framegraph/resource"
	"golang.org/x/text/cases"
)

// QualityMode selects the render to display resolution ratio. Modes are
// ordered from highest fidelity to highest performance.
type QualityMode uint8

const (
	NativeAA QualityMode = iota
	UltraQualityPlus
	UltraQuality
	Quality
	Balanced
	Performance
	UltraPerformance

	qualityCount
)

// DefaultQuality is the mode a freshly constructed upscaler uses.
const DefaultQuality = Quality

var qualityInfo = [qualityCount]struct {
	name  string
	ratio float32
}{
	NativeAA:         {"native_aa", 1.0},
	UltraQualityPlus: {"ultra_quality_plus", 1.3},
	UltraQuality:     {"ultra_quality", 1.5},
	Quality:          {"quality", 1.7},
	Balanced:         {"balanced", 2.0},
	Performance:      {"performance", 2.3},
	UltraPerformance: {"ultra_performance", 3.0},
}

// qualityAliases are the short spellings accepted for each mode, numeric
// codes included.
var qualityAliases = map[string]QualityMode{
	"0": NativeAA, "native": NativeAA, "native_aa": NativeAA, "1x": NativeAA,

	"1": UltraQualityPlus, "ultra_quality_plus": UltraQualityPlus, "uq_plus": UltraQualityPlus,
	"uqp": UltraQualityPlus, "ultraqualityplus": UltraQualityPlus,

	"2": UltraQuality, "ultra_quality": UltraQuality, "ultraquality": UltraQuality,

	"3": Quality, "quality": Quality,

	"4": Balanced, "balanced": Balanced,

	"5": Performance, "performance": Performance,

	"6": UltraPerformance, "ultra": UltraPerformance, "ultra_performance": UltraPerformance,
	"ultra_performance_3x": UltraPerformance,
}

// qualityKeys are the suffixes accepted after "<prefix>quality_mode.".
var qualityKeys = map[string]QualityMode{
	"native_aa":            NativeAA,
	"native_anti_aliasing": NativeAA,
	"ultra_quality_plus":   UltraQualityPlus,
	"ultra_quality":        UltraQuality,
	"quality":              Quality,
	"balanced":             Balanced,
	"performance":          Performance,
	"ultra_performance":    UltraPerformance,
}

// Valid reports whether m is one of the seven modes.
func (m QualityMode) Valid() bool { return m < qualityCount }

func (m QualityMode) String() string {
	if !m.Valid() {
		return "unknown"
	}
	return qualityInfo[m].name
}

// Ratio returns the display to render resolution ratio of m.
func (m QualityMode) Ratio() float32 {
	if !m.Valid() {
		return 1
	}
	return qualityInfo[m].ratio
}

// RenderExtent derives the render resolution from the display resolution by
// dividing each side by the mode's ratio and truncating. Sides never drop
// below one pixel.
func (m QualityMode) RenderExtent(display resource.Extent) resource.Extent {
	ratio := m.Ratio()
	return resource.Extent{
		Width:  max(uint32(float32(display.Width)/ratio), 1),
		Height: max(uint32(float32(display.Height)/ratio), 1),
	}
}

// ParseQuality matches value case-insensitively against the numeric codes,
// the short aliases and the fully qualified keys "<keyPrefix>quality_mode.<name>".
func ParseQuality(keyPrefix, value string) (QualityMode, bool) {
	fold := cases.Fold()
	v := fold.String(strings.TrimSpace(value))
	if m, ok := qualityAliases[v]; ok {
		return m, true
	}
	qualified := fold.String(keyPrefix + keyQuality + ".")
	if keyPrefix != "" && strings.HasPrefix(v, qualified) {
		m, ok := qualityKeys[strings.TrimPrefix(v, qualified)]
		return m, ok
	}
	return 0, false
}
