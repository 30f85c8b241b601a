// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upscaler

import (
	"strconv"
	"strings"

	"github.com/gogpu/framegraph/blueprint"
	"github.com/gogpu/framegraph/resource"
)

// Attribute keys, relative to the kind's attribute prefix.
const (
	keyEnable      = "enable"
	keyQuality     = "quality_mode"
	keyPreExposure = "pre_exposure"
)

// matchKey reports whether key names attribute name, either bare or fully
// qualified with prefix.
func matchKey(key, prefix, name string) bool {
	return key == name || (strings.HasPrefix(key, prefix) && key[len(prefix):] == name)
}

// parseBool accepts 1/0 and true/false in three casings. Anything else
// enables.
func parseBool(v string) bool {
	switch v {
	case "0", "false", "False", "FALSE":
		return false
	default:
		return true
	}
}

// SetAttributes applies enable, quality_mode and pre_exposure. Unrecognized
// keys and unparseable quality or exposure values are ignored.
func (u *Upscaler) SetAttributes(attrs []blueprint.Attribute) {
	prefix := u.kind.AttributePrefix()
	for _, a := range attrs {
		switch {
		case matchKey(a.Key, prefix, keyEnable):
			u.enabled = parseBool(a.Value)

		case matchKey(a.Key, prefix, keyQuality):
			mode, ok := ParseQuality(prefix, a.Value)
			if !ok {
				slogger().Warn("upscaler: ignoring unknown quality mode",
					"kind", u.kind.String(), "value", a.Value, "keep", u.quality.String())
				continue
			}
			u.quality = mode
			if u.display.IsZero() {
				u.render = resource.Extent{}
			} else {
				u.deriveRender()
			}

		case matchKey(a.Key, prefix, keyPreExposure):
			v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 32)
			if err != nil {
				slogger().Warn("upscaler: ignoring invalid pre-exposure",
					"kind", u.kind.String(), "value", a.Value)
				continue
			}
			u.preExposure = float32(v)
		}
	}
}
