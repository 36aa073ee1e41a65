package env

import (
	"fmt"
	"strings"
)

// RenderMode selects what Render produces.
type RenderMode string

const (
	// RenderNone disables rendering; Render returns nil.
	RenderNone RenderMode = ""
	// RenderHuman shows each frame on a Display after Reset and Step.
	RenderHuman RenderMode = "human"
	// RenderRGBArray makes Render return an RGB frame.
	RenderRGBArray RenderMode = "rgb_array"
	// RenderANSI writes a styled text board to the configured writer.
	RenderANSI RenderMode = "ansi"
)

// SupportedRenderModes lists the modes accepted by New, excluding RenderNone.
var SupportedRenderModes = []RenderMode{RenderHuman, RenderRGBArray, RenderANSI}

func (m RenderMode) String() string {
	if m == RenderNone {
		return "none"
	}
	return string(m)
}

// IsValid reports whether m is RenderNone or one of SupportedRenderModes.
func (m RenderMode) IsValid() bool {
	if m == RenderNone {
		return true
	}
	for _, s := range SupportedRenderModes {
		if m == s {
			return true
		}
	}
	return false
}

// ParseRenderMode accepts "", "none" and the supported mode names.
func ParseRenderMode(s string) (RenderMode, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "none" {
		return RenderNone, nil
	}
	m := RenderMode(s)
	if !m.IsValid() {
		return RenderNone, fmt.Errorf("%w: unsupported render mode %q", ErrConfiguration, s)
	}
	return m, nil
}
