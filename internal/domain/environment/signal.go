// Package environment holds the EnvironmentSignal value type: the
// client-collected rendering/runtime signals the Environment Analyzer
// scores to classify the session's device as local, remote, or virtual.
package environment

import (
	"strconv"
	"strings"
)

// Signal is the raw, client-supplied environment evidence for one
// session. Every field is optional; a missing field degrades the
// corresponding rule gracefully rather than failing the analysis.
type Signal struct {
	ScreenWidth  int    `json:"screenWidth,omitempty"`
	ScreenHeight int    `json:"screenHeight,omitempty"`
	ColorDepth   int    `json:"colorDepth,omitempty"`
	TouchSupport *bool  `json:"touchSupport,omitempty"`
	WebGLRenderer string `json:"webglRenderer,omitempty"`
	Platform      string `json:"platform,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	Language      string `json:"language,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`
}

// HasResolution reports whether both screen dimensions were reported.
func (s Signal) HasResolution() bool {
	return s.ScreenWidth > 0 && s.ScreenHeight > 0
}

// AspectRatio returns width/height, or 0 if the resolution is absent.
func (s Signal) AspectRatio() float64 {
	if !s.HasResolution() {
		return 0
	}
	return float64(s.ScreenWidth) / float64(s.ScreenHeight)
}

// Resolution renders the canonical "WxH" form used to check membership
// in the common-resolution set.
func (s Signal) Resolution() string {
	if !s.HasResolution() {
		return ""
	}
	return strconv.Itoa(s.ScreenWidth) + "x" + strconv.Itoa(s.ScreenHeight)
}

// IsAndroid reports whether the platform string indicates an Android
// device.
func (s Signal) IsAndroid() bool {
	return strings.Contains(strings.ToLower(s.Platform), "android")
}
