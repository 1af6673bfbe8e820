// Package location holds the LocationSignal value type: the client-
// reported coordinate pair plus the measurement metadata the Location
// Verifier scores.
package location

import "time"

// Signal is the raw, client-supplied location evidence for one session.
// Coordinates are optional as a pair: if Latitude/Longitude are present,
// both must be; if absent, the "location unavailable" verdict path is
// taken instead of evaluating the scoring rules.
type Signal struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// AccuracyMeters is the client-reported accuracy radius. Non-negative
	// when present.
	AccuracyMeters *float64 `json:"accuracyMeters,omitempty"`

	// TimestampMS is the client-reported capture time, epoch
	// milliseconds.
	TimestampMS int64 `json:"timestampMs"`

	// ResponseTimeMS is the measured round-trip time of the geolocation
	// call itself, as observed by the collector. A suspiciously fast
	// response suggests a synthesized (not device-measured) coordinate.
	ResponseTimeMS int64 `json:"responseTimeMs"`
}

// HasCoordinates reports whether both latitude and longitude are
// present. The invariant that they are present or absent together is
// enforced by callers constructing a Signal from an untrusted envelope,
// not by this type.
func (s Signal) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// IsNullIsland reports whether the coordinates are exactly (0, 0), the
// canonical default value a naive or malfunctioning spoofer leaves
// behind.
func (s Signal) IsNullIsland() bool {
	if !s.HasCoordinates() {
		return false
	}
	return *s.Latitude == 0 && *s.Longitude == 0
}

// HasIntegerCoordinates reports whether both coordinates are exact
// integers, a common artifact of hand-entered or randomly generated
// spoofed locations.
func (s Signal) HasIntegerCoordinates() bool {
	if !s.HasCoordinates() {
		return false
	}
	return *s.Latitude == float64(int64(*s.Latitude)) && *s.Longitude == float64(int64(*s.Longitude))
}

// AgeMS returns how stale the reported timestamp is relative to now.
func (s Signal) AgeMS(now time.Time) int64 {
	capturedAt := time.UnixMilli(s.TimestampMS)
	return now.Sub(capturedAt).Milliseconds()
}
