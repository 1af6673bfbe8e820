// Package fingerprint implements the Fingerprint Builder: a pure,
// deterministic transformation from a scored session.Record into a
// canonical fingerprint.SessionFingerprint.
package fingerprint

import (
	"time"

	"github.com/google/uuid"

	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	"github.com/originwatch/originwatch/internal/domain/flag"
	"github.com/originwatch/originwatch/internal/domain/session"
)

// Builder produces SessionFingerprint values from session records. It
// holds no state; construction is pure except for the ID and Timestamp
// fields, which are assigned fresh per call.
type Builder struct{}

// NewBuilder returns a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders rec into a canonical SessionFingerprint as of now.
// Identical rec values yield identical output except for ID and
// Timestamp.
func (b *Builder) Build(rec session.Record, now time.Time) fingerprintdomain.SessionFingerprint {
	return fingerprintdomain.SessionFingerprint{
		ID:          uuid.NewString(),
		Timestamp:   now,
		Location:    buildLocation(rec),
		Environment: buildEnvironment(rec),
		Network:     buildNetwork(rec),
		Summary:     buildSummary(rec),
	}
}

func buildLocation(rec session.Record) fingerprintdomain.LocationRecord {
	if !rec.LocationAvailable {
		return fingerprintdomain.LocationRecord{}
	}
	return fingerprintdomain.LocationRecord{
		Latitude:       rec.Location.Latitude,
		Longitude:      rec.Location.Longitude,
		AccuracyMeters: rec.Location.AccuracyMeters,
		ResponseTimeMS: rec.Location.ResponseTimeMS,
	}
}

func buildEnvironment(rec session.Record) fingerprintdomain.EnvironmentRecord {
	return fingerprintdomain.EnvironmentRecord{
		Platform:      rec.Environment.Platform,
		Resolution:    rec.Environment.Resolution(),
		ColorDepth:    rec.Environment.ColorDepth,
		WebGLRenderer: rec.Environment.WebGLRenderer,
		Timezone:      rec.Environment.Timezone,
		UserAgent:     rec.Environment.UserAgent,
	}
}

func buildNetwork(rec session.Record) fingerprintdomain.NetworkRecord {
	observed := rec.Network.CandidateIPs
	if rec.Network.ClientIP != "" {
		observed = append([]string{rec.Network.ClientIP}, observed...)
	}
	return fingerprintdomain.NetworkRecord{
		IsVPN:         rec.VPN.IsVPN,
		VPNConfidence: rec.VPN.Confidence,
		ObservedIPs:   observed,
	}
}

func buildSummary(rec session.Record) fingerprintdomain.Summary {
	risk := overallRisk(rec)

	indicators := make([]string, 0, len(rec.LocationFlags)+len(rec.EnvironmentFlags))
	indicators = append(indicators, flag.Messages(rec.LocationFlags)...)
	indicators = append(indicators, flag.Messages(rec.EnvironmentFlags)...)

	return fingerprintdomain.Summary{
		LocationScore:      rec.LocationScore,
		EnvironmentScore:   rec.EnvironmentScore,
		OverallRisk:        risk,
		SpoofingIndicators: indicators,
	}
}

// overallRisk averages the two component scores: avg < 40 → high,
// < 70 → medium, else low. A session with neither score available
// (both zero and location absent) maps to unknown.
func overallRisk(rec session.Record) fingerprintdomain.RiskTier {
	if !rec.LocationAvailable && rec.EnvironmentScore == 0 {
		return fingerprintdomain.RiskUnknown
	}

	avg := float64(rec.LocationScore+rec.EnvironmentScore) / 2

	switch {
	case avg < 40:
		return fingerprintdomain.RiskHigh
	case avg < 70:
		return fingerprintdomain.RiskMedium
	default:
		return fingerprintdomain.RiskLow
	}
}
