// Package location implements the Location Verifier: scoring a
// LocationSignal plus the VPN aggregate into a status, numeric score,
// and ordered flag list.
package location

import (
	"time"

	"github.com/originwatch/originwatch/internal/config"
	"github.com/originwatch/originwatch/internal/domain/flag"
	locationdomain "github.com/originwatch/originwatch/internal/domain/location"
	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// Status is the verification outcome the Location Verifier assigns.
type Status string

const (
	StatusAuthentic      Status = "authentic"
	StatusSuspicious     Status = "suspicious"
	StatusLikelySpoofed  Status = "likely_spoofed"
	StatusUnableToVerify Status = "unable_to_verify"
)

// staleAfter is the fixed age past which a reported timestamp is
// considered stale, regardless of registry configuration.
const staleAfter = 60_000 * time.Millisecond

// Result is the output of one verification: a status, the clamped
// score, and the ordered flags that produced it.
type Result struct {
	Status Status
	Score  int
	Flags  []flag.Flag
}

// Verifier scores LocationSignal evidence against the thresholds held
// in a Registry. It holds no per-request state and is safe for
// concurrent use.
type Verifier struct {
	registry *config.Registry
}

// NewVerifier builds a Verifier reading its decision boundaries from
// the given Registry.
func NewVerifier(registry *config.Registry) *Verifier {
	return &Verifier{registry: registry}
}

// Verify applies the fixed rule order from the location scoring table
// to sig and the VPN aggregate vpnResult, evaluated as of now.
func (v *Verifier) Verify(sig locationdomain.Signal, vpnResult vpn.AggregateResult, now time.Time) Result {
	if !sig.HasCoordinates() {
		return Result{
			Status: StatusUnableToVerify,
			Score:  0,
			Flags: []flag.Flag{
				flag.New(flag.SeverityFail, "Location data not provided"),
			},
		}
	}

	thresholds := v.registry.Get()
	score := 100
	flags := make([]flag.Flag, 0, 8)

	if sig.IsNullIsland() {
		flags = append(flags, flag.New(flag.SeverityCritical, "Null Island coordinates detected"))
		score -= 50
	}

	if sig.HasIntegerCoordinates() {
		flags = append(flags, flag.New(flag.SeverityWarning, "Coordinates are exact integers"))
		score -= thresholds.Scoring.LocationWarning
	}

	if sig.AccuracyMeters != nil && *sig.AccuracyMeters > thresholds.Location.AccuracyLowMeters {
		flags = append(flags, flag.New(flag.SeverityWarning, "Low location accuracy"))
		score -= 30
	}

	if sig.AgeMS(now) > staleAfter.Milliseconds() {
		flags = append(flags, flag.New(flag.SeverityWarning, "Stale location timestamp"))
		score -= 10
	}

	if sig.ResponseTimeMS > 0 && sig.ResponseTimeMS < int64(thresholds.Location.ResponseTimeSuspiciousMS) {
		flags = append(flags, flag.New(flag.SeverityWarning, "Suspiciously fast geolocation response"))
		score -= thresholds.Scoring.LocationWarning
	}

	if vpnResult.IsVPN {
		flags = append(flags, flag.New(flag.SeverityWarning, "VPN/Proxy detected"))
		score -= 30
	}

	if vpnResult.AnyTor() {
		flags = append(flags, flag.New(flag.SeverityFail, "Tor exit node detected"))
		score -= 20
	}

	if vpnResult.MaxFraudScore() > 90 {
		flags = append(flags, flag.New(flag.SeverityFail, "High fraud score reported"))
		score -= thresholds.Scoring.LocationFail
	}

	score = clamp(score, 0, 100)

	return Result{
		Status: statusFor(score, thresholds.Location),
		Score:  score,
		Flags:  flags,
	}
}

func statusFor(score int, t config.LocationThresholds) Status {
	switch {
	case score < t.ScoreLikelySpoofed:
		return StatusLikelySpoofed
	case score < t.ScoreSuspicious:
		return StatusSuspicious
	default:
		return StatusAuthentic
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
