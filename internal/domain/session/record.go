// Package session holds the Record value type: the orchestrator's
// aggregated view of one verification request after the Location
// Verifier, Environment Analyzer, and VPN Aggregator have all run,
// ready to be handed to the Fingerprint Builder.
package session

import (
	"github.com/originwatch/originwatch/internal/domain/environment"
	"github.com/originwatch/originwatch/internal/domain/flag"
	"github.com/originwatch/originwatch/internal/domain/location"
	"github.com/originwatch/originwatch/internal/domain/network"
	"github.com/originwatch/originwatch/internal/domain/verdict"
	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// Record is the scored, pre-fingerprint session state. Every field may
// be a zero value when the corresponding component could not run or
// the client omitted that signal entirely.
type Record struct {
	Location    location.Signal
	Environment environment.Signal
	Network     network.Signal

	LocationScore    int
	EnvironmentScore int
	EnvironmentKind  verdict.EnvironmentKind

	LocationFlags    []flag.Flag
	EnvironmentFlags []flag.Flag

	VPN vpn.AggregateResult

	// LocationAvailable is false when the client omitted coordinates
	// entirely; the fingerprint builder records a null location
	// subset rather than a zero-valued one.
	LocationAvailable bool
}
