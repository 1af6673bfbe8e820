// Package vpn holds the value types produced by the VPN/Proxy
// Aggregator: the per-provider result shape every adapter normalizes
// into, and the aggregate consensus verdict built from them.
package vpn

// Location is the coarse provider-reported location triple carried on a
// ProviderResult.
type Location struct {
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}

// ProviderResult is the normalized shape every IP-reputation adapter
// produces, regardless of the wire schema of the backend it queried.
type ProviderResult struct {
	Provider string `json:"provider"`

	IsVPN     bool `json:"isVpn"`
	IsProxy   bool `json:"isProxy"`
	IsTor     bool `json:"isTor"`
	IsHosting bool `json:"isHosting"`
	IsRelay   bool `json:"isRelay"`

	// FraudScore is 0-100 when the provider supplies one.
	FraudScore *int `json:"fraudScore,omitempty"`

	Organization string   `json:"organization,omitempty"`
	ASN          string   `json:"asn,omitempty"`
	ISP          string   `json:"isp,omitempty"`
	Location     Location `json:"location"`

	// Error is non-empty when the call failed (network, timeout,
	// HTTP >= 400, malformed response). A non-empty Error means the
	// boolean/score fields above are zero values and must not be
	// counted by the aggregator.
	Error string `json:"error,omitempty"`

	// Extra carries provider-specific fields that don't map onto the
	// normalized shape, kept for observability.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Failed reports whether the call that produced this result errored.
func (r ProviderResult) Failed() bool {
	return r.Error != ""
}

// AggregateDetails carries the raw tally and the full provider result
// list (successes and failures) for observability.
type AggregateDetails struct {
	TotalChecks   int              `json:"totalChecks"`
	VPNDetections int              `json:"vpnDetections"`
	Services      []ProviderResult `json:"services"`
	Error         string           `json:"error,omitempty"`
}

// AggregateResult is the consensus verdict for one IP address across
// every enabled provider.
type AggregateResult struct {
	IP         string `json:"ip"`
	IsVPN      bool   `json:"isVpn"`
	Confidence int    `json:"confidence"`

	// Flagged is the subset of Details.Services that reported IsVPN,
	// in registry order.
	Flagged []ProviderResult `json:"flagged"`

	Details AggregateDetails `json:"details"`
}

// AnyTor reports whether any successful provider result marked the IP
// as a Tor exit node.
func (r AggregateResult) AnyTor() bool {
	for _, p := range r.Details.Services {
		if !p.Failed() && p.IsTor {
			return true
		}
	}
	return false
}

// MaxFraudScore returns the highest fraud score reported by any
// successful provider, or -1 if none reported one.
func (r AggregateResult) MaxFraudScore() int {
	max := -1
	for _, p := range r.Details.Services {
		if p.Failed() || p.FraudScore == nil {
			continue
		}
		if *p.FraudScore > max {
			max = *p.FraudScore
		}
	}
	return max
}
