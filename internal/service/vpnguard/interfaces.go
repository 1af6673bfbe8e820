// Package vpnguard implements the VPN/Proxy Aggregator: concurrent
// fan-out across IP-reputation providers with consensus aggregation.
package vpnguard

import (
	"context"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// ProviderClient is the capability every IP-reputation adapter
// implements. Enabled reports whether the provider's required
// credential is configured; a provider with Enabled() == false is
// never dispatched. Call must itself apply no retry policy — a single
// attempt per invocation, errors surfaced on the returned result.
type ProviderClient interface {
	Name() string
	Enabled() bool
	Call(ctx context.Context, ip string) vpn.ProviderResult
}
