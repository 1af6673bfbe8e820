package providers

import "github.com/originwatch/originwatch/internal/service/vpnguard"

// Credentials holds the outbound credential surface for every built-in
// adapter. An empty field disables only that adapter; Fallback needs
// none and is always enabled.
type Credentials struct {
	IPInfoToken        string
	VPNAPIKey          string
	IPQualityScoreKey  string
	IPHubKey           string
	AbstractAPIKey     string
	IPAPIKey           string
}

// Default builds the full built-in provider set in a fixed order —
// credentialed adapters first, the fallback last — matching the
// registry order the aggregator preserves in its output.
func Default(creds Credentials) []vpnguard.ProviderClient {
	return []vpnguard.ProviderClient{
		&IPInfo{Token: creds.IPInfoToken},
		&VPNAPI{Key: creds.VPNAPIKey},
		&IPQualityScore{Key: creds.IPQualityScoreKey},
		&IPHub{Key: creds.IPHubKey},
		&AbstractAPI{Key: creds.AbstractAPIKey},
		&IPAPI{Key: creds.IPAPIKey},
		&Fallback{},
	}
}
