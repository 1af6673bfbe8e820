package providers

import (
	"context"
	"fmt"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// VPNAPI adapts vpnapi.io's security-classification endpoint, gated on
// VPNAPI_KEY.
type VPNAPI struct {
	Key string
}

func (p *VPNAPI) Name() string  { return "vpnapi" }
func (p *VPNAPI) Enabled() bool { return p.Key != "" }

type vpnapiResponse struct {
	Security struct {
		VPN   bool `json:"vpn"`
		Proxy bool `json:"proxy"`
		Tor   bool `json:"tor"`
		Relay bool `json:"relay"`
	} `json:"security"`
	Risk struct {
		Score int `json:"score"`
	} `json:"risk"`
	Network  string `json:"network"`
	Location struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
}

func (p *VPNAPI) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body vpnapiResponse
	url := fmt.Sprintf("https://vpnapi.io/api/%s?key=%s", ip, p.Key)
	if err := getJSON(ctx, url, nil, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	score := body.Risk.Score
	return vpn.ProviderResult{
		Provider:   p.Name(),
		IsVPN:      body.Security.VPN,
		IsProxy:    body.Security.Proxy,
		IsTor:      body.Security.Tor,
		IsRelay:    body.Security.Relay,
		FraudScore: &score,
		ASN:        body.Network,
		Location: vpn.Location{
			City:    body.Location.City,
			Region:  body.Location.Region,
			Country: body.Location.Country,
		},
	}
}
