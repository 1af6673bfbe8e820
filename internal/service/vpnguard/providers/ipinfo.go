package providers

import (
	"context"
	"fmt"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// IPInfo adapts ipinfo.io's privacy-detection endpoint, gated on
// IPINFO_TOKEN.
type IPInfo struct {
	Token string
}

func (p *IPInfo) Name() string   { return "ipinfo" }
func (p *IPInfo) Enabled() bool  { return p.Token != "" }

type ipinfoResponse struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
	Privacy struct {
		VPN     bool `json:"vpn"`
		Proxy   bool `json:"proxy"`
		Tor     bool `json:"tor"`
		Hosting bool `json:"hosting"`
	} `json:"privacy"`
}

func (p *IPInfo) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body ipinfoResponse
	url := fmt.Sprintf("https://ipinfo.io/%s?token=%s", ip, p.Token)
	if err := getJSON(ctx, url, nil, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	return vpn.ProviderResult{
		Provider:     p.Name(),
		IsVPN:        body.Privacy.VPN,
		IsProxy:      body.Privacy.Proxy,
		IsTor:        body.Privacy.Tor,
		IsHosting:    body.Privacy.Hosting,
		Organization: body.Org,
		Location: vpn.Location{
			City:    body.City,
			Region:  body.Region,
			Country: body.Country,
		},
	}
}
