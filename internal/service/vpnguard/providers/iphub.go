package providers

import (
	"context"
	"fmt"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// IPHub adapts iphub.info's block-classification endpoint, gated on
// IPHUB_KEY. A block value of 1 or 2 is treated as VPN/proxy; 0 is
// residential.
type IPHub struct {
	Key string
}

func (p *IPHub) Name() string  { return "iphub" }
func (p *IPHub) Enabled() bool { return p.Key != "" }

type iphubResponse struct {
	Block       int    `json:"block"`
	ISP         string `json:"isp"`
	ASN         int    `json:"asn"`
	Hostname    string `json:"hostname"`
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
}

func (p *IPHub) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body iphubResponse
	url := fmt.Sprintf("http://v2.api.iphub.info/ip/%s", ip)
	if err := getJSON(ctx, url, map[string]string{"X-Key": p.Key}, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	return vpn.ProviderResult{
		Provider: p.Name(),
		IsVPN:    body.Block >= 1,
		IsProxy:  body.Block >= 1,
		ISP:      body.ISP,
		ASN:      fmt.Sprintf("AS%d", body.ASN),
		Location: vpn.Location{
			Country: body.CountryName,
		},
		Extra: map[string]interface{}{
			"hostname":    body.Hostname,
			"countryCode": body.CountryCode,
			"block":       body.Block,
		},
	}
}
