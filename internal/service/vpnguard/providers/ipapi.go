package providers

import (
	"context"
	"fmt"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// IPAPI adapts ip-api.com's pro proxy/hosting endpoint, gated on
// IPAPI_KEY.
type IPAPI struct {
	Key string
}

func (p *IPAPI) Name() string  { return "ipapi" }
func (p *IPAPI) Enabled() bool { return p.Key != "" }

type ipapiResponse struct {
	Proxy   bool   `json:"proxy"`
	Hosting bool   `json:"hosting"`
	ISP     string `json:"isp"`
	AS      string `json:"as"`
	City    string `json:"city"`
	Region  string `json:"regionName"`
	Country string `json:"country"`
}

func (p *IPAPI) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body ipapiResponse
	url := fmt.Sprintf("https://pro.ip-api.com/json/%s?key=%s&fields=proxy,hosting,isp,as,city,regionName,country", ip, p.Key)
	if err := getJSON(ctx, url, nil, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	return vpn.ProviderResult{
		Provider:  p.Name(),
		IsVPN:     body.Proxy,
		IsProxy:   body.Proxy,
		IsHosting: body.Hosting,
		ISP:       body.ISP,
		ASN:       body.AS,
		Location: vpn.Location{
			City:    body.City,
			Region:  body.Region,
			Country: body.Country,
		},
	}
}
