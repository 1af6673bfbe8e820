package providers

import (
	"context"
	"fmt"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// AbstractAPI adapts AbstractAPI's IP-geolocation-with-security
// endpoint, gated on ABSTRACTAPI_KEY.
type AbstractAPI struct {
	Key string
}

func (p *AbstractAPI) Name() string  { return "abstractapi" }
func (p *AbstractAPI) Enabled() bool { return p.Key != "" }

type abstractAPIResponse struct {
	Security struct {
		IsVPN bool `json:"is_vpn"`
	} `json:"security"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Connection struct {
		Organization string `json:"organization_name"`
		ASN          string `json:"autonomous_system_number"`
	} `json:"connection"`
}

func (p *AbstractAPI) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body abstractAPIResponse
	url := fmt.Sprintf("https://ipgeolocation.abstractapi.com/v1/?api_key=%s&ip_address=%s", p.Key, ip)
	if err := getJSON(ctx, url, nil, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	return vpn.ProviderResult{
		Provider:     p.Name(),
		IsVPN:        body.Security.IsVPN,
		Organization: body.Connection.Organization,
		ASN:          body.Connection.ASN,
		Location: vpn.Location{
			City:    body.City,
			Region:  body.Region,
			Country: body.Country,
		},
	}
}
