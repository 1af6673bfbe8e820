package providers

import (
	"context"
	"fmt"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// IPQualityScore adapts ipqualityscore.com's fraud-and-proxy endpoint,
// gated on IPQUALITYSCORE_KEY.
type IPQualityScore struct {
	Key string
}

func (p *IPQualityScore) Name() string  { return "ipqualityscore" }
func (p *IPQualityScore) Enabled() bool { return p.Key != "" }

type ipqsResponse struct {
	VPN         bool   `json:"vpn"`
	Proxy       bool   `json:"proxy"`
	Tor         bool   `json:"tor"`
	IsCrawler   bool   `json:"is_crawler"`
	FraudScore  int    `json:"fraud_score"`
	ISP         string `json:"ISP"`
	Organization string `json:"organization"`
	ASN         int    `json:"ASN"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
	RecentAbuse bool   `json:"recent_abuse"`
}

func (p *IPQualityScore) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body ipqsResponse
	url := fmt.Sprintf("https://ipqualityscore.com/api/json/ip/%s/%s", p.Key, ip)
	if err := getJSON(ctx, url, nil, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	score := body.FraudScore
	isHosting := body.RecentAbuse || body.IsCrawler
	return vpn.ProviderResult{
		Provider:     p.Name(),
		IsVPN:        body.VPN,
		IsProxy:      body.Proxy,
		IsTor:        body.Tor,
		IsHosting:    isHosting,
		FraudScore:   &score,
		Organization: body.Organization,
		ASN:          fmt.Sprintf("AS%d", body.ASN),
		ISP:          body.ISP,
		Location: vpn.Location{
			City:    body.City,
			Country: body.CountryCode,
		},
	}
}
