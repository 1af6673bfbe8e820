package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// vpnKeywords is the fixed set of organisation/ASN substrings the
// fallback provider matches against, case-insensitively.
var vpnKeywords = []string{"vpn", "proxy", "hosting", "datacenter", "cloud", "server"}

// Fallback needs no credential and is therefore always enabled; it
// performs only a keyword classification against an organisation/ASN
// lookup, never an actual reputation check.
type Fallback struct{}

func (p *Fallback) Name() string  { return "fallback" }
func (p *Fallback) Enabled() bool { return true }

type fallbackResponse struct {
	Org         string `json:"org"`
	ASN         string `json:"asn"`
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code"`
}

func (p *Fallback) Call(ctx context.Context, ip string) vpn.ProviderResult {
	var body fallbackResponse
	url := fmt.Sprintf("https://ipapi.co/%s/json/", ip)
	if err := getJSON(ctx, url, nil, &body); err != nil {
		return errorResult(p.Name(), err)
	}

	isVPN := matchesKeyword(body.Org) || matchesKeyword(body.ASN)
	country := body.CountryName
	if country == "" {
		country = body.CountryCode
	}

	return vpn.ProviderResult{
		Provider:     p.Name(),
		IsVPN:        isVPN,
		Organization: body.Org,
		ASN:          body.ASN,
		Location: vpn.Location{
			City:    body.City,
			Region:  body.Region,
			Country: country,
		},
	}
}

func matchesKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range vpnKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
