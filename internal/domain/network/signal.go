// Package network holds the NetworkSignal value type: the client IP and
// the browser-side network evidence gathered alongside it.
package network

import "net"

// Signal is the raw, client-supplied network evidence for one session.
type Signal struct {
	// ClientIP is the textual IPv4/IPv6 address observed for the
	// session. May be a private-range address.
	ClientIP string `json:"clientIp"`

	// CandidateIPs are additional addresses observed via client-side
	// WebRTC peer-connection candidate gathering.
	CandidateIPs []string `json:"candidateIps,omitempty"`

	// SuspiciousProperties lists browser-property names the collector
	// flagged as present and unusual (e.g. "brave", "webdriver").
	SuspiciousProperties []string `json:"suspiciousProperties,omitempty"`
}

// IsPrivate reports whether ClientIP falls in a reserved, private, or
// loopback range.
func (s Signal) IsPrivate() bool {
	return IsPrivateIP(s.ClientIP)
}

// IsPrivateIP reports whether the textual address ip falls in a
// reserved, private, loopback, link-local, or unspecified range. An
// unparseable address is treated as not private so that callers fail
// open to the provider path, which will itself reject a malformed
// address.
func IsPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsPrivate() ||
		parsed.IsLoopback() ||
		parsed.IsLinkLocalUnicast() ||
		parsed.IsLinkLocalMulticast() ||
		parsed.IsUnspecified()
}
