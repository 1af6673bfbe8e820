package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrivateIP(t *testing.T) {
	cases := map[string]bool{
		"192.168.1.5": true,
		"10.0.0.1":    true,
		"127.0.0.1":   true,
		"8.8.8.8":     false,
		"203.0.113.5": false,
		"not-an-ip":   false,
		"::1":         true,
	}

	for ip, want := range cases {
		assert.Equal(t, want, IsPrivateIP(ip), ip)
	}
}

func TestSignal_IsPrivate(t *testing.T) {
	assert.True(t, Signal{ClientIP: "192.168.1.5"}.IsPrivate())
	assert.False(t, Signal{ClientIP: "8.8.8.8"}.IsPrivate())
}
