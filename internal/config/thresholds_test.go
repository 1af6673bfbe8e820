package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultsSeeded(t *testing.T) {
	r := NewRegistry()
	snap := r.Get()
	assert.Equal(t, 10, snap.Location.ResponseTimeSuspiciousMS)
	assert.Equal(t, 50, snap.VPN.ConfidenceDetected)
	assert.Equal(t, 30, snap.PatternAnalysis.VPNDetected)
}

func TestRegistry_LoadJSONOverridesAndFallsBack(t *testing.T) {
	r := NewRegistry()
	err := r.LoadJSON([]byte(`{"vpn":{"confidenceDetected":75},"unknownGroup":{"ignored":true}}`))
	require.NoError(t, err)

	snap := r.Get()
	assert.Equal(t, 75, snap.VPN.ConfidenceDetected, "explicit override applies")
	assert.Equal(t, 60, snap.Location.ScoreLikelySpoofed, "missing keys fall back to defaults")
}

func TestRegistry_ReplaceIsAtomicUnderConcurrentReaders(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					snap := r.Get()
					// A torn read would show it mismatched against its own
					// recorded default pairing; both legal snapshots are
					// internally consistent.
					assert.Contains(t, []int{50, 90}, snap.VPN.ConfidenceDetected)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		alt := Defaults()
		alt.VPN.ConfidenceDetected = 90
		r.Replace(alt)
		r.Replace(func() Snapshot { d := Defaults(); return d }())
	}

	close(stop)
	wg.Wait()
}
