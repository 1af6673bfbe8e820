package vpnguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/originwatch/originwatch/internal/config"
	"github.com/originwatch/originwatch/internal/domain/vpn"
)

// stubProvider is a deterministic ProviderClient test double; it
// optionally blocks past the aggregator's deadline to exercise the
// timeout path.
type stubProvider struct {
	name    string
	enabled bool
	result  vpn.ProviderResult
	block   time.Duration
	err     error
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Enabled() bool { return s.enabled }

func (s *stubProvider) Call(ctx context.Context, ip string) vpn.ProviderResult {
	if s.block > 0 {
		select {
		case <-time.After(s.block):
		case <-ctx.Done():
			return vpn.ProviderResult{Provider: s.name, Error: "timeout"}
		}
	}
	if s.err != nil {
		return vpn.ProviderResult{Provider: s.name, Error: s.err.Error()}
	}
	r := s.result
	r.Provider = s.name
	return r
}

func newTestRegistry() *config.Registry {
	return config.NewRegistry()
}

func TestAggregator_PrivateIPShortCircuit(t *testing.T) {
	called := false
	p := &stubProvider{name: "p1", enabled: true}
	p.result = vpn.ProviderResult{IsVPN: true}
	agg := NewAggregator(zaptest.NewLogger(t), newTestRegistry(), []ProviderClient{
		&countingProvider{stubProvider: p, calledFlag: &called},
	})

	result := agg.Detect(context.Background(), "192.168.1.5")

	require.False(t, called, "no provider should be invoked for a private IP")
	assert.False(t, result.IsVPN)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, "Private IP", result.Details.Error)
}

// countingProvider wraps a stubProvider to record whether Call fired.
type countingProvider struct {
	*stubProvider
	calledFlag *bool
}

func (c *countingProvider) Call(ctx context.Context, ip string) vpn.ProviderResult {
	*c.calledFlag = true
	return c.stubProvider.Call(ctx, ip)
}

func TestAggregator_ConsensusConfidence(t *testing.T) {
	providers := []ProviderClient{
		&stubProvider{name: "a", enabled: true, result: vpn.ProviderResult{IsVPN: true}},
		&stubProvider{name: "b", enabled: true, result: vpn.ProviderResult{IsVPN: true}},
		&stubProvider{name: "c", enabled: true, result: vpn.ProviderResult{IsVPN: true}},
		&stubProvider{name: "d", enabled: true, err: errors.New("boom")},
	}
	agg := NewAggregator(zaptest.NewLogger(t), newTestRegistry(), providers)

	result := agg.Detect(context.Background(), "8.8.8.8")

	assert.True(t, result.IsVPN)
	assert.Equal(t, 100, result.Confidence, "errored provider must be excluded from the denominator")
	assert.Equal(t, 4, result.Details.TotalChecks)
	assert.Equal(t, 3, result.Details.VPNDetections)
	assert.Len(t, result.Flagged, 3)
}

func TestAggregator_AllProvidersTimeout(t *testing.T) {
	providers := []ProviderClient{
		&stubProvider{name: "a", enabled: true, block: 10 * time.Second},
		&stubProvider{name: "b", enabled: true, block: 10 * time.Second},
	}
	agg := NewAggregator(zaptest.NewLogger(t), newTestRegistry(), providers)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := agg.Detect(ctx, "8.8.8.8")

	assert.False(t, result.IsVPN)
	assert.Equal(t, 0, result.Confidence)
	for _, svc := range result.Details.Services {
		assert.NotEmpty(t, svc.Error)
	}
}

func TestAggregator_DisabledProvidersSkipped(t *testing.T) {
	providers := []ProviderClient{
		&stubProvider{name: "a", enabled: false, result: vpn.ProviderResult{IsVPN: true}},
		&stubProvider{name: "b", enabled: true, result: vpn.ProviderResult{IsVPN: false}},
	}
	agg := NewAggregator(zaptest.NewLogger(t), newTestRegistry(), providers)

	result := agg.Detect(context.Background(), "8.8.8.8")

	assert.Equal(t, 1, result.Details.TotalChecks)
	assert.Equal(t, "b", result.Details.Services[0].Provider)
}
