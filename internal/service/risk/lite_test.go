package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/originwatch/originwatch/internal/config"
	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
	"github.com/originwatch/originwatch/internal/domain/vector"
)

type stubGenerator struct {
	summary string
	err     error
}

func (g *stubGenerator) Summarize(ctx context.Context, tier riskdomain.Tier, factors []string) (string, error) {
	return g.summary, g.err
}

func cleanFingerprint() fingerprintdomain.SessionFingerprint {
	return fingerprintdomain.SessionFingerprint{
		Location: fingerprintdomain.LocationRecord{
			ResponseTimeMS: 850,
		},
		Environment: fingerprintdomain.EnvironmentRecord{
			ColorDepth:    32,
			WebGLRenderer: "Apple M2",
		},
	}
}

func TestLiteEvaluator_NoFactorsIsLowTier(t *testing.T) {
	evaluator := NewLiteEvaluator(config.NewRegistry(), nil)

	result := evaluator.Evaluate(context.Background(), cleanFingerprint(), nil)

	assert.Equal(t, riskdomain.TierLow, result.Tier)
	assert.Equal(t, 50, result.Confidence)
	assert.Empty(t, result.RiskFactors)
	assert.Equal(t, riskdomain.ProcessingFast, result.Processing)
}

func TestLiteEvaluator_VPNAndVirtualGPUReachesHighTier(t *testing.T) {
	evaluator := NewLiteEvaluator(config.NewRegistry(), nil)
	fp := cleanFingerprint()
	fp.Network.IsVPN = true
	fp.Environment.WebGLRenderer = "VMware SVGA 3D"
	fp.Environment.ColorDepth = 16

	result := evaluator.Evaluate(context.Background(), fp, nil)

	// 30 (vpn) + 25 (virtual gpu) + 15 (low colour depth) = 70
	assert.Equal(t, riskdomain.TierHigh, result.Tier)
	assert.Len(t, result.RiskFactors, 3)
}

func TestLiteEvaluator_LowAccuracyUsesRegistryThreshold(t *testing.T) {
	registry := config.NewRegistry()
	evaluator := NewLiteEvaluator(registry, nil)
	fp := cleanFingerprint()
	accuracy := registry.Get().Location.AccuracyLowMeters + 1
	fp.Location.AccuracyMeters = &accuracy

	result := evaluator.Evaluate(context.Background(), fp, nil)

	assert.Contains(t, result.RiskFactors, "low location accuracy")
}

func TestLiteEvaluator_MajorityHighRiskNeighboursAddsBonus(t *testing.T) {
	evaluator := NewLiteEvaluator(config.NewRegistry(), nil)
	neighbours := []vector.Neighbour{
		{Payload: fingerprintdomain.SessionFingerprint{Summary: fingerprintdomain.Summary{OverallRisk: fingerprintdomain.RiskHigh}}},
		{Payload: fingerprintdomain.SessionFingerprint{Summary: fingerprintdomain.Summary{OverallRisk: fingerprintdomain.RiskHigh}}},
		{Payload: fingerprintdomain.SessionFingerprint{Summary: fingerprintdomain.Summary{OverallRisk: fingerprintdomain.RiskLow}}},
	}

	result := evaluator.Evaluate(context.Background(), cleanFingerprint(), neighbours)

	assert.Contains(t, result.RiskFactors, "majority of similar sessions flagged high risk")
}

func TestLiteEvaluator_ConfidenceCapsAtNinety(t *testing.T) {
	evaluator := NewLiteEvaluator(config.NewRegistry(), nil)
	fp := cleanFingerprint()
	fp.Network.IsVPN = true
	accuracy := 10000.0
	fp.Location.AccuracyMeters = &accuracy
	fp.Location.ResponseTimeMS = 5
	fp.Environment.WebGLRenderer = "VirtualBox Graphics Adapter"
	fp.Environment.ColorDepth = 8
	neighbours := []vector.Neighbour{
		{Payload: fingerprintdomain.SessionFingerprint{Summary: fingerprintdomain.Summary{OverallRisk: fingerprintdomain.RiskHigh}}},
	}

	result := evaluator.Evaluate(context.Background(), fp, neighbours)

	assert.Equal(t, 90, result.Confidence)
}

func TestLiteEvaluator_GeneratorSuccessIsUsedVerbatim(t *testing.T) {
	evaluator := NewLiteEvaluator(config.NewRegistry(), &stubGenerator{summary: "a concise generated summary"})

	result := evaluator.Evaluate(context.Background(), cleanFingerprint(), nil)

	assert.Equal(t, "a concise generated summary", result.Explanation)
}

func TestLiteEvaluator_GeneratorFailureFallsBackToTemplate(t *testing.T) {
	evaluator := NewLiteEvaluator(config.NewRegistry(), &stubGenerator{err: errors.New("model unreachable")})
	fp := cleanFingerprint()
	fp.Network.IsVPN = true

	result := evaluator.Evaluate(context.Background(), fp, nil)

	assert.Contains(t, result.Explanation, "VPN or proxy detected")
}

func TestLiteEvaluator_PanicIsRecoveredAsUnknown(t *testing.T) {
	evaluator := NewLiteEvaluator(nil, nil)

	result := evaluator.Evaluate(context.Background(), cleanFingerprint(), nil)

	require.Equal(t, riskdomain.TierUnknown, result.Tier)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, riskdomain.ProcessingError, result.Processing)
}
