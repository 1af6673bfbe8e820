package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/originwatch/originwatch/internal/config"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
)

func TestFullEvaluator_NilGenerativeClientDelegatesToLite(t *testing.T) {
	lite := NewLiteEvaluator(config.NewRegistry(), nil)
	evaluator := NewFullEvaluator(nil, lite)

	result := evaluator.Evaluate(context.Background(), cleanFingerprint(), nil)

	assert.Equal(t, riskdomain.ProcessingFast, result.Processing)
}

func TestTierFromAssessment(t *testing.T) {
	assert.Equal(t, riskdomain.TierHigh, tierFromAssessment("HIGH"))
	assert.Equal(t, riskdomain.TierMedium, tierFromAssessment("medium"))
	assert.Equal(t, riskdomain.TierLow, tierFromAssessment(" Low "))
	assert.Equal(t, riskdomain.TierUnknown, tierFromAssessment("maybe"))
	assert.Equal(t, riskdomain.TierUnknown, tierFromAssessment(""))
}

func TestExtractJSON_StripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"riskAssessment\":\"HIGH\"}\n```"
	assert.Equal(t, `{"riskAssessment":"HIGH"}`, extractJSON(raw))
}

func TestExtractJSON_PassesThroughPlainJSON(t *testing.T) {
	raw := `{"riskAssessment":"LOW"}`
	assert.Equal(t, raw, extractJSON(raw))
}

func TestBuildPrompt_IncludesFingerprintAndNeighbours(t *testing.T) {
	prompt := buildPrompt(cleanFingerprint(), nil)

	assert.Contains(t, prompt, "riskAssessment")
	assert.Contains(t, prompt, "fingerprint:")
}
