// Package risk implements the Risk Evaluator's two paths: a
// deterministic lite tally and a generative-model-backed full
// evaluation, both producing the same risk.Evaluation shape.
package risk

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/originwatch/originwatch/internal/config"
	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
	"github.com/originwatch/originwatch/internal/domain/vector"
	"github.com/originwatch/originwatch/internal/infrastructure/telemetry"
)

// fastResponseThresholdMS is the fixed boundary the lite tally applies
// to the fingerprint's recorded response time, independent of the
// registry's location.responseTime.suspicious setting (which governs
// the Location Verifier's own flag, not this bonus).
const fastResponseThresholdMS = 10

// lowColorDepthThreshold mirrors the canonical "true colour" boundary;
// anything below it is a signal of a software-rendered or virtualised
// display.
const lowColorDepthThreshold = 24

var vmGPUKeywords = []string{"vmware", "virtualbox", "microsoft basic", "llvmpipe"}

// Generator produces a one-sentence natural-language summary of a risk
// tally when a generative model is reachable; LiteEvaluator falls back
// to a templated sentence when it returns an error.
type Generator interface {
	Summarize(ctx context.Context, tier riskdomain.Tier, factors []string) (string, error)
}

// LiteEvaluator implements the deterministic, fast risk-scoring path.
type LiteEvaluator struct {
	registry  *config.Registry
	generator Generator

	// tracer is nil unless WithTracer is used.
	tracer telemetry.TracerInterface
}

// NewLiteEvaluator builds a LiteEvaluator. generator may be nil, in
// which case the templated explanation is always used.
func NewLiteEvaluator(registry *config.Registry, generator Generator) *LiteEvaluator {
	return &LiteEvaluator{registry: registry, generator: generator}
}

// WithTracer returns a copy of e that opens a span around evaluation
// and, when a generator is configured, around the generative-model
// summary call it makes.
func (e *LiteEvaluator) WithTracer(tracer telemetry.TracerInterface) *LiteEvaluator {
	clone := *e
	clone.tracer = tracer
	return &clone
}

// startSpan opens a span for operation when a tracer is configured, and
// otherwise returns ctx unchanged with the no-op span already attached
// to it, so callers never need to branch on whether tracing is enabled.
func (e *LiteEvaluator) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if e.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return telemetry.StartServiceSpan(ctx, e.tracer, "risk", operation)
}

// Evaluate tallies fp and neighbours into a risk.Evaluation. Any
// internal error is absorbed: the returned Evaluation carries tier
// UNKNOWN, confidence 0, and processing marker "error" rather than
// propagating to the caller.
func (e *LiteEvaluator) Evaluate(ctx context.Context, fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) (result riskdomain.Evaluation) {
	ctx, span := e.startSpan(ctx, "evaluate_lite")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = riskdomain.Evaluation{
				Tier:       riskdomain.TierUnknown,
				Confidence: 0,
				Processing: riskdomain.ProcessingError,
			}
		}
	}()

	thresholds := e.registry.Get()
	score := 0
	factors := make([]string, 0, 6)

	if fp.Network.IsVPN {
		score += thresholds.PatternAnalysis.VPNDetected
		factors = append(factors, "VPN or proxy detected")
	}

	if fp.Location.AccuracyMeters != nil && *fp.Location.AccuracyMeters > thresholds.Location.AccuracyLowMeters {
		score += thresholds.PatternAnalysis.LowAccuracy
		factors = append(factors, "low location accuracy")
	}

	if fp.Location.ResponseTimeMS > 0 && fp.Location.ResponseTimeMS < fastResponseThresholdMS {
		score += thresholds.PatternAnalysis.FastResponse
		factors = append(factors, "suspiciously fast geolocation response")
	}

	if matchesVMGPU(fp.Environment.WebGLRenderer) {
		score += thresholds.PatternAnalysis.VirtualGPU
		factors = append(factors, "virtual machine GPU signature")
	}

	if fp.Environment.ColorDepth > 0 && fp.Environment.ColorDepth < lowColorDepthThreshold {
		score += thresholds.PatternAnalysis.LowColorDepth
		factors = append(factors, "low colour depth")
	}

	if majorityHighRisk(neighbours) {
		score += thresholds.PatternAnalysis.NeighbourMajorityHigh
		factors = append(factors, "majority of similar sessions flagged high risk")
	}

	tier := tierFor(score)
	confidence := confidenceFor(len(factors))
	explanation := e.explain(ctx, tier, factors)

	result = riskdomain.Evaluation{
		Tier:            tier,
		Confidence:      confidence,
		Explanation:     explanation,
		RiskFactors:     factors,
		Patterns:        patternsFor(fp, neighbours),
		Recommendations: recommendationsFor(tier),
		Processing:      riskdomain.ProcessingFast,
	}
	return result
}

func (e *LiteEvaluator) explain(ctx context.Context, tier riskdomain.Tier, factors []string) string {
	if e.generator != nil {
		ctx, span := e.startSpan(ctx, "generate_summary")
		summary, err := e.generator.Summarize(ctx, tier, factors)
		if err != nil {
			telemetry.WithSpanError(span, err)
		}
		span.End()
		if err == nil && summary != "" {
			return summary
		}
	}
	return templatedExplanation(tier, factors)
}

func tierFor(score int) riskdomain.Tier {
	switch {
	case score >= 60:
		return riskdomain.TierHigh
	case score >= 30:
		return riskdomain.TierMedium
	default:
		return riskdomain.TierLow
	}
}

func confidenceFor(factorCount int) int {
	confidence := 50 + 10*factorCount
	if confidence > 90 {
		return 90
	}
	return confidence
}

func matchesVMGPU(renderer string) bool {
	if renderer == "" {
		return false
	}
	lower := strings.ToLower(renderer)
	for _, kw := range vmGPUKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func majorityHighRisk(neighbours []vector.Neighbour) bool {
	if len(neighbours) == 0 {
		return false
	}
	high := 0
	for _, n := range neighbours {
		if n.Payload.Summary.OverallRisk == fingerprintdomain.RiskHigh {
			high++
		}
	}
	return high*2 > len(neighbours)
}

func templatedExplanation(tier riskdomain.Tier, factors []string) string {
	if len(factors) == 0 {
		return "No spoofing indicators were detected; session evidence is consistent with genuine use."
	}
	return "Risk tier " + string(tier) + " based on: " + strings.Join(factors, "; ") + "."
}

func patternsFor(fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) []string {
	patterns := make([]string, 0, 2)
	if fp.Network.IsVPN && matchesVMGPU(fp.Environment.WebGLRenderer) {
		patterns = append(patterns, "VPN usage combined with a virtualised rendering environment")
	}
	if majorityHighRisk(neighbours) {
		patterns = append(patterns, "clustering with previously flagged high-risk sessions")
	}
	return patterns
}

func recommendationsFor(tier riskdomain.Tier) []string {
	switch tier {
	case riskdomain.TierHigh:
		return []string{"Require additional identity verification before granting access."}
	case riskdomain.TierMedium:
		return []string{"Monitor subsequent sessions from this fingerprint for repeated anomalies."}
	default:
		return nil
	}
}
