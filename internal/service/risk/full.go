package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
	"github.com/originwatch/originwatch/internal/domain/vector"
	"github.com/originwatch/originwatch/internal/infrastructure/telemetry"
)

// maxNeighboursInPrompt bounds how many neighbours are submitted to the
// generative model in one prompt.
const maxNeighboursInPrompt = 5

// generativeResponse is the JSON object the full path's prompt asks the
// model to return.
type generativeResponse struct {
	RiskAssessment       string   `json:"riskAssessment"`
	Confidence           int      `json:"confidence"`
	Explanation          string   `json:"explanation"`
	Patterns             []string `json:"patterns"`
	TechnicalIndicators  []string `json:"technicalIndicators"`
	SpoofingTechniques   []string `json:"spoofingTechniques"`
	Recommendations      []string `json:"recommendations"`
	SimilarityInsights   string   `json:"similarityInsights"`
}

// FullEvaluator implements the generative risk-scoring path, falling
// back to the lite path's tally whenever the model is unreachable or
// misbehaving.
type FullEvaluator struct {
	generative *GenerativeClient
	lite       *LiteEvaluator

	// tracer is nil unless WithTracer is used.
	tracer telemetry.TracerInterface
}

// NewFullEvaluator builds a FullEvaluator. generative may be nil, in
// which case Evaluate always delegates to lite.
func NewFullEvaluator(generative *GenerativeClient, lite *LiteEvaluator) *FullEvaluator {
	return &FullEvaluator{generative: generative, lite: lite}
}

// WithTracer returns a copy of e that opens a span around the
// generative model call at the heart of the full evaluation path.
func (e *FullEvaluator) WithTracer(tracer telemetry.TracerInterface) *FullEvaluator {
	clone := *e
	clone.tracer = tracer
	return &clone
}

// Evaluate submits fp and up to five neighbours to the generative model
// in a single prompt. A response that isn't parseable JSON falls back
// to {tier: MEDIUM, confidence: 70, explanation: raw text}; a failed
// call falls back to the lite path entirely.
func (e *FullEvaluator) Evaluate(ctx context.Context, fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) riskdomain.Evaluation {
	if e.generative == nil {
		return e.lite.Evaluate(ctx, fp, neighbours)
	}

	if len(neighbours) > maxNeighboursInPrompt {
		neighbours = neighbours[:maxNeighboursInPrompt]
	}

	genCtx, span := e.startSpan(ctx, "generate_assessment")
	raw, err := e.generative.Generate(genCtx, buildPrompt(fp, neighbours))
	if err != nil {
		telemetry.WithSpanError(span, err)
		span.End()
		return e.lite.Evaluate(ctx, fp, neighbours)
	}
	span.End()

	var parsed generativeResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		_, parseSpan := e.startSpan(ctx, "parse_assessment")
		telemetry.WithSpanError(parseSpan, apperrors.NewInternalInvariantViolation(
			"generative_response_shape", "generative model response was not the expected JSON object",
		))
		parseSpan.End()
		return riskdomain.Evaluation{
			Tier:        riskdomain.TierMedium,
			Confidence:  70,
			Explanation: raw,
			Processing:  riskdomain.ProcessingFallback,
		}
	}

	return riskdomain.Evaluation{
		Tier:                tierFromAssessment(parsed.RiskAssessment),
		Confidence:          parsed.Confidence,
		Explanation:         parsed.Explanation,
		RiskFactors:         append(parsed.TechnicalIndicators, parsed.SpoofingTechniques...),
		Patterns:            parsed.Patterns,
		Recommendations:     parsed.Recommendations,
		SimilarityInsights:  parsed.SimilarityInsights,
		Processing:          riskdomain.ProcessingFull,
	}
}

// startSpan opens a span for operation when a tracer is configured, and
// otherwise returns ctx unchanged with the no-op span already attached
// to it, so callers never need to branch on whether tracing is enabled.
func (e *FullEvaluator) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if e.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return telemetry.StartServiceSpan(ctx, e.tracer, "risk", operation)
}

func tierFromAssessment(raw string) riskdomain.Tier {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HIGH":
		return riskdomain.TierHigh
	case "MEDIUM":
		return riskdomain.TierMedium
	case "LOW":
		return riskdomain.TierLow
	default:
		return riskdomain.TierUnknown
	}
}

func buildPrompt(fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) string {
	var b strings.Builder
	b.WriteString("Assess fraud/spoofing risk for this session fingerprint and its nearest neighbours. ")
	b.WriteString("Respond with a single JSON object with fields: riskAssessment (LOW|MEDIUM|HIGH), confidence (0-100), ")
	b.WriteString("explanation, patterns, technicalIndicators, spoofingTechniques, recommendations, similarityInsights.\n\n")
	fpJSON, _ := json.Marshal(fp)
	fmt.Fprintf(&b, "fingerprint: %s\n", fpJSON)
	for i, n := range neighbours {
		neighbourJSON, _ := json.Marshal(n.Payload)
		fmt.Fprintf(&b, "neighbour[%d] score=%.3f: %s\n", i, n.Score, neighbourJSON)
	}
	return b.String()
}

// extractJSON strips a markdown code fence if the model wrapped its
// JSON response in one.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}
