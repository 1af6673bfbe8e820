// Package orchestrator implements the Session Orchestrator: the single
// entry point that runs every other component in sequence for one
// verification request and composes their output into a Verdict.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/originwatch/originwatch/internal/domain/environment"
	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	fingerprintdomain "github.com/originwatch/originwatch/internal/domain/fingerprint"
	"github.com/originwatch/originwatch/internal/domain/location"
	"github.com/originwatch/originwatch/internal/domain/network"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
	"github.com/originwatch/originwatch/internal/domain/session"
	"github.com/originwatch/originwatch/internal/domain/vector"
	"github.com/originwatch/originwatch/internal/domain/verdict"
	"github.com/originwatch/originwatch/internal/infrastructure/telemetry"
	"github.com/originwatch/originwatch/internal/metrics"
	environmentsvc "github.com/originwatch/originwatch/internal/service/environment"
	fingerprintsvc "github.com/originwatch/originwatch/internal/service/fingerprint"
	locationsvc "github.com/originwatch/originwatch/internal/service/location"
	"github.com/originwatch/originwatch/internal/service/vectorstore"
	"github.com/originwatch/originwatch/internal/service/vpnguard"
)

// neighbourCount is the fixed K used for the similarity search that
// feeds the risk evaluator's neighbour-clustering bonus.
const neighbourCount = 5

// Request is one verification envelope submitted by a caller.
type Request struct {
	Location    location.Signal
	Environment environment.Signal
	Network     network.Signal

	// FullRiskEvaluation selects the generative risk-assessment path
	// over the default deterministic lite tally.
	FullRiskEvaluation bool
}

// Embedder is the capability the orchestrator needs from the Embedding
// Client: turning a fingerprint's text projection into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RiskEvaluator is the capability both the lite and full Risk Evaluator
// paths satisfy.
type RiskEvaluator interface {
	Evaluate(ctx context.Context, fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) riskdomain.Evaluation
}

// Orchestrator wires every component into the single verification
// sequence described by the Session Orchestrator. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	logger *zap.Logger

	verifier      *locationsvc.Verifier
	analyzer      *environmentsvc.Analyzer
	vpnAggregator *vpnguard.Aggregator
	builder       *fingerprintsvc.Builder

	embedder Embedder
	store    vectorstore.Store

	liteEvaluator RiskEvaluator
	fullEvaluator RiskEvaluator

	// metrics is nil unless WithMetrics is used; every recording call
	// below guards against that so metrics remain entirely optional.
	metrics *metrics.Registry

	// tracer is nil unless WithTracer is used.
	tracer telemetry.TracerInterface
}

// New builds an Orchestrator. embedder and store may be nil, in which
// case the similarity-search step is skipped entirely and recorded as
// a diagnostic; fullEvaluator may be nil, in which case a full risk
// evaluation request falls back to the lite evaluator.
func New(
	logger *zap.Logger,
	verifier *locationsvc.Verifier,
	analyzer *environmentsvc.Analyzer,
	vpnAggregator *vpnguard.Aggregator,
	builder *fingerprintsvc.Builder,
	embedder Embedder,
	store vectorstore.Store,
	liteEvaluator RiskEvaluator,
	fullEvaluator RiskEvaluator,
) *Orchestrator {
	return &Orchestrator{
		logger:        logger,
		verifier:      verifier,
		analyzer:      analyzer,
		vpnAggregator: vpnAggregator,
		builder:       builder,
		embedder:      embedder,
		store:         store,
		liteEvaluator: liteEvaluator,
		fullEvaluator: fullEvaluator,
	}
}

// WithMetrics returns a copy of o that records verification duration
// and outcome against reg.
func (o *Orchestrator) WithMetrics(reg *metrics.Registry) *Orchestrator {
	clone := *o
	clone.metrics = reg
	return &clone
}

// WithTracer returns a copy of o that opens a span around verification
// and each of its constituent stages.
func (o *Orchestrator) WithTracer(tracer telemetry.TracerInterface) *Orchestrator {
	clone := *o
	clone.tracer = tracer
	return &clone
}

// startSpan opens a span for operation when a tracer is configured, and
// otherwise returns ctx unchanged with the no-op span already attached
// to it, so callers never need to branch on whether tracing is enabled.
func (o *Orchestrator) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return telemetry.StartServiceSpan(ctx, o.tracer, "orchestrator", operation)
}

// Verify runs the full verification sequence for req and returns the
// composed Verdict. The only error Verify returns is InputInvalid;
// every later-stage failure is absorbed and recorded on the returned
// Verdict's Diagnostics instead.
func (o *Orchestrator) Verify(ctx context.Context, req Request) (verdict.Verdict, error) {
	start := time.Now()

	ctx, span := o.startSpan(ctx, "verify")
	defer span.End()

	if err := validate(req); err != nil {
		telemetry.WithSpanError(span, err)
		return verdict.Verdict{}, err
	}

	rec, status, diagnostics := o.scoreSession(ctx, req)

	fp := o.builder.Build(rec, time.Now())

	neighbours, embedDiagnostics := o.findNeighbours(ctx, fp)
	diagnostics = append(diagnostics, embedDiagnostics...)

	evaluation := o.evaluateRisk(ctx, req.FullRiskEvaluation, fp, neighbours)

	if o.metrics != nil {
		o.metrics.RecordVerification(ctx, float64(time.Since(start).Milliseconds()), string(status))
	}

	return verdict.Verdict{
		Status:           status,
		LocationScore:    rec.LocationScore,
		EnvironmentScore: rec.EnvironmentScore,
		EnvironmentKind:  rec.EnvironmentKind,
		LocationFlags:    rec.LocationFlags,
		EnvironmentFlags: rec.EnvironmentFlags,
		VPN:              rec.VPN,
		Fingerprint:      fp,
		Risk:             evaluation,
		Diagnostics:      diagnostics,
	}, nil
}

// scoreSession runs the Environment Analyzer and the VPN Aggregator +
// Location Verifier chain concurrently, recovering from any panic in
// either path and falling back to an "unable to verify" partial
// record rather than letting it escape to the caller. The returned
// status is the Location Verifier's own status, untouched: it is the
// sole source of the verdict's overall authenticity determination.
func (o *Orchestrator) scoreSession(ctx context.Context, req Request) (session.Record, verdict.Status, []string) {
	rec := session.Record{
		Location:          req.Location,
		Environment:       req.Environment,
		Network:           req.Network,
		LocationAvailable: req.Location.HasCoordinates(),
	}
	status := verdict.StatusUnableToVerify
	var diagnostics []string

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer o.recoverInto(&mu, &diagnostics, "environment analysis")
		_, span := o.startSpan(ctx, "environment_analysis")
		defer span.End()
		envResult := o.analyzer.Analyze(req.Environment)
		mu.Lock()
		rec.EnvironmentScore = envResult.Score
		rec.EnvironmentKind = envResult.Kind
		rec.EnvironmentFlags = envResult.Flags
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer o.recoverInto(&mu, &diagnostics, "location and VPN verification")
		spanCtx, span := o.startSpan(ctx, "location_and_vpn_verification")
		defer span.End()
		vpnResult := o.vpnAggregator.Detect(spanCtx, req.Network.ClientIP)
		locationResult := o.verifier.Verify(req.Location, vpnResult, time.Now())
		mu.Lock()
		rec.VPN = vpnResult
		rec.LocationScore = locationResult.Score
		rec.LocationFlags = locationResult.Flags
		status = verdict.Status(locationResult.Status)
		mu.Unlock()
	}()

	wg.Wait()
	return rec, status, diagnostics
}

// recoverInto converts a panic in one of the two concurrent scoring
// branches into a diagnostic entry instead of crashing the request.
func (o *Orchestrator) recoverInto(mu *sync.Mutex, diagnostics *[]string, stage string) {
	if r := recover(); r != nil {
		o.logger.Error("verification stage panicked",
			zap.String("stage", stage),
			zap.Any("recovered", r),
		)
		mu.Lock()
		*diagnostics = append(*diagnostics, stage+" failed unexpectedly")
		mu.Unlock()
	}
}

// findNeighbours embeds fp's canonical projection and searches the
// vector store for its nearest neighbours. Any failure at any step is
// absorbed into a diagnostic. Once an embedding exists the fingerprint
// is upserted on a best-effort basis, even when the search failed; a
// collection-setup or embedding failure returns before any upsert.
func (o *Orchestrator) findNeighbours(ctx context.Context, fp fingerprintdomain.SessionFingerprint) ([]vector.Neighbour, []string) {
	ctx, span := o.startSpan(ctx, "find_neighbours")
	defer span.End()

	if o.embedder == nil || o.store == nil {
		return nil, []string{"vector similarity search skipped: no embedding/vector store configured"}
	}

	var diagnostics []string

	if err := o.store.EnsureCollection(ctx); err != nil {
		o.logger.Warn("vector store collection setup failed", zap.Error(err))
		diagnostics = append(diagnostics, "vector store unavailable")
		return nil, diagnostics
	}

	text := fingerprintsvc.Project(fp)
	embedStart := time.Now()
	vec, err := o.embedder.Embed(ctx, text)
	if o.metrics != nil {
		o.metrics.RecordEmbedding(ctx, float64(time.Since(embedStart).Milliseconds()), err != nil)
	}
	if err != nil {
		telemetry.WithSpanError(span, err)
		o.logger.Warn("embedding failed", zap.Error(err))
		diagnostics = append(diagnostics, "embedding unavailable")
		return nil, diagnostics
	}

	searchStart := time.Now()
	neighbours, err := o.store.Search(ctx, vec, neighbourCount)
	if err != nil {
		telemetry.WithSpanError(span, err)
		o.logger.Warn("vector similarity search failed", zap.Error(err))
		diagnostics = append(diagnostics, "similarity search unavailable")
		neighbours = nil
	}
	if o.metrics != nil {
		o.metrics.RecordVectorSearch(ctx, float64(time.Since(searchStart).Milliseconds()), len(neighbours))
	}

	if err := o.store.Upsert(ctx, fp.ID, vec, fp); err != nil {
		o.logger.Warn("vector store upsert failed", zap.Error(err))
		diagnostics = append(diagnostics, "fingerprint was not persisted to the vector store")
	}

	return neighbours, diagnostics
}

// evaluateRisk selects the full generative path when requested and
// available, otherwise the deterministic lite path.
func (o *Orchestrator) evaluateRisk(ctx context.Context, full bool, fp fingerprintdomain.SessionFingerprint, neighbours []vector.Neighbour) riskdomain.Evaluation {
	start := time.Now()

	ctx, span := o.startSpan(ctx, "evaluate_risk")
	defer span.End()

	var evaluation riskdomain.Evaluation
	if full && o.fullEvaluator != nil {
		evaluation = o.fullEvaluator.Evaluate(ctx, fp, neighbours)
	} else {
		evaluation = o.liteEvaluator.Evaluate(ctx, fp, neighbours)
	}

	if o.metrics != nil {
		o.metrics.RecordRiskEvaluation(ctx, float64(time.Since(start).Milliseconds()), string(evaluation.Tier), string(evaluation.Processing))
	}
	return evaluation
}

// validate rejects a request whose envelope is structurally unusable,
// the only failure mode that aborts verification before it starts.
func validate(req Request) error {
	if strings.TrimSpace(req.Network.ClientIP) == "" {
		return apperrors.NewInputInvalid("CLIENT_IP_REQUIRED", "network.clientIp is required")
	}
	if (req.Location.Latitude == nil) != (req.Location.Longitude == nil) {
		return apperrors.NewInputInvalid("INCOMPLETE_COORDINATES", "location.latitude and location.longitude must be present together")
	}
	return nil
}
