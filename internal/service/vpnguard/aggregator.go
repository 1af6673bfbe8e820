package vpnguard

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"go.opentelemetry.io/otel/trace"

	"github.com/originwatch/originwatch/internal/config"
	"github.com/originwatch/originwatch/internal/domain/network"
	"github.com/originwatch/originwatch/internal/domain/vpn"
	"github.com/originwatch/originwatch/internal/infrastructure/cache"
	"github.com/originwatch/originwatch/internal/infrastructure/telemetry"
	"github.com/originwatch/originwatch/internal/metrics"
)

// ProviderDeadline bounds a single provider call. A provider that
// exceeds it is recorded as an errored result; it never blocks
// aggregation of the others.
const ProviderDeadline = 5 * time.Second

// Aggregator fans a detect(ip) call out to every enabled provider
// concurrently and reduces the individual results to one consensus
// verdict. It holds no per-request state and is safe for concurrent
// use by multiple callers.
type Aggregator struct {
	logger    *zap.Logger
	registry  *config.Registry
	providers []ProviderClient

	// cache is consulted before dispatch and populated after; nil
	// disables caching entirely and every call reaches the providers.
	cache cache.Cache

	// metrics is nil unless WithMetrics is used.
	metrics *metrics.Registry

	// tracer is nil unless WithTracer is used.
	tracer telemetry.TracerInterface
}

// NewAggregator builds an Aggregator over the given provider registry,
// preserving the order providers are passed in — the order surfaced in
// AggregateDetails.Services for testability, per the ordering
// guarantees every caller depends on.
func NewAggregator(logger *zap.Logger, registry *config.Registry, providers []ProviderClient) *Aggregator {
	return &Aggregator{
		logger:    logger,
		registry:  registry,
		providers: providers,
	}
}

// WithCache returns a copy of a that consults resultCache for a
// previously computed consensus verdict before dispatching to any
// provider, and populates it afterward. A flapping upstream provider
// then costs one round of calls per TTL window rather than one per
// request.
func (a *Aggregator) WithCache(resultCache cache.Cache) *Aggregator {
	clone := *a
	clone.cache = resultCache
	return &clone
}

// WithMetrics returns a copy of a that records per-provider call
// duration/errors and the aggregate detection outcome against reg.
func (a *Aggregator) WithMetrics(reg *metrics.Registry) *Aggregator {
	clone := *a
	clone.metrics = reg
	return &clone
}

// WithTracer returns a copy of a that opens a span around each provider
// dispatch, per the provider-dispatch boundary StartServiceSpan names.
func (a *Aggregator) WithTracer(tracer telemetry.TracerInterface) *Aggregator {
	clone := *a
	clone.tracer = tracer
	return &clone
}

// startSpan opens a span for operation when a tracer is configured, and
// otherwise returns ctx unchanged with the no-op span already attached
// to it, so callers never need to branch on whether tracing is enabled.
func (a *Aggregator) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if a.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return telemetry.StartServiceSpan(ctx, a.tracer, "vpnguard", operation)
}

// Detect runs the full aggregation pipeline for one IP: the private-range
// short-circuit, a cache lookup, concurrent provider dispatch, and
// consensus reduction.
func (a *Aggregator) Detect(ctx context.Context, ip string) vpn.AggregateResult {
	ctx, span := a.startSpan(ctx, "detect")
	defer span.End()

	if network.IsPrivateIP(ip) {
		return vpn.AggregateResult{
			IP:         ip,
			IsVPN:      false,
			Confidence: 0,
			Details: vpn.AggregateDetails{
				Error: "Private IP",
			},
		}
	}

	if a.cache != nil {
		var cached vpn.AggregateResult
		if err := a.cache.GetJSON(ctx, cache.VPNResultPrefix+ip, &cached); err == nil {
			return cached
		}
	}

	enabled := make([]ProviderClient, 0, len(a.providers))
	for _, p := range a.providers {
		if p.Enabled() {
			enabled = append(enabled, p)
		}
	}

	results := a.dispatch(ctx, ip, enabled)
	result := a.aggregate(ip, results)

	if a.metrics != nil {
		a.metrics.RecordVPNDetection(ctx, result.IsVPN)
	}

	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, cache.VPNResultPrefix+ip, result, cache.VPNResultTTL); err != nil {
			a.logger.Warn("vpn result cache write failed", zap.String("ip", ip), zap.Error(err))
		}
	}

	return result
}

// dispatch invokes every enabled provider concurrently, each bounded by
// ProviderDeadline, preserving the provider-registry order in the
// returned slice regardless of response arrival order.
func (a *Aggregator) dispatch(ctx context.Context, ip string, providers []ProviderClient) []vpn.ProviderResult {
	results := make([]vpn.ProviderResult, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(idx int, provider ProviderClient) {
			defer wg.Done()
			callCtx, span := a.startSpan(ctx, provider.Name())
			defer span.End()
			callCtx, cancel := context.WithTimeout(callCtx, ProviderDeadline)
			defer cancel()
			start := time.Now()
			result := a.callWithRecover(callCtx, provider, ip)
			if result.Failed() {
				telemetry.WithSpanError(span, fmt.Errorf("%s", result.Error))
			}
			if a.metrics != nil {
				a.metrics.RecordVPNProviderCall(ctx, provider.Name(), float64(time.Since(start).Milliseconds()), result.Failed())
			}
			results[idx] = result
		}(i, p)
	}
	wg.Wait()

	return results
}

// callWithRecover invokes a provider adapter, converting a timeout or
// a panicking adapter into an errored ProviderResult rather than
// letting either abort the other providers in flight.
func (a *Aggregator) callWithRecover(ctx context.Context, provider ProviderClient, ip string) (result vpn.ProviderResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("vpn provider adapter panicked",
				zap.String("provider", provider.Name()),
				zap.Any("recovered", r),
			)
			result = vpn.ProviderResult{Provider: provider.Name(), Error: "provider adapter panic"}
		}
	}()

	done := make(chan vpn.ProviderResult, 1)
	go func() {
		done <- provider.Call(ctx, ip)
	}()

	select {
	case result = <-done:
		return result
	case <-ctx.Done():
		return vpn.ProviderResult{Provider: provider.Name(), Error: "timeout"}
	}
}

// aggregate reduces the per-provider results to one consensus verdict
// per the confidence formula: round(100*|D|/|S|) over the providers
// that returned without error, threshold-compared against the
// registry's vpn.confidence.detected value.
func (a *Aggregator) aggregate(ip string, results []vpn.ProviderResult) vpn.AggregateResult {
	successful := 0
	detections := 0
	flagged := make([]vpn.ProviderResult, 0)

	for _, r := range results {
		if r.Failed() {
			continue
		}
		successful++
		if r.IsVPN {
			detections++
			flagged = append(flagged, r)
		}
	}

	var confidence int
	if successful > 0 {
		confidence = int(math.Round(100 * float64(detections) / float64(successful)))
	}

	threshold := a.registry.Get().VPN.ConfidenceDetected
	isVPN := confidence >= threshold && successful > 0

	return vpn.AggregateResult{
		IP:         ip,
		IsVPN:      isVPN,
		Confidence: confidence,
		Flagged:    flagged,
		Details: vpn.AggregateDetails{
			TotalChecks:   len(results),
			VPNDetections: detections,
			Services:      results,
		},
	}
}
