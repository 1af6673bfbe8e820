// Package metrics holds the OpenTelemetry instrument set the
// verification pipeline records against. Every instrument is created
// once at startup and is safe for concurrent use by every in-flight
// request.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds every instrument the core records against.
type Registry struct {
	meter metric.Meter

	// Verification pipeline
	VerificationDuration metric.Float64Histogram
	VerificationCounter  metric.Int64Counter
	VerificationsPerSecond metric.Float64ObservableGauge

	// VPN/Proxy Aggregator
	VPNProviderCallDuration metric.Float64Histogram
	VPNProviderErrorCounter metric.Int64Counter
	VPNDetectionCounter     metric.Int64Counter

	// Embedding & Vector Store
	EmbeddingDuration  metric.Float64Histogram
	VectorUpsertErrors metric.Int64Counter
	VectorSearchLatency metric.Float64Histogram

	// Risk Evaluator
	RiskEvaluationDuration metric.Float64Histogram
	RiskTierCounter        metric.Int64Counter
	GenerativeFallbackCounter metric.Int64Counter

	mu                     sync.RWMutex
	verificationsProcessed int64
	lastCount              int64
	lastSampleTime         time.Time
}

// NewRegistry creates a metrics registry against the named meter.
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{
		meter:          meter,
		lastSampleTime: time.Now(),
	}

	if err := r.initVerificationMetrics(); err != nil {
		return nil, err
	}
	if err := r.initVPNMetrics(); err != nil {
		return nil, err
	}
	if err := r.initSimilarityMetrics(); err != nil {
		return nil, err
	}
	if err := r.initRiskMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) initVerificationMetrics() error {
	var err error

	r.VerificationDuration, err = r.meter.Float64Histogram(
		"originwatch.verification.duration",
		metric.WithDescription("End-to-end verification request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return err
	}

	r.VerificationCounter, err = r.meter.Int64Counter(
		"originwatch.verification.total",
		metric.WithDescription("Total verification requests, by verdict status"),
	)
	if err != nil {
		return err
	}

	r.VerificationsPerSecond, err = r.meter.Float64ObservableGauge(
		"originwatch.verification.throughput_per_second",
		metric.WithDescription("Current verification throughput per second"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			now := time.Now()
			elapsed := now.Sub(r.lastSampleTime).Seconds()
			if elapsed > 0 {
				rate := float64(r.verificationsProcessed-r.lastCount) / elapsed
				o.Observe(rate)
				r.lastCount = r.verificationsProcessed
				r.lastSampleTime = now
			}
			return nil
		}),
	)
	return err
}

func (r *Registry) initVPNMetrics() error {
	var err error

	r.VPNProviderCallDuration, err = r.meter.Float64Histogram(
		"originwatch.vpn.provider_call_duration",
		metric.WithDescription("Per-provider IP-reputation call duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 10, 50, 100, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return err
	}

	r.VPNProviderErrorCounter, err = r.meter.Int64Counter(
		"originwatch.vpn.provider_error_total",
		metric.WithDescription("Total provider call failures, by provider name"),
	)
	if err != nil {
		return err
	}

	r.VPNDetectionCounter, err = r.meter.Int64Counter(
		"originwatch.vpn.detection_total",
		metric.WithDescription("Total aggregator verdicts, by isVpn outcome"),
	)
	return err
}

func (r *Registry) initSimilarityMetrics() error {
	var err error

	r.EmbeddingDuration, err = r.meter.Float64Histogram(
		"originwatch.embedding.duration",
		metric.WithDescription("Embedding model call duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return err
	}

	r.VectorUpsertErrors, err = r.meter.Int64Counter(
		"originwatch.vectorstore.upsert_error_total",
		metric.WithDescription("Total failed vector-store upserts"),
	)
	if err != nil {
		return err
	}

	r.VectorSearchLatency, err = r.meter.Float64Histogram(
		"originwatch.vectorstore.search_latency",
		metric.WithDescription("Nearest-neighbour search latency in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 250, 500),
	)
	return err
}

func (r *Registry) initRiskMetrics() error {
	var err error

	r.RiskEvaluationDuration, err = r.meter.Float64Histogram(
		"originwatch.risk.evaluation_duration",
		metric.WithDescription("Risk evaluator duration in milliseconds, by processing marker"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.RiskTierCounter, err = r.meter.Int64Counter(
		"originwatch.risk.tier_total",
		metric.WithDescription("Total risk evaluations, by resulting tier"),
	)
	if err != nil {
		return err
	}

	r.GenerativeFallbackCounter, err = r.meter.Int64Counter(
		"originwatch.risk.generative_fallback_total",
		metric.WithDescription("Total full-path evaluations that fell back because the model returned a non-JSON response"),
	)
	return err
}

// RecordVerification records one completed verification request.
func (r *Registry) RecordVerification(ctx context.Context, durationMS float64, status string) {
	attrs := []attribute.KeyValue{attribute.String("status", status)}
	r.VerificationDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.VerificationCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	r.mu.Lock()
	r.verificationsProcessed++
	r.mu.Unlock()
}

// RecordVPNProviderCall records one provider adapter invocation.
func (r *Registry) RecordVPNProviderCall(ctx context.Context, provider string, durationMS float64, errored bool) {
	attrs := []attribute.KeyValue{attribute.String("provider", provider)}
	r.VPNProviderCallDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	if errored {
		r.VPNProviderErrorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordVPNDetection records one aggregator consensus verdict.
func (r *Registry) RecordVPNDetection(ctx context.Context, isVPN bool) {
	r.VPNDetectionCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("is_vpn", isVPN)))
}

// RecordEmbedding records one embedding model call.
func (r *Registry) RecordEmbedding(ctx context.Context, durationMS float64, errored bool) {
	r.EmbeddingDuration.Record(ctx, durationMS, metric.WithAttributes(attribute.Bool("error", errored)))
}

// RecordVectorSearch records one nearest-neighbour search.
func (r *Registry) RecordVectorSearch(ctx context.Context, durationMS float64, resultCount int) {
	r.VectorSearchLatency.Record(ctx, durationMS, metric.WithAttributes(attribute.Int("result_count", resultCount)))
}

// RecordRiskEvaluation records one completed risk evaluation.
func (r *Registry) RecordRiskEvaluation(ctx context.Context, durationMS float64, tier, processing string) {
	attrs := []attribute.KeyValue{
		attribute.String("tier", tier),
		attribute.String("processing", processing),
	}
	r.RiskEvaluationDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.RiskTierCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	if processing == "fallback" {
		r.GenerativeFallbackCounter.Add(ctx, 1)
	}
}
