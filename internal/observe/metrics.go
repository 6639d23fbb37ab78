// Package observe provides application-wide observability for Vekta:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Vekta metrics.
const meterName = "github.com/Vicoder007/Vekta"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// StageDuration tracks per-stage pipeline latency. Use with attribute:
	//   attribute.String("stage", "normalize"|"extract"|"corpus"|"score"|"assemble"|"serialize")
	StageDuration metric.Float64Histogram

	// Requests counts generation requests. Use with attributes:
	//   attribute.String("outcome", "accepted"|"rejected"|"error"),
	//   attribute.String("method", "direct"|"direct+corpus"|"parametric")
	Requests metric.Int64Counter

	// Confidence tracks the confidence distribution of scored requests.
	Confidence metric.Float64Histogram

	// Corrections counts normalizer token corrections. Use with attribute:
	//   attribute.String("method", "compound"|"table"|"fuzzy")
	Corrections metric.Int64Counter

	// UnresolvedTokens counts tokens the normalizer gave up on.
	UnresolvedTokens metric.Int64Counter

	// EmbedTimeouts counts corpus searches that fell back to lexical-only
	// scoring because the embedding provider missed its deadline.
	EmbedTimeouts metric.Int64Counter

	// FilesWritten counts generated .zwo artifacts.
	FilesWritten metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// a text pipeline with an optional network-bound embedding stage.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// confidenceBuckets covers the [0, 1] confidence range at band resolution.
var confidenceBuckets = []float64{
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.9, 0.95,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("vekta.pipeline.stage.duration",
		metric.WithDescription("Latency per pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Requests, err = m.Int64Counter("vekta.pipeline.requests",
		metric.WithDescription("Total generation requests by outcome and method."),
	); err != nil {
		return nil, err
	}
	if met.Confidence, err = m.Float64Histogram("vekta.pipeline.confidence",
		metric.WithDescription("Confidence distribution of scored requests."),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Corrections, err = m.Int64Counter("vekta.normalize.corrections",
		metric.WithDescription("Token corrections by correction method."),
	); err != nil {
		return nil, err
	}
	if met.UnresolvedTokens, err = m.Int64Counter("vekta.normalize.unresolved_tokens",
		metric.WithDescription("Tokens left unresolved by the normalizer."),
	); err != nil {
		return nil, err
	}
	if met.EmbedTimeouts, err = m.Int64Counter("vekta.corpus.embed_timeouts",
		metric.WithDescription("Corpus searches degraded to lexical-only scoring."),
	); err != nil {
		return nil, err
	}
	if met.FilesWritten, err = m.Int64Counter("vekta.artifacts.files_written",
		metric.WithDescription("Generated workout files."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStage records one pipeline stage duration in seconds.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordRequest records one generation request with its outcome and method.
func (m *Metrics) RecordRequest(ctx context.Context, outcome, method string) {
	m.Requests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("method", method),
		),
	)
}

// RecordCorrections records normalizer corrections for one method.
func (m *Metrics) RecordCorrections(ctx context.Context, method string, n int64) {
	if n == 0 {
		return
	}
	m.Corrections.Add(ctx, n,
		metric.WithAttributes(attribute.String("method", method)),
	)
}

// RecordEmbedTimeout records one degraded corpus search.
func (m *Metrics) RecordEmbedTimeout(ctx context.Context) {
	m.EmbedTimeouts.Add(ctx, 1)
}
