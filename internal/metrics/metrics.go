package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments of the SDK. A nil *Metrics is valid and records nothing,
// so library callers that do not export metrics can pass nil.
type Metrics struct {
	HTTPRequests        metric.Int64Counter
	HTTPDuration        metric.Float64Histogram
	CacheHits           metric.Int64Counter
	CacheMisses         metric.Int64Counter
	MetadataResolutions metric.Int64Counter
	MarketAssemblies    metric.Int64Counter
	AssemblyDuration    metric.Float64Histogram
	Extrinsics          metric.Int64Counter
}

// Metadata resolution outcomes.
const (
	OutcomeJSON     = "json"
	OutcomeLegacy   = "legacy"
	OutcomeEmpty    = "empty"
	OutcomeSentinel = "sentinel"
)

// Setup installs a Prometheus-backed meter provider and returns the instruments
// together with the scrape handler.
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	m, err := newMetrics(provider.Meter(serviceName))
	if err != nil {
		return nil, nil, err
	}
	return m, promhttp.Handler(), nil
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequests, err = meter.Int64Counter(
		"ztg_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"ztg_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter(
		"ztg_cache_hits_total",
		metric.WithDescription("Total number of metadata cache hits"),
	)
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter(
		"ztg_cache_misses_total",
		metric.WithDescription("Total number of metadata cache misses"),
	)
	if err != nil {
		return nil, err
	}

	m.MetadataResolutions, err = meter.Int64Counter(
		"ztg_metadata_resolutions_total",
		metric.WithDescription("Metadata resolutions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.MarketAssemblies, err = meter.Int64Counter(
		"ztg_market_assemblies_total",
		metric.WithDescription("Market assemblies by result"),
	)
	if err != nil {
		return nil, err
	}

	m.AssemblyDuration, err = meter.Float64Histogram(
		"ztg_market_assembly_duration_seconds",
		metric.WithDescription("Market assembly duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	m.Extrinsics, err = meter.Int64Counter(
		"ztg_extrinsics_total",
		metric.WithDescription("Submitted extrinsics by call and result"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordCacheHit(ctx context.Context, namespace string) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("namespace", namespace)))
}

func (m *Metrics) RecordCacheMiss(ctx context.Context, namespace string) {
	if m == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("namespace", namespace)))
}

func (m *Metrics) RecordMetadataResolution(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.MetadataResolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordMarketAssembly(ctx context.Context, result string, duration time.Duration) {
	if m == nil {
		return
	}
	labels := metric.WithAttributes(attribute.String("result", result))
	m.MarketAssemblies.Add(ctx, 1, labels)
	m.AssemblyDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordExtrinsic(ctx context.Context, call, result string) {
	if m == nil {
		return
	}
	m.Extrinsics.Add(ctx, 1, metric.WithAttributes(
		attribute.String("call", call),
		attribute.String("result", result),
	))
}
