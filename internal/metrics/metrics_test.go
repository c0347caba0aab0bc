package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestRecorders(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/v1/markets", 200, time.Millisecond)
	m.RecordCacheHit(ctx, "ipfs")
	m.RecordCacheMiss(ctx, "ipfs")
	m.RecordCacheMiss(ctx, "ipfs")
	m.RecordMetadataResolution(ctx, OutcomeLegacy)
	m.RecordMarketAssembly(ctx, "ok", time.Millisecond)
	m.RecordExtrinsic(ctx, "Shares.wrap_native_currency", "submitted")

	sums := collect(t, reader)
	assert.Equal(t, int64(1), sums["ztg_http_requests_total"])
	assert.Equal(t, int64(1), sums["ztg_cache_hits_total"])
	assert.Equal(t, int64(2), sums["ztg_cache_misses_total"])
	assert.Equal(t, int64(1), sums["ztg_metadata_resolutions_total"])
	assert.Equal(t, int64(1), sums["ztg_market_assemblies_total"])
	assert.Equal(t, int64(1), sums["ztg_extrinsics_total"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Second)
		m.RecordCacheHit(ctx, "ipfs")
		m.RecordCacheMiss(ctx, "ipfs")
		m.RecordMetadataResolution(ctx, OutcomeSentinel)
		m.RecordMarketAssembly(ctx, "error", time.Second)
		m.RecordExtrinsic(ctx, "x", "failed")
	})
}
