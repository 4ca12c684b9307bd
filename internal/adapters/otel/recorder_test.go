package otel

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/emiliopalmerini/mhouse/internal/ports"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecorder_RecordPrediction(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r, err := newRecorder(provider, nil)
	require.NoError(t, err)
	defer r.Close(context.Background())

	ctx := context.Background()
	r.RecordPrediction(ctx, ports.OutcomeSuccess, 3*time.Millisecond, 215432.89)
	r.RecordPrediction(ctx, ports.OutcomeSuccess, 2*time.Millisecond, 180000)
	r.RecordPrediction(ctx, ports.OutcomeFailure, time.Millisecond, 0)

	metrics := collect(t, reader)

	sum, ok := metrics["mhouse_predictions_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("outcome"))
		counts[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"success": 2, "failure": 1}, counts)

	price, ok := metrics["mhouse_predicted_price_usd"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, price.DataPoints, 1)
	assert.Equal(t, uint64(2), price.DataPoints[0].Count, "failures carry no price")
}

func TestNewRecorder_Prometheus(t *testing.T) {
	r, err := NewRecorder(context.Background(), Config{Exporter: ExporterPrometheus})
	require.NoError(t, err)
	defer r.Close(context.Background())

	r.RecordPrediction(context.Background(), ports.OutcomeSuccess, time.Millisecond, 100000)

	require.NotNil(t, r.Handler())
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mhouse_predictions_total"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"none", Config{Exporter: ExporterNone}, false},
		{"prometheus", Config{Exporter: ExporterPrometheus}, false},
		{"otlp with endpoint", Config{Exporter: ExporterOTLP, Endpoint: "localhost:4317"}, false},
		{"otlp without endpoint", Config{Exporter: ExporterOTLP}, true},
		{"unknown", Config{Exporter: "statsd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoOpRecorder(t *testing.T) {
	var r ports.MetricsRecorder = NewNoOpRecorder()
	r.RecordPrediction(context.Background(), ports.OutcomeSuccess, time.Second, 1)
	assert.Nil(t, r.Handler())
	assert.NoError(t, r.Close(context.Background()))
}

func TestNewTracerProvider_RequiresEndpoint(t *testing.T) {
	assert.False(t, TracingConfig{}.Enabled())
	_, err := NewTracerProvider(context.Background(), TracingConfig{})
	assert.Error(t, err)
}

func TestNewTracerProvider(t *testing.T) {
	// The exporter connects lazily, so no collector is needed to build it.
	tp, err := NewTracerProvider(context.Background(), TracingConfig{Endpoint: "localhost:4318", Insecure: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
