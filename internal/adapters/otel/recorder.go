package otel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/mhouse/internal/ports"
)

const (
	serviceName    = "mhouse"
	serviceVersion = "1.0.0"
)

// Recorder records prediction metrics through an OpenTelemetry meter.
type Recorder struct {
	provider    *sdkmetric.MeterProvider
	handler     http.Handler
	predictions metric.Int64Counter
	duration    metric.Float64Histogram
	price       metric.Float64Histogram
}

// NewRecorder builds a recorder for the configured exporter. Callers should
// fall back to NewNoOpRecorder when the exporter is "none" or this fails.
func NewRecorder(ctx context.Context, cfg Config) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	var (
		reader  sdkmetric.Reader
		handler http.Handler
	)
	switch cfg.Exporter {
	case ExporterOTLP:
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case ExporterPrometheus:
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exp, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("creating Prometheus exporter: %w", err)
		}
		reader = exp
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	default:
		return nil, fmt.Errorf("metrics exporter %q does not export", cfg.Exporter)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newRecorder(provider, handler)
}

func newResource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	return res, nil
}

func newRecorder(provider *sdkmetric.MeterProvider, handler http.Handler) (*Recorder, error) {
	meter := provider.Meter(serviceName)

	predictions, err := meter.Int64Counter(
		"mhouse_predictions_total",
		metric.WithDescription("Prediction requests by outcome"),
		metric.WithUnit("{prediction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating predictions counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"mhouse_prediction_duration_seconds",
		metric.WithDescription("Time spent building the row and running inference"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	price, err := meter.Float64Histogram(
		"mhouse_predicted_price_usd",
		metric.WithDescription("Distribution of predicted house prices"),
		metric.WithUnit("USD"),
		metric.WithExplicitBucketBoundaries(50_000, 100_000, 150_000, 200_000, 300_000, 500_000, 750_000, 1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("creating price histogram: %w", err)
	}

	return &Recorder{
		provider:    provider,
		handler:     handler,
		predictions: predictions,
		duration:    duration,
		price:       price,
	}, nil
}

// RecordPrediction records the outcome, latency and, on success, the price.
func (r *Recorder) RecordPrediction(ctx context.Context, outcome ports.PredictionOutcome, d time.Duration, price float64) {
	opt := metric.WithAttributes(attribute.String("outcome", string(outcome)))

	r.predictions.Add(ctx, 1, opt)
	r.duration.Record(ctx, d.Seconds(), opt)
	if outcome == ports.OutcomeSuccess {
		r.price.Record(ctx, price)
	}
}

// Handler returns the Prometheus scrape handler, or nil for OTLP.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Close shuts down the provider and flushes any pending metrics.
func (r *Recorder) Close(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
