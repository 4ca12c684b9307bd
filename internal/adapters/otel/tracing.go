package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracingConfig points span export at an OTLP/HTTP collector.
// Tracing is off when Endpoint is empty.
type TracingConfig struct {
	Endpoint string
	Insecure bool
}

func (c TracingConfig) Enabled() bool { return c.Endpoint != "" }

// NewTracerProvider exports spans in batches and installs the provider
// globally. Shut it down to flush pending spans.
func NewTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("tracing endpoint is not configured")
	}
	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider, nil
}
