package otel

import (
	"context"
	"net/http"
	"time"

	"github.com/emiliopalmerini/mhouse/internal/ports"
)

// NoOpRecorder is a metrics recorder that does nothing.
type NoOpRecorder struct{}

// NewNoOpRecorder creates a new no-op recorder for graceful degradation.
func NewNoOpRecorder() *NoOpRecorder {
	return &NoOpRecorder{}
}

func (NoOpRecorder) RecordPrediction(ctx context.Context, outcome ports.PredictionOutcome, d time.Duration, price float64) {
}

func (NoOpRecorder) Handler() http.Handler { return nil }

func (NoOpRecorder) Close(ctx context.Context) error { return nil }
