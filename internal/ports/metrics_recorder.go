package ports

import (
	"context"
	"net/http"
	"time"
)

// PredictionOutcome labels a recorded prediction.
type PredictionOutcome string

const (
	OutcomeSuccess   PredictionOutcome = "success"
	OutcomeFailure   PredictionOutcome = "failure"
	OutcomeLoadError PredictionOutcome = "load_error"
)

// MetricsRecorder exports prediction metrics to an observability backend.
type MetricsRecorder interface {
	// RecordPrediction records one prediction request. price is ignored unless
	// the outcome is a success.
	RecordPrediction(ctx context.Context, outcome PredictionOutcome, d time.Duration, price float64)
	// Handler serves a scrape endpoint, or returns nil for push based exporters.
	Handler() http.Handler
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
