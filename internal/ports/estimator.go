package ports

import (
	"context"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// SchemaSource provides the feature schema recovered from the reference dataset.
// Implementations load once and return the cached result afterwards.
type SchemaSource interface {
	Load(ctx context.Context) (*domain.Schema, error)
}

// Predictor is a loaded regression model.
type Predictor interface {
	// Schema returns the features the model was trained on.
	Schema() *domain.Schema
	// Predict applies the model to each row and returns one price per row.
	Predict(rows []domain.Row) ([]float64, error)
	// KnownLevels returns the categorical levels seen in training for a feature.
	KnownLevels(feature string) []string
}

// PredictorSource provides the process-wide model.
// Implementations load once and return the cached result afterwards.
type PredictorSource interface {
	Load(ctx context.Context) (Predictor, error)
}

// Estimator turns form input into a price estimate.
type Estimator interface {
	Estimate(ctx context.Context, in domain.Input) (domain.Estimate, error)
	// Warm loads schema and model eagerly, surfacing load-time errors.
	Warm(ctx context.Context) error
	// Levels returns the categorical suggestions for a form field.
	Levels(ctx context.Context, field string) []string
	// Schema returns the derived feature schema.
	Schema(ctx context.Context) (*domain.Schema, error)
}
