package estimate

import (
	"context"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// MockEstimator is a mock implementation of ports.Estimator for testing.
type MockEstimator struct {
	EstimateFunc func(ctx context.Context, in domain.Input) (domain.Estimate, error)
	WarmFunc     func(ctx context.Context) error
	LevelsFunc   func(ctx context.Context, field string) []string
	SchemaFunc   func(ctx context.Context) (*domain.Schema, error)

	EstimateCalls int
	WarmCalls     int
	LevelsCalls   int
	SchemaCalls   int
}

func (m *MockEstimator) Estimate(ctx context.Context, in domain.Input) (domain.Estimate, error) {
	m.EstimateCalls++
	if m.EstimateFunc != nil {
		return m.EstimateFunc(ctx, in)
	}
	return domain.Estimate{}, nil
}

func (m *MockEstimator) Warm(ctx context.Context) error {
	m.WarmCalls++
	if m.WarmFunc != nil {
		return m.WarmFunc(ctx)
	}
	return nil
}

func (m *MockEstimator) Levels(ctx context.Context, field string) []string {
	m.LevelsCalls++
	if m.LevelsFunc != nil {
		return m.LevelsFunc(ctx, field)
	}
	return nil
}

func (m *MockEstimator) Schema(ctx context.Context) (*domain.Schema, error) {
	m.SchemaCalls++
	if m.SchemaFunc != nil {
		return m.SchemaFunc(ctx)
	}
	return nil, nil
}

// Calls returns the total number of calls made on the mock.
func (m *MockEstimator) Calls() int {
	return m.EstimateCalls + m.WarmCalls + m.LevelsCalls + m.SchemaCalls
}
