package estimate

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/ports"
	"github.com/emiliopalmerini/mhouse/internal/shared/middleware"
)

// unseenReporter is implemented by predictors that know their training levels.
type unseenReporter interface {
	UnseenCategories(row domain.Row) map[string]string
}

// Service runs one synchronous inference per form submission.
type Service struct {
	schemas    ports.SchemaSource
	predictors ports.PredictorSource
	metrics    ports.MetricsRecorder
	logger     *zap.Logger
	tracer     trace.Tracer
}

var _ ports.Estimator = (*Service)(nil)

func NewService(schemas ports.SchemaSource, predictors ports.PredictorSource, metrics ports.MetricsRecorder, logger *zap.Logger) *Service {
	return &Service{
		schemas:    schemas,
		predictors: predictors,
		metrics:    metrics,
		logger:     logger.Named("estimate"),
		tracer:     otel.Tracer("github.com/emiliopalmerini/mhouse/internal/estimate"),
	}
}

// Estimate merges the input into a fresh template row and predicts its price.
func (s *Service) Estimate(ctx context.Context, in domain.Input) (est domain.Estimate, err error) {
	start := time.Now()
	id := middleware.RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	log := s.logger.With(zap.String("request_id", id))

	ctx, span := s.tracer.Start(ctx, "estimate", trace.WithAttributes(attribute.String("request_id", id)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(domain.CodeOf(err)))
		} else {
			span.SetAttributes(attribute.Float64("price", est.Price))
		}
		span.End()
	}()

	schema, predictor, err := s.load(ctx)
	if err != nil {
		s.metrics.RecordPrediction(ctx, ports.OutcomeLoadError, time.Since(start), 0)
		log.Error("estimator unavailable", zap.Error(err))
		return domain.Estimate{}, err
	}

	row, ignored, err := domain.NewTemplate(schema).Merge(in.Clamped().Patch())
	if err != nil {
		return s.fail(ctx, log, start, domain.NewPredictionError("merge input", err))
	}
	if len(ignored) > 0 {
		log.Debug("input fields absent from schema", zap.Strings("fields", ignored))
	}

	prices, err := predictor.Predict([]domain.Row{row})
	if err != nil {
		return s.fail(ctx, log, start, err)
	}
	if len(prices) != 1 {
		return s.fail(ctx, log, start, domain.NewPredictionError("predict",
			errors.New("model returned no prediction")))
	}

	est = domain.Estimate{
		RequestID: id,
		Price:     prices[0],
		Duration:  time.Since(start),
	}
	if r, ok := predictor.(unseenReporter); ok {
		est.UnseenCategories = r.UnseenCategories(row)
		if len(est.UnseenCategories) > 0 {
			fields := make([]string, 0, len(est.UnseenCategories))
			for f := range est.UnseenCategories {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			log.Debug("categorical values unseen in training", zap.Strings("fields", fields))
		}
	}

	s.metrics.RecordPrediction(ctx, ports.OutcomeSuccess, est.Duration, est.Price)
	log.Info("estimated price",
		zap.Float64("price", est.Price),
		zap.Duration("duration", est.Duration),
	)
	return est, nil
}

func (s *Service) fail(ctx context.Context, log *zap.Logger, start time.Time, err error) (domain.Estimate, error) {
	s.metrics.RecordPrediction(ctx, ports.OutcomeFailure, time.Since(start), 0)
	log.Warn("prediction failed", zap.Error(err))
	return domain.Estimate{}, err
}

func (s *Service) load(ctx context.Context) (*domain.Schema, ports.Predictor, error) {
	schema, err := s.schemas.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	predictor, err := s.predictors.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return schema, predictor, nil
}

// Warm loads the schema and the model so load errors surface at startup.
func (s *Service) Warm(ctx context.Context) error {
	_, _, err := s.load(ctx)
	return err
}

// Levels returns the training levels of a categorical field, or nil when the
// model is unavailable or does not declare them.
func (s *Service) Levels(ctx context.Context, field string) []string {
	predictor, err := s.predictors.Load(ctx)
	if err != nil {
		return nil
	}
	return predictor.KnownLevels(field)
}

func (s *Service) Schema(ctx context.Context) (*domain.Schema, error) {
	return s.schemas.Load(ctx)
}
