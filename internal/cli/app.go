package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/adapters/dataset"
	"github.com/emiliopalmerini/mhouse/internal/adapters/model"
	"github.com/emiliopalmerini/mhouse/internal/adapters/otel"
	"github.com/emiliopalmerini/mhouse/internal/estimate"
	"github.com/emiliopalmerini/mhouse/internal/infrastructure/config"
	"github.com/emiliopalmerini/mhouse/internal/logger"
	"github.com/emiliopalmerini/mhouse/internal/ports"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config    *config.Config
	Logger    *zap.Logger
	Schemas   *dataset.Loader
	Models    *model.Loader
	Metrics   ports.MetricsRecorder
	Tracer    *sdktrace.TracerProvider // nil when tracing is off
	Estimator *estimate.Service
}

// NewAppContext loads configuration for cmd and wires the estimator.
// Nothing is read from disk until the first load.
func NewAppContext(ctx context.Context, cmd *cobra.Command) (*AppContext, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	schemas := dataset.NewLoader(dataset.Config{
		Path:         cfg.Dataset.Path,
		TargetColumn: cfg.Dataset.Target,
		IDColumn:     cfg.Dataset.ID,
		Delimiter:    cfg.Dataset.DelimiterRune(),
	}, log)
	models := model.NewLoader(cfg.Model.Path, schemas, log)
	metrics := newMetrics(ctx, cfg.Metrics, log)

	var tracer *sdktrace.TracerProvider
	if cfg.Tracing.OTel().Enabled() {
		tracer, err = otel.NewTracerProvider(ctx, cfg.Tracing.OTel())
		if err != nil {
			log.Warn("tracing disabled", zap.String("endpoint", cfg.Tracing.Endpoint), zap.Error(err))
		}
	}

	return &AppContext{
		Config:    cfg,
		Logger:    log,
		Schemas:   schemas,
		Models:    models,
		Metrics:   metrics,
		Tracer:    tracer,
		Estimator: estimate.NewService(schemas, models, metrics, log),
	}, nil
}

// newMetrics falls back to a no-op recorder when metrics are disabled or the
// exporter cannot be created.
func newMetrics(ctx context.Context, cfg config.MetricsConfig, log *zap.Logger) ports.MetricsRecorder {
	if cfg.Exporter == otel.ExporterNone {
		return otel.NewNoOpRecorder()
	}
	rec, err := otel.NewRecorder(ctx, cfg.OTel())
	if err != nil {
		log.Warn("metrics disabled", zap.String("exporter", cfg.Exporter), zap.Error(err))
		return otel.NewNoOpRecorder()
	}
	return rec
}

// Close flushes metrics, spans and the logger.
func (a *AppContext) Close(ctx context.Context) error {
	var err error
	if a.Metrics != nil {
		err = a.Metrics.Close(ctx)
	}
	if a.Tracer != nil {
		if tErr := a.Tracer.Shutdown(ctx); tErr != nil && err == nil {
			err = tErr
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return err
}
