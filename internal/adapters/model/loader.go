package model

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/adapters/storage"
	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/ports"
)

// Loader loads the model artifact once per process and checks it against the
// dataset schema. The outcome, including a failure, is never invalidated.
type Loader struct {
	path    string
	schemas ports.SchemaSource
	logger  *zap.Logger

	once  sync.Once
	model *Model
	err   error
}

// NewLoader creates a loader for the artifact at path. When schemas is not
// nil the model must agree with the schema it yields.
func NewLoader(path string, schemas ports.SchemaSource, logger *zap.Logger) *Loader {
	return &Loader{path: path, schemas: schemas, logger: logger.Named("model")}
}

// Load returns the cached model, loading it on first use.
func (l *Loader) Load(ctx context.Context) (ports.Predictor, error) {
	m, err := l.LoadModel(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadModel is Load with the concrete type. Like the dataset loader it does
// not let cancellation of ctx end the one and only load.
func (l *Loader) LoadModel(ctx context.Context) (*Model, error) {
	l.once.Do(func() {
		l.model, l.err = l.load(context.WithoutCancel(ctx))
		if l.err != nil {
			l.logger.Error("failed to load model", zap.String("path", l.path), zap.Error(l.err))
			return
		}
		l.logger.Info("loaded model",
			zap.String("path", l.path),
			zap.String("name", l.model.Name()),
			zap.String("kind", l.model.Kind()),
			zap.Int("features", l.model.Schema().Len()),
		)
	})
	return l.model, l.err
}

func (l *Loader) load(ctx context.Context) (*Model, error) {
	rc, err := storage.Open(l.path)
	if err != nil {
		return nil, domain.NewModelLoadError("open artifact", err)
	}
	defer func() { _ = rc.Close() }()

	artifact, err := DecodeArtifact(rc)
	if err != nil {
		return nil, domain.NewModelLoadError("read artifact", err)
	}
	m, err := Compile(artifact)
	if err != nil {
		return nil, err
	}

	if l.schemas == nil {
		return m, nil
	}
	schema, err := l.schemas.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.CheckCompatible(schema); err != nil {
		return nil, err
	}
	return m, nil
}
