package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/adapters/storage"
	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// Config points the loader at a reference dataset.
type Config struct {
	Path         string
	TargetColumn string
	IDColumn     string
	Delimiter    rune
}

// missingTokens are the cell values a pandas reader treats as NaN.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isMissing(cell string) bool {
	_, ok := missingTokens[cell]
	return ok
}

// Loader derives the feature schema from the reference dataset once and
// caches the outcome, including a failure, for the life of the process.
type Loader struct {
	cfg    Config
	logger *zap.Logger

	once   sync.Once
	schema *domain.Schema
	err    error
}

// NewLoader creates a loader. Nothing is read until the first Load.
func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	return &Loader{cfg: cfg, logger: logger.Named("dataset")}
}

// Load returns the cached schema, reading the dataset on first use. The read
// ignores cancellation of ctx so that an abandoned first request cannot cache
// a failure for every later caller.
func (l *Loader) Load(ctx context.Context) (*domain.Schema, error) {
	l.once.Do(func() {
		l.schema, l.err = l.read(context.WithoutCancel(ctx))
		if l.err != nil {
			l.logger.Error("failed to load reference dataset", zap.String("path", l.cfg.Path), zap.Error(l.err))
			return
		}
		l.logger.Info("derived feature schema",
			zap.String("path", l.cfg.Path),
			zap.Int("features", l.schema.Len()),
		)
	})
	return l.schema, l.err
}

func (l *Loader) read(ctx context.Context) (*domain.Schema, error) {
	rc, err := storage.Open(l.cfg.Path)
	if err != nil {
		return nil, domain.NewDataLoadError("open dataset", err)
	}
	defer func() { _ = rc.Close() }()

	return ReadSchema(ctx, rc, l.cfg)
}

// ReadSchema reads a delimited dataset, drops the target and id columns and
// infers each remaining column's kind. A column is numeric when every
// non-missing cell parses as a number, categorical otherwise.
func ReadSchema(ctx context.Context, r io.Reader, cfg Config) (*domain.Schema, error) {
	reader := csv.NewReader(r)
	if cfg.Delimiter != 0 {
		reader.Comma = cfg.Delimiter
	}
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewDataLoadError("read header", errors.New("dataset is empty"))
	}
	if err != nil {
		return nil, domain.NewDataLoadError("read header", err)
	}
	names := make([]string, len(header))
	copy(names, header)
	names[0] = strings.TrimPrefix(names[0], "\ufeff")

	targetIdx, idIdx := -1, -1
	for i, name := range names {
		switch name {
		case cfg.TargetColumn:
			targetIdx = i
		case cfg.IDColumn:
			idIdx = i
		}
	}
	if targetIdx < 0 {
		return nil, domain.NewDataLoadError("read header", fmt.Errorf("target column %q not found", cfg.TargetColumn))
	}
	if idIdx < 0 {
		return nil, domain.NewDataLoadError("read header", fmt.Errorf("id column %q not found", cfg.IDColumn))
	}

	categorical := make([]bool, len(names))
	for line := 2; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, domain.NewDataLoadError("read rows", err)
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewDataLoadError("read rows", err)
		}
		for i, cell := range record {
			if categorical[i] || isMissing(cell) {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
				categorical[i] = true
			}
		}
	}

	features := make([]domain.Feature, 0, len(names)-2)
	for i, name := range names {
		if i == targetIdx || i == idIdx {
			continue
		}
		kind := domain.KindNumeric
		if categorical[i] {
			kind = domain.KindCategorical
		}
		features = append(features, domain.Feature{Name: name, Kind: kind})
	}

	schema, err := domain.NewSchema(features)
	if err != nil {
		return nil, domain.NewDataLoadError("build schema", err)
	}
	return schema, nil
}
