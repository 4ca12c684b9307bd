package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// scorer computes the raw, untransformed score of an encoded row.
type scorer interface {
	score(x encoded) float64
}

// encoded is a row projected onto the model's feature order.
type encoded struct {
	num []float64
	cat []string
}

// Model is a compiled, read-only regression model. It is safe for
// concurrent use.
type Model struct {
	name      string
	kind      string
	transform string
	schema    *domain.Schema
	features  []domain.Feature
	levels    map[string][]string
	levelSet  map[string]map[string]struct{}
	scorer    scorer
}

// Compile validates an artifact and builds the model. Any inconsistency is
// reported as a model load error.
func Compile(a *Artifact) (*Model, error) {
	if a.FormatVersion != FormatVersion {
		return nil, domain.NewModelLoadError("compile",
			fmt.Errorf("unsupported format_version %d, want %d", a.FormatVersion, FormatVersion))
	}
	if len(a.Features) == 0 {
		return nil, domain.NewModelLoadError("compile", errors.New("artifact declares no features"))
	}

	features := make([]domain.Feature, len(a.Features))
	levels := make(map[string][]string)
	levelSet := make(map[string]map[string]struct{})
	for i, f := range a.Features {
		features[i] = domain.Feature{Name: f.Name, Kind: f.Kind}
		if f.Kind == domain.KindCategorical && len(f.Levels) > 0 {
			lv := append([]string(nil), f.Levels...)
			sort.Strings(lv)
			levels[f.Name] = lv
			set := make(map[string]struct{}, len(lv))
			for _, l := range lv {
				set[l] = struct{}{}
			}
			levelSet[f.Name] = set
		}
	}
	schema, err := domain.NewSchema(features)
	if err != nil {
		return nil, domain.NewModelLoadError("compile", err)
	}

	transform := a.TargetTransform
	switch transform {
	case "":
		transform = TransformIdentity
	case TransformIdentity, TransformLog1p:
	default:
		return nil, domain.NewModelLoadError("compile", fmt.Errorf("unknown target_transform %q", transform))
	}

	m := &Model{
		name:      a.Name,
		kind:      a.Kind,
		transform: transform,
		schema:    schema,
		features:  features,
		levels:    levels,
		levelSet:  levelSet,
	}

	switch a.Kind {
	case KindLinear:
		m.scorer, err = compileLinear(a, schema)
	case KindTreeEnsemble:
		m.scorer, err = compileEnsemble(a, schema)
	default:
		err = fmt.Errorf("unknown model kind %q", a.Kind)
	}
	if err != nil {
		return nil, domain.NewModelLoadError("compile", err)
	}
	return m, nil
}

func (m *Model) Name() string           { return m.name }
func (m *Model) Kind() string           { return m.kind }
func (m *Model) Schema() *domain.Schema { return m.schema }

// KnownLevels returns the sorted training levels of a categorical feature.
func (m *Model) KnownLevels(feature string) []string {
	return append([]string(nil), m.levels[feature]...)
}

// UnseenCategories returns categorical values of row the model never saw in
// training. Features without declared levels, empty values and placeholder
// values are skipped.
func (m *Model) UnseenCategories(row domain.Row) map[string]string {
	var out map[string]string
	for name, set := range m.levelSet {
		v, ok := row[name]
		if !ok || v.Kind != domain.KindCategorical || v.Str == "" || v.Str == domain.CategoricalPlaceholder {
			continue
		}
		if _, seen := set[v.Str]; seen {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = v.Str
	}
	return out
}

// Predict scores each row and returns one value per row.
func (m *Model) Predict(rows []domain.Row) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		x, err := m.encode(row)
		if err != nil {
			return nil, domain.NewPredictionError(fmt.Sprintf("predict row %d", i), err)
		}
		y := m.scorer.score(x)
		if m.transform == TransformLog1p {
			y = math.Expm1(y)
		}
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, domain.NewPredictionError(fmt.Sprintf("predict row %d", i),
				fmt.Errorf("model produced a non-finite value %v", y))
		}
		out[i] = y
	}
	return out, nil
}

// PredictOne scores a single row.
func (m *Model) PredictOne(row domain.Row) (float64, error) {
	ys, err := m.Predict([]domain.Row{row})
	if err != nil {
		return 0, err
	}
	return ys[0], nil
}

func (m *Model) encode(row domain.Row) (encoded, error) {
	x := encoded{
		num: make([]float64, len(m.features)),
		cat: make([]string, len(m.features)),
	}
	mm := &Mismatch{}
	for i, f := range m.features {
		v, ok := row[f.Name]
		if !ok {
			mm.Missing = append(mm.Missing, f.Name)
			continue
		}
		if v.Kind != f.Kind {
			mm.KindConflicts = append(mm.KindConflicts, fmt.Sprintf("%s (want %s, got %s)", f.Name, f.Kind, v.Kind))
			continue
		}
		x.num[i] = v.Num
		x.cat[i] = v.Str
	}
	if len(row) != len(m.features) {
		for name := range row {
			if _, ok := m.schema.Lookup(name); !ok {
				mm.Unexpected = append(mm.Unexpected, name)
			}
		}
	}
	if !mm.Empty() {
		mm.sort()
		return encoded{}, domain.NewSchemaMismatchError("encode row", mm)
	}
	return x, nil
}

// CheckCompatible compares the model's feature set with a schema derived from
// the reference dataset. Order is irrelevant; names and kinds must agree.
func (m *Model) CheckCompatible(schema *domain.Schema) error {
	mm := &Mismatch{}
	for _, f := range m.features {
		got, ok := schema.Lookup(f.Name)
		if !ok {
			mm.Missing = append(mm.Missing, f.Name)
			continue
		}
		if got.Kind != f.Kind {
			mm.KindConflicts = append(mm.KindConflicts, fmt.Sprintf("%s (model %s, dataset %s)", f.Name, f.Kind, got.Kind))
		}
	}
	for _, f := range schema.Features() {
		if _, ok := m.schema.Lookup(f.Name); !ok {
			mm.Unexpected = append(mm.Unexpected, f.Name)
		}
	}
	if mm.Empty() {
		return nil
	}
	mm.sort()
	return domain.NewSchemaMismatchError("check compatibility", mm)
}

// Mismatch details how a row or schema disagrees with the model.
type Mismatch struct {
	Missing       []string
	Unexpected    []string
	KindConflicts []string
}

func (mm *Mismatch) Empty() bool {
	return len(mm.Missing) == 0 && len(mm.Unexpected) == 0 && len(mm.KindConflicts) == 0
}

func (mm *Mismatch) sort() {
	sort.Strings(mm.Missing)
	sort.Strings(mm.Unexpected)
	sort.Strings(mm.KindConflicts)
}

func (mm *Mismatch) Error() string {
	var parts []string
	if len(mm.Missing) > 0 {
		parts = append(parts, "missing features: "+strings.Join(mm.Missing, ", "))
	}
	if len(mm.Unexpected) > 0 {
		parts = append(parts, "unexpected features: "+strings.Join(mm.Unexpected, ", "))
	}
	if len(mm.KindConflicts) > 0 {
		parts = append(parts, "kind conflicts: "+strings.Join(mm.KindConflicts, ", "))
	}
	return strings.Join(parts, "; ")
}
