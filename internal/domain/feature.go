package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the inferred type of a feature column.
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "numeric":
		return KindNumeric, nil
	case "categorical":
		return KindCategorical, nil
	default:
		return 0, fmt.Errorf("unknown feature kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Feature is one named, typed model input.
type Feature struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is the ordered feature set a model expects.
// It is immutable once built and safe to share between requests.
type Schema struct {
	features []Feature
	index    map[string]int
}

// NewSchema builds a schema, rejecting empty and duplicate names.
func NewSchema(features []Feature) (*Schema, error) {
	s := &Schema{
		features: make([]Feature, len(features)),
		index:    make(map[string]int, len(features)),
	}
	for i, f := range features {
		if f.Name == "" {
			return nil, fmt.Errorf("feature %d has an empty name", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f.Name)
		}
		s.features[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// Features returns a copy of the ordered feature list.
func (s *Schema) Features() []Feature {
	out := make([]Feature, len(s.features))
	copy(out, s.features)
	return out
}

func (s *Schema) Len() int { return len(s.features) }

// Lookup returns the feature named name.
func (s *Schema) Lookup(name string) (Feature, bool) {
	i, ok := s.index[name]
	if !ok {
		return Feature{}, false
	}
	return s.features[i], true
}

// Value is a single cell of a feature row.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func Numeric(v float64) Value    { return Value{Kind: KindNumeric, Num: v} }
func Categorical(s string) Value { return Value{Kind: KindCategorical, Str: s} }

func (v Value) String() string {
	if v.Kind == KindCategorical {
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindCategorical {
		return json.Marshal(v.Str)
	}
	return json.Marshal(v.Num)
}

// Row maps feature names to values for exactly one record.
type Row map[string]Value

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Patch holds user supplied values for a subset of features.
type Patch map[string]Value
