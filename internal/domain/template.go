package domain

import (
	"fmt"
	"sort"
)

// CategoricalPlaceholder fills categorical features the user did not supply.
const CategoricalPlaceholder = "None"

// Template is the default feature row derived from a schema.
// The defaults are never handed out directly: Row and Merge return copies.
type Template struct {
	schema   *Schema
	defaults Row
}

// NewTemplate sets every feature to its kind default: 0 for numeric,
// CategoricalPlaceholder for categorical.
func NewTemplate(schema *Schema) *Template {
	defaults := make(Row, schema.Len())
	for _, f := range schema.features {
		if f.Kind == KindCategorical {
			defaults[f.Name] = Categorical(CategoricalPlaceholder)
		} else {
			defaults[f.Name] = Numeric(0)
		}
	}
	return &Template{schema: schema, defaults: defaults}
}

func (t *Template) Schema() *Schema { return t.schema }

// Row returns a fresh copy of the default row.
func (t *Template) Row() Row {
	return t.defaults.Clone()
}

// Merge returns a fresh row with the patch fields overwritten. Patch fields
// unknown to the schema are skipped and reported in ignored; a value whose
// kind disagrees with the schema fails with a schema mismatch.
func (t *Template) Merge(patch Patch) (row Row, ignored []string, err error) {
	row = t.Row()
	for name, v := range patch {
		f, ok := t.schema.Lookup(name)
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		if f.Kind != v.Kind {
			return nil, nil, NewSchemaMismatchError("merge",
				fmt.Errorf("feature %q is %s, got a %s value", name, f.Kind, v.Kind))
		}
		row[name] = v
	}
	sort.Strings(ignored)
	return row, ignored, nil
}
