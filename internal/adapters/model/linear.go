package model

import (
	"fmt"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// linear scores intercept + w·x over numeric features plus one weight per
// categorical level (one-hot). Levels without a weight contribute nothing.
type linear struct {
	intercept float64
	weights   []float64
	catWeight []map[string]float64
}

func compileLinear(a *Artifact, schema *domain.Schema) (*linear, error) {
	features := schema.Features()
	index := make(map[string]int, len(features))
	for i, f := range features {
		index[f.Name] = i
	}

	l := &linear{
		intercept: a.Intercept,
		weights:   make([]float64, len(features)),
		catWeight: make([]map[string]float64, len(features)),
	}
	for name, w := range a.Coefficients {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("coefficient for undeclared feature %q", name)
		}
		if features[i].Kind != domain.KindNumeric {
			return nil, fmt.Errorf("numeric coefficient for categorical feature %q", name)
		}
		l.weights[i] = w
	}
	for name, levels := range a.CategoricalCoefficients {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("categorical coefficients for undeclared feature %q", name)
		}
		if features[i].Kind != domain.KindCategorical {
			return nil, fmt.Errorf("categorical coefficients for numeric feature %q", name)
		}
		l.catWeight[i] = levels
	}
	return l, nil
}

func (l *linear) score(x encoded) float64 {
	sum := l.intercept
	for i, w := range l.weights {
		sum += w * x.num[i]
	}
	for i, levels := range l.catWeight {
		if levels != nil {
			sum += levels[x.cat[i]]
		}
	}
	return sum
}
