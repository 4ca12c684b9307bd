package model

import (
	"errors"
	"fmt"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// ensemble is a boosted sum of regression trees:
// base_score + learning_rate * Σ tree(x).
type ensemble struct {
	base  float64
	rate  float64
	trees [][]node
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	isCat     bool
	threshold float64
	set       map[string]struct{}
	left      int
	right     int
}

func compileEnsemble(a *Artifact, schema *domain.Schema) (*ensemble, error) {
	if len(a.Trees) == 0 {
		return nil, errors.New("tree ensemble has no trees")
	}
	features := schema.Features()
	index := make(map[string]int, len(features))
	for i, f := range features {
		index[f.Name] = i
	}

	rate := 1.0
	if a.LearningRate != nil {
		rate = *a.LearningRate
	}
	e := &ensemble{base: a.BaseScore, rate: rate, trees: make([][]node, len(a.Trees))}

	for t, tree := range a.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", t)
		}
		nodes := make([]node, len(tree.Nodes))
		for i, n := range tree.Nodes {
			if n.Leaf {
				nodes[i] = node{leaf: true, value: n.Value}
				continue
			}
			fi, ok := index[n.Feature]
			if !ok {
				return nil, fmt.Errorf("tree %d node %d splits on undeclared feature %q", t, i, n.Feature)
			}
			// Children must come after their parent, which also rules out cycles.
			if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("tree %d node %d has out of range children (%d, %d)", t, i, n.Left, n.Right)
			}
			compiled := node{feature: fi, threshold: n.Threshold, left: n.Left, right: n.Right}
			if features[fi].Kind == domain.KindCategorical {
				compiled.isCat = true
				compiled.set = make(map[string]struct{}, len(n.Categories))
				for _, c := range n.Categories {
					compiled.set[c] = struct{}{}
				}
			}
			nodes[i] = compiled
		}
		e.trees[t] = nodes
	}
	return e, nil
}

func (e *ensemble) score(x encoded) float64 {
	sum := 0.0
	for _, nodes := range e.trees {
		sum += walk(nodes, x)
	}
	return e.base + e.rate*sum
}

func walk(nodes []node, x encoded) float64 {
	i := 0
	for {
		n := nodes[i]
		if n.leaf {
			return n.value
		}
		var goLeft bool
		if n.isCat {
			_, goLeft = n.set[x.cat[n.feature]]
		} else {
			goLeft = x.num[n.feature] <= n.threshold
		}
		if goLeft {
			i = n.left
		} else {
			i = n.right
		}
	}
}
