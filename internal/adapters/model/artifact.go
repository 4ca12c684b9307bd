package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/emiliopalmerini/mhouse/internal/domain"
)

// FormatVersion is the only artifact layout this build understands.
const FormatVersion = 1

// Model kinds.
const (
	KindLinear       = "linear"
	KindTreeEnsemble = "tree_ensemble"
)

// Target transforms applied to the raw score.
const (
	TransformIdentity = "identity"
	TransformLog1p    = "log1p"
)

// Artifact is the serialized form of a trained regression model.
type Artifact struct {
	FormatVersion   int               `json:"format_version"`
	Name            string            `json:"name"`
	Kind            string            `json:"kind"`
	TargetTransform string            `json:"target_transform,omitempty"`
	Features        []ArtifactFeature `json:"features"`

	// linear
	Intercept               float64                       `json:"intercept,omitempty"`
	Coefficients            map[string]float64            `json:"coefficients,omitempty"`
	CategoricalCoefficients map[string]map[string]float64 `json:"categorical_coefficients,omitempty"`

	// tree_ensemble
	BaseScore    float64  `json:"base_score,omitempty"`
	LearningRate *float64 `json:"learning_rate,omitempty"` // 1 when absent
	Trees        []Tree   `json:"trees,omitempty"`
}

// ArtifactFeature declares one model input. Levels lists the categories seen
// in training and is informational.
type ArtifactFeature struct {
	Name   string      `json:"name"`
	Kind   domain.Kind `json:"kind"`
	Levels []string    `json:"levels,omitempty"`
}

// Tree is a regression tree stored as an indexed node list, root first.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a leaf carrying a value or a split. Numeric splits send
// x <= Threshold left; categorical splits send values in Categories left.
type Node struct {
	Leaf       bool     `json:"leaf,omitempty"`
	Value      float64  `json:"value,omitempty"`
	Feature    string   `json:"feature,omitempty"`
	Threshold  float64  `json:"threshold,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Left       int      `json:"left,omitempty"`
	Right      int      `json:"right,omitempty"`
}

// DecodeArtifact parses an artifact document.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var a Artifact
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode artifact: trailing data after document")
	}
	return &a, nil
}
