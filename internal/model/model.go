// Package model provides the regression model that turns weather features into per-food scores.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Predictor scores a single feature vector. The output is indexed by the food-key table.
type Predictor interface {
	Predict(ctx context.Context, features []float64) ([]float64, error)
}

// Linear is a multi-output linear regression: out[i] = intercepts[i] + coefficients[i] . features.
type Linear struct {
	nFeatures    int
	intercepts   []float64
	coefficients [][]float64
}

var _ Predictor = (*Linear)(nil)

type linearArtifact struct {
	NFeatures    int         `json:"n_features"`
	Intercepts   []float64   `json:"intercepts"`
	Coefficients [][]float64 `json:"coefficients"`
}

// LoadLinear reads a JSON artifact exported from the training pipeline.
func LoadLinear(path string) (*Linear, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a linearArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}

	m, err := NewLinear(a.NFeatures, a.Intercepts, a.Coefficients)
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return m, nil
}

// NewLinear validates and copies the parameters.
func NewLinear(nFeatures int, intercepts []float64, coefficients [][]float64) (*Linear, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("n_features must be positive")
	}
	if len(intercepts) == 0 {
		return nil, fmt.Errorf("no outputs defined")
	}
	if len(coefficients) != len(intercepts) {
		return nil, fmt.Errorf("%d coefficient rows for %d intercepts", len(coefficients), len(intercepts))
	}

	coef := make([][]float64, len(coefficients))
	for i, row := range coefficients {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), nFeatures)
		}
		coef[i] = append([]float64(nil), row...)
	}

	return &Linear{
		nFeatures:    nFeatures,
		intercepts:   append([]float64(nil), intercepts...),
		coefficients: coef,
	}, nil
}

// Outputs returns the number of scores Predict produces.
func (m *Linear) Outputs() int {
	return len(m.intercepts)
}

func (m *Linear) Predict(_ context.Context, features []float64) ([]float64, error) {
	if len(features) != m.nFeatures {
		return nil, fmt.Errorf("got %d features, model expects %d", len(features), m.nFeatures)
	}

	out := make([]float64, len(m.intercepts))
	for i, row := range m.coefficients {
		v := m.intercepts[i]
		for j, w := range row {
			v += w * features[j]
		}
		out[i] = v
	}
	return out, nil
}
