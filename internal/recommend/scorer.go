package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/i474232898/weather-food-recommender/internal/catalog"
	"github.com/i474232898/weather-food-recommender/internal/model"
)

// ErrOutputMismatch means the model returned fewer scores than the food-key table expects.
var ErrOutputMismatch = errors.New("model output does not match food keys")

// Scorer runs the model and names its outputs.
type Scorer struct {
	model model.Predictor
	keys  catalog.FoodKeys
}

// NewScorer pairs a predictor with the food-key table aligned to its outputs.
func NewScorer(p model.Predictor, keys catalog.FoodKeys) *Scorer {
	return &Scorer{model: p, keys: keys}
}

// Score predicts once for features and returns positive scores, highest first.
// Equal scores keep food-key order.
func (s *Scorer) Score(ctx context.Context, features []float64) (Scores, error) {
	preds, err := s.model.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if hi := s.keys.MaxIndex(); hi >= len(preds) {
		return nil, fmt.Errorf("%w: key index %d, %d outputs", ErrOutputMismatch, hi, len(preds))
	}

	all := make(Scores, 0, len(s.keys))
	for _, idx := range s.keys.Indices() {
		all = append(all, FoodScore{Food: s.keys[idx], Score: preds[idx]})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	out := all[:0]
	for _, fs := range all {
		if fs.Score > 0 {
			out = append(out, fs)
		}
	}
	return out, nil
}
