package recommend

import "github.com/i474232898/weather-food-recommender/internal/meal"

// Filter keeps the first MaxResults foods valid for m, in the given order,
// then drops any non-positive score among them.
func Filter(scores Scores, m meal.Category, table MealTable) Scores {
	valid := make(Scores, 0, MaxResults)
	for _, fs := range scores {
		if len(valid) == MaxResults {
			break
		}
		if table.Valid(fs.Food, m) {
			valid = append(valid, fs)
		}
	}

	out := valid[:0]
	for _, fs := range valid {
		if fs.Score > 0 {
			out = append(out, fs)
		}
	}
	return out
}
