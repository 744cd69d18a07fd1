package recommend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/weather"
)

// MaxResults caps the recommendation list.
const MaxResults = 10

// FoodScore is one scored food.
type FoodScore struct {
	Food  string  `json:"food"`
	Score float64 `json:"score"`
}

// Scores is an ordered score list, highest first.
type Scores []FoodScore

// Recommendation is the result of one pipeline run together with the context used to produce it.
type Recommendation struct {
	ID          uuid.UUID        `json:"id"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Foods       Scores           `json:"foods"`
	Weather     weather.Snapshot `json:"weather"`
	Meal        meal.Category    `json:"meal"`
	Custom      bool             `json:"custom"`
}

// TempAvg is the average temperature the scores were computed for.
func (r Recommendation) TempAvg() float64 {
	return r.Weather.TempAvg
}

// Overrides carries user-supplied inputs for the custom path. Nil fields are backfilled.
type Overrides struct {
	TempAvg       *float64
	TempMin       *float64
	TempMax       *float64
	Precipitation *float64
	Meal          *meal.Category
}

func (o Overrides) weatherComplete() bool {
	return o.TempAvg != nil && o.TempMin != nil && o.TempMax != nil && o.Precipitation != nil
}

func (o Overrides) apply(s weather.Snapshot) weather.Snapshot {
	if o.TempAvg != nil {
		s.TempAvg = *o.TempAvg
	}
	if o.TempMin != nil {
		s.TempMin = *o.TempMin
	}
	if o.TempMax != nil {
		s.TempMax = *o.TempMax
	}
	if o.Precipitation != nil {
		s.Precipitation = *o.Precipitation
	}
	return s
}

// MealTable reports whether a food may be served for a meal.
type MealTable interface {
	Valid(food string, m meal.Category) bool
}

// WeatherSource returns the weather to score against at time now.
type WeatherSource interface {
	Get(ctx context.Context, now time.Time) (weather.Snapshot, error)
}

// Store is the contract for recommendation history (in-memory or SQLite).
type Store interface {
	Save(ctx context.Context, rec Recommendation) error
	Latest(ctx context.Context) (Recommendation, error)
	Range(ctx context.Context, from, to time.Time) ([]Recommendation, error)
}
