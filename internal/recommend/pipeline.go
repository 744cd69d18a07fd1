package recommend

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/weather"
)

// Deps wires the pipeline collaborators.
type Deps struct {
	Weather    WeatherSource
	Scorer     *Scorer
	Classifier *meal.Classifier
	Table      MealTable
	History    Store // optional

	// Clock defaults to time.Now; Location to time.Local. The meal is
	// classified from the hour in Location.
	Clock    func() time.Time
	Location *time.Location
}

// Pipeline turns weather and time of day into a ranked food list.
type Pipeline struct {
	weather    WeatherSource
	scorer     *Scorer
	classifier *meal.Classifier
	table      MealTable
	history    Store
	clock      func() time.Time
	loc        *time.Location
}

// NewPipeline validates deps and fills defaults.
func NewPipeline(deps Deps) (*Pipeline, error) {
	if deps.Scorer == nil {
		return nil, fmt.Errorf("pipeline: scorer is required")
	}
	if deps.Table == nil {
		return nil, fmt.Errorf("pipeline: meal table is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = meal.NewClassifier(meal.Default)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}

	return &Pipeline{
		weather:    deps.Weather,
		scorer:     deps.Scorer,
		classifier: deps.Classifier,
		table:      deps.Table,
		history:    deps.History,
		clock:      deps.Clock,
		loc:        deps.Location,
	}, nil
}

// Recommend uses live weather and the current meal period.
func (p *Pipeline) Recommend(ctx context.Context) (Recommendation, error) {
	return p.run(ctx, Overrides{}, false)
}

// RecommendCustom uses the supplied overrides and backfills the rest from
// live weather and the current meal period. Live weather is only fetched
// when at least one weather field is missing.
func (p *Pipeline) RecommendCustom(ctx context.Context, o Overrides) (Recommendation, error) {
	return p.run(ctx, o, true)
}

// CurrentWeather returns the live snapshot the default path would use.
func (p *Pipeline) CurrentWeather(ctx context.Context) (weather.Snapshot, error) {
	if p.weather == nil {
		return weather.Snapshot{}, fmt.Errorf("%w: no weather source configured", weather.ErrWeatherUnavailable)
	}
	return p.weather.Get(ctx, p.now())
}

// CurrentMeal classifies the current hour.
func (p *Pipeline) CurrentMeal() (meal.Category, error) {
	return p.classifier.Classify(p.now().Hour())
}

func (p *Pipeline) now() time.Time {
	return p.clock().In(p.loc)
}

func (p *Pipeline) run(ctx context.Context, o Overrides, custom bool) (Recommendation, error) {
	now := p.now()

	var snap weather.Snapshot
	if !o.weatherComplete() {
		live, err := p.CurrentWeather(ctx)
		if err != nil {
			return Recommendation{}, fmt.Errorf("get weather: %w", err)
		}
		snap = live
	}
	snap = o.apply(snap)

	var category meal.Category
	if o.Meal != nil {
		category = *o.Meal
	} else {
		c, err := p.classifier.Classify(now.Hour())
		if err != nil {
			return Recommendation{}, fmt.Errorf("classify meal: %w", err)
		}
		category = c
	}

	scores, err := p.scorer.Score(ctx, snap.Features())
	if err != nil {
		return Recommendation{}, fmt.Errorf("score foods: %w", err)
	}

	rec := Recommendation{
		ID:          uuid.New(),
		GeneratedAt: now.UTC(),
		Foods:       Filter(scores, category, p.table),
		Weather:     snap,
		Meal:        category,
		Custom:      custom,
	}

	if p.history != nil {
		if err := p.history.Save(ctx, rec); err != nil {
			log.Printf("WARN: failed to record recommendation %s: %v", rec.ID, err)
		}
	}

	return rec, nil
}
