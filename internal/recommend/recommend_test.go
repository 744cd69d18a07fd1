package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/i474232898/weather-food-recommender/internal/catalog"
	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/weather"
)

type fakePredictor struct {
	out      []float64
	err      error
	features [][]float64
}

func (f *fakePredictor) Predict(_ context.Context, features []float64) ([]float64, error) {
	f.features = append(f.features, append([]float64(nil), features...))
	return f.out, f.err
}

type fakeWeather struct {
	snap  weather.Snapshot
	err   error
	calls int
}

func (f *fakeWeather) Get(_ context.Context, _ time.Time) (weather.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

type fakeStore struct {
	saved []Recommendation
	err   error
}

func (s *fakeStore) Save(_ context.Context, rec Recommendation) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, rec)
	return nil
}

func (s *fakeStore) Latest(context.Context) (Recommendation, error) {
	return Recommendation{}, errors.New("not implemented")
}

func (s *fakeStore) Range(context.Context, time.Time, time.Time) ([]Recommendation, error) {
	return nil, errors.New("not implemented")
}

func keysN(n int) catalog.FoodKeys {
	keys := make(catalog.FoodKeys, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("food-%02d", i)
	}
	return keys
}

func TestScorerSortsAndDropsNonPositive(t *testing.T) {
	p := &fakePredictor{out: []float64{0.2, -0.1, 0.9, 0, 0.5, 0.9}}
	s := NewScorer(p, keysN(6))

	got, err := s.Score(context.Background(), []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Scores{
		{Food: "food-02", Score: 0.9},
		{Food: "food-05", Score: 0.9},
		{Food: "food-04", Score: 0.5},
		{Food: "food-00", Score: 0.2},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if len(p.features) != 1 {
		t.Fatalf("expected a single predict call, got %d", len(p.features))
	}
}

func TestScorerOutputMismatch(t *testing.T) {
	s := NewScorer(&fakePredictor{out: []float64{1, 2}}, keysN(3))
	if _, err := s.Score(context.Background(), nil); !errors.Is(err, ErrOutputMismatch) {
		t.Fatalf("expected ErrOutputMismatch, got %v", err)
	}
}

func TestScorerPropagatesModelError(t *testing.T) {
	boom := errors.New("boom")
	s := NewScorer(&fakePredictor{err: boom}, keysN(1))
	if _, err := s.Score(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestFilterProperties(t *testing.T) {
	var scores Scores
	rows := map[string][]meal.Category{}
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("food-%02d", i)
		scores = append(scores, FoodScore{Food: name, Score: float64(30 - i)})
		if i%2 == 0 {
			rows[name] = []meal.Category{meal.Afternoon}
		} else {
			rows[name] = []meal.Category{meal.Morning}
		}
	}
	table := catalog.NewMealTable(rows)

	got := Filter(scores, meal.Afternoon, table)
	if len(got) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(got))
	}

	// Order-preserving subsequence of the input.
	j := 0
	for _, fs := range got {
		for j < len(scores) && scores[j] != fs {
			j++
		}
		if j == len(scores) {
			t.Fatalf("%v is not an in-order element of the input", fs)
		}
		if !table.Valid(fs.Food, meal.Afternoon) {
			t.Fatalf("%s is not valid for afternoon", fs.Food)
		}
		if fs.Score <= 0 {
			t.Fatalf("%s has non-positive score", fs.Food)
		}
	}
}

func TestFilterDropsNonPositiveAndUnknown(t *testing.T) {
	table := catalog.NewMealTable(map[string][]meal.Category{
		"dosa":   {meal.Morning},
		"idli":   {meal.Morning},
		"pakora": {meal.Evening},
	})
	scores := Scores{
		{Food: "dosa", Score: 0.5},
		{Food: "mystery", Score: 0.4},
		{Food: "pakora", Score: 0.3},
		{Food: "idli", Score: -0.1},
	}

	got := Filter(scores, meal.Morning, table)
	if len(got) != 1 || got[0].Food != "dosa" {
		t.Fatalf("expected only dosa, got %v", got)
	}
}

func TestFilterEmpty(t *testing.T) {
	got := Filter(nil, meal.Night, catalog.NewMealTable(nil))
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

// fixture builds a pipeline at 13:00 UTC over 14 foods. Even-indexed foods are
// afternoon foods, odd-indexed ones are morning foods, and every food is valid at night.
func fixture(t *testing.T, w *fakeWeather, store Store) (*Pipeline, *fakePredictor) {
	t.Helper()

	n := 14
	out := make([]float64, n)
	rows := map[string][]meal.Category{}
	keys := keysN(n)
	for i := 0; i < n; i++ {
		out[i] = float64(i+1) / 10
		cats := []meal.Category{meal.Night}
		if i%2 == 0 {
			cats = append(cats, meal.Afternoon)
		} else {
			cats = append(cats, meal.Morning)
		}
		rows[keys[i]] = cats
	}
	out[4] = -0.3

	pred := &fakePredictor{out: out}
	p, err := NewPipeline(Deps{
		Weather:  w,
		Scorer:   NewScorer(pred, keys),
		Table:    catalog.NewMealTable(rows),
		History:  store,
		Clock:    func() time.Time { return time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p, pred
}

func liveWeather() *fakeWeather {
	return &fakeWeather{snap: weather.Snapshot{TempAvg: 22, TempMin: 18, TempMax: 26, Precipitation: 0}}
}

func TestRecommendEndToEnd(t *testing.T) {
	w := liveWeather()
	store := &fakeStore{}
	p, pred := fixture(t, w, store)

	rec, err := p.Recommend(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Meal != meal.Afternoon {
		t.Fatalf("expected afternoon at 13:00, got %s", rec.Meal)
	}
	if rec.TempAvg() != 22 {
		t.Fatalf("expected temp avg 22, got %v", rec.TempAvg())
	}
	if rec.Custom {
		t.Fatalf("default path should not be marked custom")
	}
	if len(rec.Foods) == 0 || len(rec.Foods) > MaxResults {
		t.Fatalf("unexpected result size %d", len(rec.Foods))
	}

	wantFeatures := []float64{22, 18, 26, 0}
	got := pred.features[0]
	for i := range wantFeatures {
		if got[i] != wantFeatures[i] {
			t.Fatalf("expected features %v, got %v", wantFeatures, got)
		}
	}

	prev := rec.Foods[0].Score + 1
	for _, fs := range rec.Foods {
		if fs.Score <= 0 {
			t.Fatalf("%s has non-positive score", fs.Food)
		}
		if fs.Score > prev {
			t.Fatalf("results not sorted descending: %v", rec.Foods)
		}
		prev = fs.Score
		if !p.table.Valid(fs.Food, meal.Afternoon) {
			t.Fatalf("%s is not an afternoon food", fs.Food)
		}
	}
	// 7 afternoon foods, one of which scored negative.
	if len(rec.Foods) != 6 || rec.Foods[0].Food != "food-12" {
		t.Fatalf("unexpected foods %v", rec.Foods)
	}

	if len(store.saved) != 1 || store.saved[0].ID != rec.ID {
		t.Fatalf("expected recommendation to be recorded")
	}
}

func f64(v float64) *float64 { return &v }

func TestRecommendCustomOverrideCombinations(t *testing.T) {
	night := meal.Night

	tests := []struct {
		name         string
		overrides    Overrides
		wantWeather  weather.Snapshot
		wantMeal     meal.Category
		wantLiveCall bool
	}{
		{
			name:         "neither overridden",
			overrides:    Overrides{},
			wantWeather:  weather.Snapshot{TempAvg: 22, TempMin: 18, TempMax: 26},
			wantMeal:     meal.Afternoon,
			wantLiveCall: true,
		},
		{
			name: "weather overridden",
			overrides: Overrides{
				TempAvg: f64(5), TempMin: f64(2), TempMax: f64(8), Precipitation: f64(12.5),
			},
			wantWeather:  weather.Snapshot{TempAvg: 5, TempMin: 2, TempMax: 8, Precipitation: 12.5},
			wantMeal:     meal.Afternoon,
			wantLiveCall: false,
		},
		{
			name:         "meal overridden",
			overrides:    Overrides{Meal: &night},
			wantWeather:  weather.Snapshot{TempAvg: 22, TempMin: 18, TempMax: 26},
			wantMeal:     meal.Night,
			wantLiveCall: true,
		},
		{
			name: "both overridden",
			overrides: Overrides{
				TempAvg: f64(30), TempMin: f64(25), TempMax: f64(35), Precipitation: f64(0), Meal: &night,
			},
			wantWeather:  weather.Snapshot{TempAvg: 30, TempMin: 25, TempMax: 35},
			wantMeal:     meal.Night,
			wantLiveCall: false,
		},
		{
			name:         "partial weather backfilled",
			overrides:    Overrides{TempAvg: f64(-3), Precipitation: f64(4)},
			wantWeather:  weather.Snapshot{TempAvg: -3, TempMin: 18, TempMax: 26, Precipitation: 4},
			wantMeal:     meal.Afternoon,
			wantLiveCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := liveWeather()
			p, pred := fixture(t, w, nil)

			rec, err := p.RecommendCustom(context.Background(), tt.overrides)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Weather != tt.wantWeather {
				t.Fatalf("expected weather %+v, got %+v", tt.wantWeather, rec.Weather)
			}
			if rec.Meal != tt.wantMeal {
				t.Fatalf("expected meal %s, got %s", tt.wantMeal, rec.Meal)
			}
			if (w.calls > 0) != tt.wantLiveCall {
				t.Fatalf("live weather calls = %d, want live call %v", w.calls, tt.wantLiveCall)
			}
			if !rec.Custom {
				t.Fatalf("custom path should be marked custom")
			}

			feats := pred.features[0]
			want := tt.wantWeather.Features()
			for i := range want {
				if feats[i] != want[i] {
					t.Fatalf("model got %v, want %v", feats, want)
				}
			}
			for _, fs := range rec.Foods {
				if !p.table.Valid(fs.Food, tt.wantMeal) {
					t.Fatalf("%s not valid for %s", fs.Food, tt.wantMeal)
				}
			}
		})
	}
}

func TestRecommendWeatherFailure(t *testing.T) {
	w := &fakeWeather{err: weather.ErrWeatherUnavailable}
	p, _ := fixture(t, w, nil)

	if _, err := p.Recommend(context.Background()); !errors.Is(err, weather.ErrWeatherUnavailable) {
		t.Fatalf("expected ErrWeatherUnavailable, got %v", err)
	}
}

func TestRecommendHistoryFailureIsNotFatal(t *testing.T) {
	p, _ := fixture(t, liveWeather(), &fakeStore{err: errors.New("disk full")})
	if _, err := p.Recommend(context.Background()); err != nil {
		t.Fatalf("history failure should not fail the request: %v", err)
	}
}

func TestRecommendUsesConfiguredTimezone(t *testing.T) {
	w := liveWeather()
	p, _ := fixture(t, w, nil)
	// 13:00 UTC is 18:30 in Asia/Kolkata (UTC+5:30).
	p.loc = time.FixedZone("IST", 5*3600+1800)

	rec, err := p.Recommend(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec.Meal != meal.Evening {
		t.Fatalf("expected evening in IST, got %s", rec.Meal)
	}
}

func TestNewPipelineRequiresDeps(t *testing.T) {
	if _, err := NewPipeline(Deps{Table: catalog.NewMealTable(nil)}); err == nil {
		t.Fatalf("expected error without scorer")
	}
	if _, err := NewPipeline(Deps{Scorer: NewScorer(&fakePredictor{}, keysN(1))}); err == nil {
		t.Fatalf("expected error without table")
	}
}
