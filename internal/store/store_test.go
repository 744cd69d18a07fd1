package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/recommend"
	"github.com/i474232898/weather-food-recommender/internal/weather"
)

var base = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func sampleRec(offset time.Duration, m meal.Category) recommend.Recommendation {
	return recommend.Recommendation{
		ID:          uuid.New(),
		GeneratedAt: base.Add(offset),
		Foods: recommend.Scores{
			{Food: "Biryani", Score: 0.9},
			{Food: "Samosa", Score: 0.4},
		},
		Weather: weather.Snapshot{
			TempAvg: 22, TempMin: 18, TempMax: 26, Precipitation: 0.5,
			FetchedAt: base.Add(offset - time.Minute),
			Stale:     true,
		},
		Meal:   m,
		Custom: true,
	}
}

type storeFactory func(t *testing.T, maxHistory int, maxAge time.Duration) recommend.Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, maxHistory int, maxAge time.Duration) recommend.Store {
			s := NewMemoryStore(maxHistory, maxAge)
			s.now = func() time.Time { return base.Add(time.Hour) }
			return s
		},
		"sqlite": func(t *testing.T, maxHistory int, maxAge time.Duration) recommend.Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), maxHistory, maxAge)
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			s.now = func() time.Time { return base.Add(time.Hour) }
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreLatestAndRange(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, 0, 0)

			if _, err := s.Latest(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on empty store, got %v", err)
			}

			first := sampleRec(0, meal.Afternoon)
			second := sampleRec(10*time.Minute, meal.Evening)
			third := sampleRec(20*time.Minute, meal.Night)
			for _, r := range []recommend.Recommendation{first, second, third} {
				if err := s.Save(ctx, r); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}

			latest, err := s.Latest(ctx)
			if err != nil {
				t.Fatalf("Latest: %v", err)
			}
			assertSameRec(t, third, latest)

			got, err := s.Range(ctx, base.Add(5*time.Minute), base.Add(20*time.Minute))
			if err != nil {
				t.Fatalf("Range: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 recommendations, got %d", len(got))
			}
			assertSameRec(t, second, got[0])
			assertSameRec(t, third, got[1])

			if _, err := s.Range(ctx, base.Add(time.Hour), base.Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for empty range, got %v", err)
			}
		})
	}
}

func TestStoreRetentionByCount(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, 2, 0)

			var recs []recommend.Recommendation
			for i := 0; i < 4; i++ {
				r := sampleRec(time.Duration(i)*time.Minute, meal.Afternoon)
				recs = append(recs, r)
				if err := s.Save(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			got, err := s.Range(ctx, base.Add(-time.Hour), base.Add(time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 kept, got %d", len(got))
			}
			assertSameRec(t, recs[2], got[0])
			assertSameRec(t, recs[3], got[1])
		})
	}
}

func TestStoreRetentionByAge(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			// now is base+1h, so anything before base+30m is expired.
			s := newStore(t, 0, 30*time.Minute)

			old := sampleRec(0, meal.Afternoon)
			fresh := sampleRec(45*time.Minute, meal.Evening)
			if err := s.Save(ctx, old); err != nil {
				t.Fatal(err)
			}
			if err := s.Save(ctx, fresh); err != nil {
				t.Fatal(err)
			}

			got, err := s.Range(ctx, base.Add(-time.Hour), base.Add(2*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 {
				t.Fatalf("expected only the fresh recommendation, got %d", len(got))
			}
			assertSameRec(t, fresh, got[0])
		})
	}
}

func assertSameRec(t *testing.T, want, got recommend.Recommendation) {
	t.Helper()

	if got.ID != want.ID {
		t.Fatalf("id: want %s, got %s", want.ID, got.ID)
	}
	if !got.GeneratedAt.Equal(want.GeneratedAt) {
		t.Fatalf("generatedAt: want %s, got %s", want.GeneratedAt, got.GeneratedAt)
	}
	if got.Meal != want.Meal || got.Custom != want.Custom {
		t.Fatalf("meal/custom: want %s/%v, got %s/%v", want.Meal, want.Custom, got.Meal, got.Custom)
	}
	if got.Weather.TempAvg != want.Weather.TempAvg ||
		got.Weather.TempMin != want.Weather.TempMin ||
		got.Weather.TempMax != want.Weather.TempMax ||
		got.Weather.Precipitation != want.Weather.Precipitation ||
		got.Weather.Stale != want.Weather.Stale ||
		!got.Weather.FetchedAt.Equal(want.Weather.FetchedAt) {
		t.Fatalf("weather: want %+v, got %+v", want.Weather, got.Weather)
	}
	if len(got.Foods) != len(want.Foods) {
		t.Fatalf("foods: want %v, got %v", want.Foods, got.Foods)
	}
	for i := range want.Foods {
		if got.Foods[i] != want.Foods[i] {
			t.Fatalf("foods[%d]: want %v, got %v", i, want.Foods[i], got.Foods[i])
		}
	}
}
