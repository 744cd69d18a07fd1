// Package app assembles the recommender from configuration. Both the HTTP
// server and the CLI build on it.
package app

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/i474232898/weather-food-recommender/internal/catalog"
	"github.com/i474232898/weather-food-recommender/internal/config"
	"github.com/i474232898/weather-food-recommender/internal/geo"
	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/model"
	"github.com/i474232898/weather-food-recommender/internal/recommend"
	"github.com/i474232898/weather-food-recommender/internal/store"
	"github.com/i474232898/weather-food-recommender/internal/weather"
	"github.com/i474232898/weather-food-recommender/internal/weather/providers"
)

// App holds the assembled components.
type App struct {
	Config   *config.AppConfig
	Location weather.Location
	Cache    *weather.FileCache
	History  recommend.Store
	Pipeline *recommend.Pipeline

	closers []io.Closer
}

// Build wires providers, cache, model, catalog, history and pipeline.
func Build(cfg *config.AppConfig) (*App, error) {
	loc := cfg.Location
	if !cfg.HasCoordinates {
		resolved, err := geo.NewResolver(cfg.GeocoderAPIKey).Resolve(loc)
		if err != nil {
			return nil, fmt.Errorf("resolve location: %w", err)
		}
		loc = resolved
	}

	// Shared HTTP client for outbound provider and model calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers with resilience (backoff + circuit breaker), tried in order.
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	// Open-Meteo needs no key and is always the last resort.
	provs = append(provs, providers.NewOpenMeteoProvider(httpClient))

	cache := weather.NewFileCache(cfg.WeatherCachePath, cfg.WeatherCacheMaxAge, loc, weather.NewFailover(provs...))

	predictor, err := loadPredictor(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	keys, err := catalog.LoadFoodKeys(cfg.FoodKeysPath)
	if err != nil {
		return nil, err
	}
	table, err := catalog.LoadMealTable(cfg.MealTablePath)
	if err != nil {
		return nil, err
	}
	if lin, ok := predictor.(*model.Linear); ok && lin.Outputs() != keys.MaxIndex()+1 {
		log.Printf("WARN: model has %d outputs but food keys span %d indices", lin.Outputs(), keys.MaxIndex()+1)
	}
	log.Printf("INFO: loaded %d food keys, %d meal table rows", len(keys), table.Len())

	a := &App{Config: cfg, Location: loc, Cache: cache}

	if cfg.HistoryDBPath != "" {
		sqlStore, err := store.NewSQLiteStore(cfg.HistoryDBPath, cfg.HistoryMax, cfg.HistoryMaxAge)
		if err != nil {
			return nil, err
		}
		a.History = sqlStore
		a.closers = append(a.closers, sqlStore)
	} else {
		a.History = store.NewMemoryStore(cfg.HistoryMax, cfg.HistoryMaxAge)
	}

	a.Pipeline, err = recommend.NewPipeline(recommend.Deps{
		Weather:    cache,
		Scorer:     recommend.NewScorer(predictor, keys),
		Classifier: meal.NewClassifier(meal.Default),
		Table:      table,
		History:    a.History,
		Location:   cfg.Timezone,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func loadPredictor(cfg *config.AppConfig, client *http.Client) (model.Predictor, error) {
	if cfg.ModelURL != "" {
		log.Printf("INFO: using remote model at %s", cfg.ModelURL)
		return model.NewRemote(cfg.ModelURL, cfg.ModelAPIKey, client), nil
	}
	lin, err := model.LoadLinear(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return lin, nil
}

// Close releases resources such as the history database.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Printf("WARN: close: %v", err)
		}
	}
}
