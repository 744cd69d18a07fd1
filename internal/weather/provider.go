package weather

import (
	"context"
	"errors"
)

// ErrWeatherUnavailable is returned when no provider succeeded and there is no cached document to fall back on.
var ErrWeatherUnavailable = errors.New("weather unavailable")

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
//
// Fetch returns a current-weather document in the OpenWeatherMap shape
// ({"main":{"temp","temp_min","temp_max"},"rain":{"1h","3h"}}). Providers with
// a different payload translate into that shape so the cache file always holds
// one format.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) ([]byte, error)
}
