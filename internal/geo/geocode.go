// Package geo resolves a configured city to coordinates once at startup.
package geo

import (
	"fmt"
	"log"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-food-recommender/internal/weather"
)

// Resolver wraps the Google geocoding client. The client keeps its key in a
// package variable, so calls are serialized.
type Resolver struct {
	apiKey  string
	geocode func(geocoder.Address) (geocoder.Location, error)
}

var mu sync.Mutex

// NewResolver returns a Resolver backed by kelvins/geocoder.
func NewResolver(apiKey string) *Resolver {
	return &Resolver{apiKey: apiKey, geocode: geocoder.Geocoding}
}

// Resolve fills in Lat/Lon for loc from its City and Country.
func (r *Resolver) Resolve(loc weather.Location) (weather.Location, error) {
	if loc.City == "" {
		return loc, fmt.Errorf("geocoding requires a city")
	}
	if r.apiKey == "" {
		return loc, fmt.Errorf("geocoder api key is not configured")
	}

	mu.Lock()
	geocoder.ApiKey = r.apiKey
	res, err := r.geocode(geocoder.Address{City: loc.City, Country: loc.Country})
	mu.Unlock()
	if err != nil {
		return loc, fmt.Errorf("geocode %s,%s: %w", loc.City, loc.Country, err)
	}

	loc.Lat, loc.Lon = res.Latitude, res.Longitude
	log.Printf("INFO: geocoded %s,%s to %s", loc.City, loc.Country, loc.Key())
	return loc, nil
}
