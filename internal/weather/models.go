package weather

import (
	"fmt"
	"time"
)

// Location is the place whose weather drives recommendations.
// Lat/Lon are required for fetching; City/Country are informational or used for geocoding.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Snapshot is the weather view fed into the model.
// Values default to 0 when the source document does not carry them.
type Snapshot struct {
	TempAvg       float64   `json:"tempAvg"`
	TempMin       float64   `json:"tempMin"`
	TempMax       float64   `json:"tempMax"`
	Precipitation float64   `json:"precipitation"`
	FetchedAt     time.Time `json:"fetchedAt"`

	// Stale is set when the cache had expired and the refresh failed.
	Stale bool `json:"stale,omitempty"`
}

// Features returns the model input vector in the order the model was trained on.
func (s Snapshot) Features() []float64 {
	return []float64{s.TempAvg, s.TempMin, s.TempMax, s.Precipitation}
}
