package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-food-recommender/internal/weather"
)

// Delhi, the location the bundled model was trained on.
const (
	defaultLat = 28.7041
	defaultLon = 77.1025
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// Location whose weather drives recommendations.
	Location weather.Location
	// HasCoordinates is false when only a city was configured and coordinates must be geocoded.
	HasCoordinates bool

	// Weather cache file and how long it is served before a refresh.
	WeatherCachePath   string
	WeatherCacheMaxAge time.Duration

	// RefreshInterval controls how often the scheduler warms the weather cache (0 = disabled).
	RefreshInterval time.Duration

	// Timeout for outbound HTTP calls.
	HTTPTimeout time.Duration

	// Model artifact (local) or inference endpoint (remote). ModelURL wins when both are set.
	ModelPath   string
	ModelURL    string
	ModelAPIKey string

	FoodKeysPath  string
	MealTablePath string

	// Recommendation history. Empty HistoryDBPath keeps history in memory.
	HistoryDBPath string
	HistoryMax    int           // max number of recommendations kept (0 = unlimited)
	HistoryMaxAge time.Duration // max age of recommendations (0 = unlimited)

	// Timezone used to derive the meal period from the current hour.
	Timezone *time.Location

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	loc, hasCoords, err := loadLocation()
	if err != nil {
		return nil, err
	}
	cfg.Location = loc
	cfg.HasCoordinates = hasCoords

	cfg.WeatherCachePath = getenvDefault("WEATHER_CACHE_PATH", "data/realtime_weather.json")

	if cfg.WeatherCacheMaxAge, err = getenvDuration("WEATHER_CACHE_MAX_AGE", "30m"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "25m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.ModelPath = getenvDefault("MODEL_PATH", "model/linear.json")
	cfg.ModelURL = os.Getenv("MODEL_URL")
	cfg.ModelAPIKey = os.Getenv("MODEL_API_KEY")

	cfg.FoodKeysPath = getenvDefault("FOOD_KEYS_PATH", "data/food_keys.yaml")
	cfg.MealTablePath = getenvDefault("MEAL_TABLE_PATH", "data/food_meal.csv")

	cfg.HistoryDBPath = os.Getenv("HISTORY_DB_PATH")
	cfg.HistoryMax = getenvInt("HISTORY_MAX", 500)
	if cfg.HistoryMaxAge, err = getenvDuration("HISTORY_MAX_AGE", "168h"); err != nil {
		return nil, err
	}

	tzName := getenvDefault("TIMEZONE", "Local")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// loadLocation reads WEATHER_LAT/WEATHER_LON, falling back to Delhi unless a
// city is configured for geocoding.
func loadLocation() (weather.Location, bool, error) {
	loc := weather.Location{
		City:    os.Getenv("WEATHER_LOCATION_CITY"),
		Country: os.Getenv("WEATHER_LOCATION_COUNTRY"),
	}

	latStr, lonStr := os.Getenv("WEATHER_LAT"), os.Getenv("WEATHER_LON")
	if (latStr == "") != (lonStr == "") {
		return loc, false, fmt.Errorf("WEATHER_LAT and WEATHER_LON must be set together")
	}

	if latStr == "" {
		if loc.City != "" {
			return loc, false, nil
		}
		loc.Lat, loc.Lon = defaultLat, defaultLon
		return loc, true, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return loc, false, fmt.Errorf("invalid WEATHER_LAT %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return loc, false, fmt.Errorf("invalid WEATHER_LON %q", lonStr)
	}
	loc.Lat, loc.Lon = lat, lon
	return loc, true, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
