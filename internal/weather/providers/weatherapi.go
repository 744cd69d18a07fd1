package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/weather-food-recommender/internal/weather"
	"github.com/sony/gobreaker"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// It reads the one-day forecast endpoint so daily min/max are available.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Provider = (*WeatherAPIProvider)(nil)

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
		values.Set("days", "1")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	body, err := fetchWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Current struct {
			TempC    float64 `json:"temp_c"`
			PrecipMm float64 `json:"precip_mm"`
		} `json:"current"`
		Forecast struct {
			ForecastDay []struct {
				Day struct {
					MaxTempC float64 `json:"maxtemp_c"`
					MinTempC float64 `json:"mintemp_c"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode weatherapi payload: %w", err)
	}

	tempMin, tempMax := payload.Current.TempC, payload.Current.TempC
	if days := payload.Forecast.ForecastDay; len(days) > 0 {
		tempMin = days[0].Day.MinTempC
		tempMax = days[0].Day.MaxTempC
	}

	return weather.Document(payload.Current.TempC, tempMin, tempMax, payload.Current.PrecipMm)
}
