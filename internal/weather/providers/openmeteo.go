package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-food-recommender/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// No API key is needed, which makes it the last-resort source.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Provider = (*OpenMeteoProvider)(nil)

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: defaultHTTPConfig(client),
		circuit: newCircuit("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("current", "temperature_2m,precipitation")
		values.Set("daily", "temperature_2m_max,temperature_2m_min")
		values.Set("forecast_days", "1")
		values.Set("timezone", "auto")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	body, err := fetchWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Current struct {
			Temperature   float64 `json:"temperature_2m"`
			Precipitation float64 `json:"precipitation"`
		} `json:"current"`
		Daily struct {
			TempMax []float64 `json:"temperature_2m_max"`
			TempMin []float64 `json:"temperature_2m_min"`
		} `json:"daily"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo payload: %w", err)
	}

	tempMin, tempMax := payload.Current.Temperature, payload.Current.Temperature
	if len(payload.Daily.TempMin) > 0 {
		tempMin = payload.Daily.TempMin[0]
	}
	if len(payload.Daily.TempMax) > 0 {
		tempMax = payload.Daily.TempMax[0]
	}

	return weather.Document(payload.Current.Temperature, tempMin, tempMax, payload.Current.Precipitation)
}
