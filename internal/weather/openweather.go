package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

const (
	OpenWeatherRequestTimeout = 10 * time.Second
	OpenWeatherUserAgent      = "BirdWatch-Go"
)

// OpenWeatherResponse represents the structure of weather data returned by the OpenWeather API
type OpenWeatherResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Dt int64 `json:"dt"`
}

// OpenWeatherProvider fetches conditions from the OpenWeather API.
type OpenWeatherProvider struct {
	client *http.Client
}

// NewOpenWeatherProvider returns an OpenWeather provider.
func NewOpenWeatherProvider() *OpenWeatherProvider {
	return &OpenWeatherProvider{
		client: &http.Client{Timeout: OpenWeatherRequestTimeout},
	}
}

// FetchWeather implements the Provider interface for OpenWeatherProvider
func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, settings *conf.Settings) (*WeatherData, error) {
	ow := &settings.Weather.OpenWeather
	if ow.APIKey == "" {
		return nil, errors.Newf("OpenWeather API key not configured").
			Component("weather").
			Category(errors.CategoryConfiguration).
			Context("provider", "openweather").
			Build()
	}

	url := fmt.Sprintf("%s?lat=%f&lon=%f&appid=%s&units=%s&lang=%s",
		ow.Endpoint,
		settings.Main.Latitude,
		settings.Main.Longitude,
		ow.APIKey,
		ow.Units,
		ow.Language,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", OpenWeatherUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component("weather").
			Category(errors.CategoryNetwork).
			Context("provider", "openweather").
			Context("operation", "fetch_weather").
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("received non-200 response: %d", resp.StatusCode).
			Component("weather").
			Category(errors.CategoryNetwork).
			Context("provider", "openweather").
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var response OpenWeatherResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling weather data: %w", err)
	}

	data := &WeatherData{
		Time: time.Unix(response.Dt, 0),
		Temperature: Temperature{
			Current:   response.Main.Temp,
			FeelsLike: response.Main.FeelsLike,
		},
		Wind: Wind{
			Speed: response.Wind.Speed,
			Deg:   response.Wind.Deg,
			Gust:  response.Wind.Gust,
		},
		Clouds:   response.Clouds.All,
		Pressure: response.Main.Pressure,
		Humidity: response.Main.Humidity,
	}

	switch {
	case response.Rain.OneHour > 0:
		data.Precipitation = Precipitation{Amount: response.Rain.OneHour, Type: "rain"}
	case response.Snow.OneHour > 0:
		data.Precipitation = Precipitation{Amount: response.Snow.OneHour, Type: "snow"}
	}

	if len(response.Weather) > 0 {
		data.Description = response.Weather[0].Description
		data.Icon = response.Weather[0].Icon
	}

	return data, nil
}
