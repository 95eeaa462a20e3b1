package weather

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/birdwatch-go/internal/conf"
)

func testSettings(provider string) *conf.Settings {
	s := &conf.Settings{}
	s.Main.Latitude = 60.17
	s.Main.Longitude = 24.94
	s.Weather.Provider = provider
	s.Weather.PollInterval = 15
	s.Weather.OpenWeather.Endpoint = "https://api.openweathermap.org/data/2.5/weather"
	s.Weather.OpenWeather.APIKey = "test-key"
	s.Weather.OpenWeather.Units = "metric"
	s.Weather.OpenWeather.Language = "en"
	return s
}

const yrNoBody = `{
  "properties": {
    "timeseries": [
      {
        "time": "2026-08-30T12:00:00Z",
        "data": {
          "instant": {
            "details": {
              "air_pressure_at_sea_level": 1013.2,
              "air_temperature": 18.5,
              "cloud_area_fraction": 40.0,
              "relative_humidity": 62.0,
              "wind_speed": 3.4,
              "wind_from_direction": 180.0
            }
          },
          "next_1_hours": {
            "summary": { "symbol_code": "partlycloudy_day" },
            "details": { "precipitation_amount": 0.0 }
          }
        }
      }
    ]
  }
}`

func TestYrNoFetchWeather(t *testing.T) {
	p := NewYrNoProvider()
	httpmock.ActivateNonDefault(p.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, YrNoBaseURL,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, YrNoUserAgent, req.Header.Get("User-Agent"))
			resp := httpmock.NewStringResponse(http.StatusOK, yrNoBody)
			resp.Header.Set("Last-Modified", "Sun, 30 Aug 2026 11:55:00 GMT")
			return resp, nil
		})

	data, err := p.FetchWeather(context.Background(), testSettings("yrno"))
	require.NoError(t, err)
	assert.InDelta(t, 18.5, data.Temperature.Current, 1e-9)
	assert.Equal(t, 1013, data.Pressure)
	assert.Equal(t, 62, data.Humidity)
	assert.Equal(t, "partlycloudy_day", data.Description)
	assert.Equal(t, "Sun, 30 Aug 2026 11:55:00 GMT", p.lastModified)
}

func TestYrNoNotModifiedReusesCachedData(t *testing.T) {
	p := NewYrNoProvider()
	httpmock.ActivateNonDefault(p.client)
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder(http.MethodGet, YrNoBaseURL,
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				resp := httpmock.NewStringResponse(http.StatusOK, yrNoBody)
				resp.Header.Set("Last-Modified", "Sun, 30 Aug 2026 11:55:00 GMT")
				return resp, nil
			}
			// second request must carry the conditional header
			assert.Equal(t, "Sun, 30 Aug 2026 11:55:00 GMT", req.Header.Get("If-Modified-Since"))
			return httpmock.NewStringResponse(http.StatusNotModified, ""), nil
		})

	settings := testSettings("yrno")
	first, err := p.FetchWeather(context.Background(), settings)
	require.NoError(t, err)

	second, err := p.FetchWeather(context.Background(), settings)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, calls)
}

func TestOpenWeatherFetchWeather(t *testing.T) {
	p := NewOpenWeatherProvider()
	httpmock.ActivateNonDefault(p.client)
	defer httpmock.DeactivateAndReset()

	body := `{
	  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
	  "main": {"temp": 16.2, "feels_like": 15.8, "pressure": 1008, "humidity": 81},
	  "wind": {"speed": 5.1, "deg": 220, "gust": 8.0},
	  "clouds": {"all": 90},
	  "rain": {"1h": 0.4},
	  "dt": 1788091200
	}`
	httpmock.RegisterResponder(http.MethodGet,
		"https://api.openweathermap.org/data/2.5/weather",
		httpmock.NewStringResponder(http.StatusOK, body))

	data, err := p.FetchWeather(context.Background(), testSettings("openweather"))
	require.NoError(t, err)
	assert.InDelta(t, 16.2, data.Temperature.Current, 1e-9)
	assert.Equal(t, 1008, data.Pressure)
	assert.Equal(t, "light rain", data.Description)
	assert.Equal(t, "10d", data.Icon)
	assert.Equal(t, "rain", data.Precipitation.Type)
}

func TestOpenWeatherMissingAPIKey(t *testing.T) {
	t.Parallel()

	settings := testSettings("openweather")
	settings.Weather.OpenWeather.APIKey = ""

	_, err := NewOpenWeatherProvider().FetchWeather(context.Background(), settings)
	assert.Error(t, err)
}

func TestNewServiceInvalidProvider(t *testing.T) {
	t.Parallel()

	_, err := NewService(testSettings("none"), nil)
	assert.Error(t, err)
}

// countingProvider returns a fixed snapshot and counts fetches.
type countingProvider struct {
	fetches int
}

func (p *countingProvider) FetchWeather(context.Context, *conf.Settings) (*WeatherData, error) {
	p.fetches++
	return &WeatherData{Temperature: Temperature{Current: 20}}, nil
}

func TestServiceCurrentUsesCache(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testSettings("yrno"), nil)
	require.NoError(t, err)
	provider := &countingProvider{}
	svc.provider = provider

	first, err := svc.Current(context.Background())
	require.NoError(t, err)
	second, err := svc.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.fetches)
}
