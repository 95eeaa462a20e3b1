package weather

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

const (
	YrNoBaseURL    = "https://api.met.no/weatherapi/locationforecast/2.0/complete"
	YrNoUserAgent  = "BirdWatch-Go https://github.com/tphakala/birdwatch-go"
	YrNoMaxRetries = 3
	YrNoRetryDelay = 2 * time.Second

	yrNoRequestTimeout = 10 * time.Second
)

// YrResponse represents the structure of the Yr.no API response
type YrResponse struct {
	Properties struct {
		Timeseries []struct {
			Time time.Time `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirPressure    float64 `json:"air_pressure_at_sea_level"`
						AirTemperature float64 `json:"air_temperature"`
						CloudArea      float64 `json:"cloud_area_fraction"`
						RelHumidity    float64 `json:"relative_humidity"`
						WindSpeed      float64 `json:"wind_speed"`
						WindDirection  float64 `json:"wind_from_direction"`
						WindGust       float64 `json:"wind_speed_of_gust"`
					} `json:"details"`
				} `json:"instant"`
				Next1Hours struct {
					Summary struct {
						SymbolCode string `json:"symbol_code"`
					} `json:"summary"`
					Details struct {
						PrecipitationAmount float64 `json:"precipitation_amount"`
					} `json:"details"`
				} `json:"next_1_hours"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

// YrNoProvider fetches conditions from the free met.no forecast API. It
// honors the API's conditional-request contract: requests carry
// If-Modified-Since, and a 304 reuses the previously decoded response.
type YrNoProvider struct {
	client *http.Client

	mu           sync.Mutex
	lastModified string
	lastData     *WeatherData
}

// NewYrNoProvider returns a yr.no provider.
func NewYrNoProvider() *YrNoProvider {
	return &YrNoProvider{
		client: &http.Client{Timeout: yrNoRequestTimeout},
	}
}

// FetchWeather implements the Provider interface for YrNoProvider
func (p *YrNoProvider) FetchWeather(ctx context.Context, settings *conf.Settings) (*WeatherData, error) {
	url := fmt.Sprintf("%s?lat=%.4f&lon=%.4f", YrNoBaseURL,
		settings.Main.Latitude,
		settings.Main.Longitude)

	var lastErr error
	for attempt := 0; attempt < YrNoMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(YrNoRetryDelay):
			}
		}

		data, err := p.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		weatherLogger.Debug("yr.no fetch attempt failed", "attempt", attempt+1, "error", err)
	}

	return nil, errors.New(lastErr).
		Component("weather").
		Category(errors.CategoryNetwork).
		Context("provider", "yrno").
		Context("operation", "fetch_weather").
		Build()
}

func (p *YrNoProvider) fetchOnce(ctx context.Context, url string) (*WeatherData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", YrNoUserAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	p.mu.Lock()
	if p.lastModified != "" {
		req.Header.Set("If-Modified-Since", p.lastModified)
	}
	p.mu.Unlock()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching weather data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		p.mu.Lock()
		cached := p.lastData
		p.mu.Unlock()
		if cached != nil {
			return cached, nil
		}
		return nil, fmt.Errorf("got 304 with no cached weather data")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 response: %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error creating gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var response YrResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling weather data: %w", err)
	}
	if len(response.Properties.Timeseries) == 0 {
		return nil, fmt.Errorf("no weather data available")
	}

	current := response.Properties.Timeseries[0]
	data := &WeatherData{
		Time: current.Time,
		Temperature: Temperature{
			Current: current.Data.Instant.Details.AirTemperature,
		},
		Wind: Wind{
			Speed: current.Data.Instant.Details.WindSpeed,
			Deg:   int(current.Data.Instant.Details.WindDirection),
			Gust:  current.Data.Instant.Details.WindGust,
		},
		Precipitation: Precipitation{
			Amount: current.Data.Next1Hours.Details.PrecipitationAmount,
		},
		Clouds:      int(current.Data.Instant.Details.CloudArea),
		Pressure:    int(current.Data.Instant.Details.AirPressure),
		Humidity:    int(current.Data.Instant.Details.RelHumidity),
		Description: current.Data.Next1Hours.Summary.SymbolCode,
		Icon:        current.Data.Next1Hours.Summary.SymbolCode,
	}

	p.mu.Lock()
	p.lastModified = resp.Header.Get("Last-Modified")
	p.lastData = data
	p.mu.Unlock()

	return data, nil
}
