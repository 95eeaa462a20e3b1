// Package weather fetches current conditions for sighting enrichment.
// Providers implement a common interface and are selected by configuration;
// a TTL cache in front of the provider keeps enrichment cheap during busy
// periods.
package weather

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/logging"
	"github.com/tphakala/birdwatch-go/internal/observability/metrics"
)

// Package-level logger for weather service
var (
	weatherLogger   *slog.Logger
	weatherLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	weatherLevelVar.Set(slog.LevelInfo)

	weatherLogger, _, err = logging.NewFileLogger("logs/weather.log", "weather", weatherLevelVar)
	if err != nil {
		logging.Error("Failed to initialize weather file logger", "error", err)
		weatherLogger = logging.DiscardLogger("weather", weatherLevelVar)
	}
}

// Provider represents a weather data provider interface
type Provider interface {
	FetchWeather(ctx context.Context, settings *conf.Settings) (*WeatherData, error)
}

// WeatherData represents the common structure for weather data across providers
type WeatherData struct {
	Time          time.Time
	Temperature   Temperature
	Wind          Wind
	Precipitation Precipitation
	Clouds        int
	Pressure      int
	Humidity      int
	Description   string
	Icon          string
}

type Temperature struct {
	Current   float64
	FeelsLike float64
}

type Wind struct {
	Speed float64
	Deg   int
	Gust  float64
}

type Precipitation struct {
	Amount float64
	Type   string // rain, snow, etc.
}

// cacheKey is the single current-conditions cache entry.
const cacheKey = "current"

// Service serves current conditions through a TTL cache in front of the
// configured provider.
type Service struct {
	provider Provider
	cache    *gocache.Cache
	settings *conf.Settings
	metrics  *metrics.WeatherMetrics
}

// NewService creates a weather service for the configured provider.
// Provider "none" is rejected, the caller should skip enrichment entirely.
func NewService(settings *conf.Settings, weatherMetrics *metrics.WeatherMetrics) (*Service, error) {
	var provider Provider

	switch settings.Weather.Provider {
	case "yrno":
		provider = NewYrNoProvider()
	case "openweather":
		provider = NewOpenWeatherProvider()
	default:
		return nil, errors.Newf("invalid weather provider: %s", settings.Weather.Provider).
			Component("weather").
			Category(errors.CategoryConfiguration).
			Context("provider", settings.Weather.Provider).
			Build()
	}

	ttl := time.Duration(settings.Weather.PollInterval) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Service{
		provider: provider,
		cache:    gocache.New(ttl, 2*ttl),
		settings: settings,
		metrics:  weatherMetrics,
	}, nil
}

// Current returns the current conditions, consulting the cache first.
func (s *Service) Current(ctx context.Context) (*WeatherData, error) {
	if cached, found := s.cache.Get(cacheKey); found {
		if s.metrics != nil {
			s.metrics.RecordCacheLookup("hit")
		}
		return cached.(*WeatherData), nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup("miss")
	}

	start := time.Now()
	data, err := s.provider.FetchWeather(ctx, s.settings)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordWeatherFetch(s.settings.Weather.Provider, "error", time.Since(start).Seconds())
			s.metrics.RecordWeatherFetchError(s.settings.Weather.Provider, fetchErrorType(err))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordWeatherFetch(s.settings.Weather.Provider, "success", time.Since(start).Seconds())
		s.metrics.UpdateWeatherGauges(data.Temperature.Current, float64(data.Humidity), float64(data.Pressure), data.Wind.Speed)
	}

	s.cache.Set(cacheKey, data, gocache.DefaultExpiration)
	return data, nil
}

// fetchErrorType extracts the error category label for metrics.
func fetchErrorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return "unknown"
}
