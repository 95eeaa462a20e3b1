// Package metrics provides weather service metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WeatherMetrics contains Prometheus metrics for weather service operations
type WeatherMetrics struct {
	registry *prometheus.Registry

	weatherFetchsTotal      *prometheus.CounterVec
	weatherFetchErrorsTotal *prometheus.CounterVec
	weatherFetchDuration    *prometheus.HistogramVec
	weatherCacheHitsTotal   *prometheus.CounterVec

	weatherTemperatureGauge prometheus.Gauge
	weatherHumidityGauge    prometheus.Gauge
	weatherPressureGauge    prometheus.Gauge
	weatherWindSpeedGauge   prometheus.Gauge
}

// NewWeatherMetrics creates and registers new weather metrics
func NewWeatherMetrics(registry *prometheus.Registry) (*WeatherMetrics, error) {
	m := &WeatherMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *WeatherMetrics) initMetrics() error {
	m.weatherFetchsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetches_total",
			Help: "Total number of weather data fetch operations",
		},
		[]string{"provider", "status"}, // status: success, error
	)

	m.weatherFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetch_errors_total",
			Help: "Total number of weather fetch errors",
		},
		[]string{"provider", "error_type"},
	)

	m.weatherFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "weather_fetch_duration_seconds",
			Help: "Time taken to fetch weather data",
			// Buckets cover typical weather API response times: 100ms to ~100s
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"provider"},
	)

	m.weatherCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_hits_total",
			Help: "Total number of weather cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	m.weatherTemperatureGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_temperature_celsius",
		Help: "Current weather temperature in Celsius",
	})

	m.weatherHumidityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_humidity_percentage",
		Help: "Current weather humidity percentage",
	})

	m.weatherPressureGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_pressure_hpa",
		Help: "Current weather pressure in hPa",
	})

	m.weatherWindSpeedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_wind_speed_mps",
		Help: "Current weather wind speed in meters per second",
	})

	return nil
}

// Describe implements the Collector interface
func (m *WeatherMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.weatherFetchsTotal.Describe(ch)
	m.weatherFetchErrorsTotal.Describe(ch)
	m.weatherFetchDuration.Describe(ch)
	m.weatherCacheHitsTotal.Describe(ch)
	m.weatherTemperatureGauge.Describe(ch)
	m.weatherHumidityGauge.Describe(ch)
	m.weatherPressureGauge.Describe(ch)
	m.weatherWindSpeedGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *WeatherMetrics) Collect(ch chan<- prometheus.Metric) {
	m.weatherFetchsTotal.Collect(ch)
	m.weatherFetchErrorsTotal.Collect(ch)
	m.weatherFetchDuration.Collect(ch)
	m.weatherCacheHitsTotal.Collect(ch)
	m.weatherTemperatureGauge.Collect(ch)
	m.weatherHumidityGauge.Collect(ch)
	m.weatherPressureGauge.Collect(ch)
	m.weatherWindSpeedGauge.Collect(ch)
}

// RecordWeatherFetch records a weather fetch operation
func (m *WeatherMetrics) RecordWeatherFetch(provider, status string, durationSeconds float64) {
	m.weatherFetchsTotal.WithLabelValues(provider, status).Inc()
	m.weatherFetchDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordWeatherFetchError records a weather fetch error
func (m *WeatherMetrics) RecordWeatherFetchError(provider, errorType string) {
	m.weatherFetchErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordCacheLookup records a weather cache lookup result
func (m *WeatherMetrics) RecordCacheLookup(result string) {
	m.weatherCacheHitsTotal.WithLabelValues(result).Inc()
}

// UpdateWeatherGauges updates the current conditions gauges
func (m *WeatherMetrics) UpdateWeatherGauges(temperature, humidity, pressure, windSpeed float64) {
	m.weatherTemperatureGauge.Set(temperature)
	m.weatherHumidityGauge.Set(humidity)
	m.weatherPressureGauge.Set(pressure)
	m.weatherWindSpeedGauge.Set(windSpeed)
}
