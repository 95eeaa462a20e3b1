// Package metrics provides sighting tracker metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TrackerMetrics contains Prometheus metrics for sighting tracker operations
type TrackerMetrics struct {
	registry *prometheus.Registry

	sightingsRecordedTotal *prometheus.CounterVec
	saveOperationsTotal    *prometheus.CounterVec
	archiveOperationsTotal *prometheus.CounterVec
	activeSightingsGauge   prometheus.Gauge
	lifeListSizeGauge      prometheus.Gauge
	saveDuration           prometheus.Histogram
}

// NewTrackerMetrics creates and registers new tracker metrics
func NewTrackerMetrics(registry *prometheus.Registry) (*TrackerMetrics, error) {
	m := &TrackerMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TrackerMetrics) initMetrics() error {
	m.sightingsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_sightings_recorded_total",
			Help: "Total number of sightings recorded",
		},
		[]string{"kind"}, // kind: new_species, rare, regular
	)

	m.saveOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_save_operations_total",
			Help: "Total number of state save operations",
		},
		[]string{"status"}, // status: success, error
	)

	m.archiveOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_archive_operations_total",
			Help: "Total number of archival operations",
		},
		[]string{"status"},
	)

	m.activeSightingsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_active_sightings",
		Help: "Number of sightings in the active window",
	})

	m.lifeListSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_life_list_size",
		Help: "Number of distinct species ever recorded",
	})

	m.saveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "tracker_save_duration_seconds",
		Help: "Time taken to persist tracker state",
		// Buckets cover typical file write times: 1ms to ~1s
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
	})

	return nil
}

// Describe implements the Collector interface
func (m *TrackerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.sightingsRecordedTotal.Describe(ch)
	m.saveOperationsTotal.Describe(ch)
	m.archiveOperationsTotal.Describe(ch)
	m.activeSightingsGauge.Describe(ch)
	m.lifeListSizeGauge.Describe(ch)
	m.saveDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *TrackerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.sightingsRecordedTotal.Collect(ch)
	m.saveOperationsTotal.Collect(ch)
	m.archiveOperationsTotal.Collect(ch)
	m.activeSightingsGauge.Collect(ch)
	m.lifeListSizeGauge.Collect(ch)
	m.saveDuration.Collect(ch)
}

// RecordSighting records one ingested sighting
func (m *TrackerMetrics) RecordSighting(kind string) {
	m.sightingsRecordedTotal.WithLabelValues(kind).Inc()
}

// RecordSave records a state save operation
func (m *TrackerMetrics) RecordSave(status string, durationSeconds float64) {
	m.saveOperationsTotal.WithLabelValues(status).Inc()
	m.saveDuration.Observe(durationSeconds)
}

// RecordArchive records an archival operation
func (m *TrackerMetrics) RecordArchive(status string) {
	m.archiveOperationsTotal.WithLabelValues(status).Inc()
}

// UpdateStateGauges updates the active window and life list gauges
func (m *TrackerMetrics) UpdateStateGauges(activeSightings, lifeListSize int) {
	m.activeSightingsGauge.Set(float64(activeSightings))
	m.lifeListSizeGauge.Set(float64(lifeListSize))
}
