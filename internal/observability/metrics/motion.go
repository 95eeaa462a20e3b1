// Package metrics provides motion engine metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MotionMetrics contains Prometheus metrics for motion engine operations
type MotionMetrics struct {
	registry *prometheus.Registry

	scoresProcessedTotal *prometheus.CounterVec
	motionEventsTotal    *prometheus.CounterVec
	scorerRestartsTotal  *prometheus.CounterVec
	motionDuration       *prometheus.HistogramVec
	currentSceneScore    *prometheus.GaugeVec
}

// NewMotionMetrics creates and registers new motion engine metrics
func NewMotionMetrics(registry *prometheus.Registry) (*MotionMetrics, error) {
	m := &MotionMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MotionMetrics) initMetrics() error {
	m.scoresProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motion_scores_processed_total",
			Help: "Total number of scene-change scores processed",
		},
		[]string{"region"},
	)

	m.motionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motion_events_total",
			Help: "Total number of motion events emitted",
		},
		[]string{"region", "kind"}, // kind: start, end
	)

	m.scorerRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motion_scorer_restarts_total",
			Help: "Total number of scene scorer subprocess restarts",
		},
		[]string{"region"},
	)

	m.motionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "motion_event_duration_seconds",
			Help: "Duration of motion events from start to end",
			// Buckets cover typical motion durations: 1s to ~17min
			Buckets: prometheus.ExponentialBuckets(BucketStart1s, BucketFactor2, BucketCount10),
		},
		[]string{"region"},
	)

	m.currentSceneScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "motion_scene_score",
			Help: "Most recent scene-change score, normalized to 0-100",
		},
		[]string{"region"},
	)

	return nil
}

// Describe implements the Collector interface
func (m *MotionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.scoresProcessedTotal.Describe(ch)
	m.motionEventsTotal.Describe(ch)
	m.scorerRestartsTotal.Describe(ch)
	m.motionDuration.Describe(ch)
	m.currentSceneScore.Describe(ch)
}

// Collect implements the Collector interface
func (m *MotionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.scoresProcessedTotal.Collect(ch)
	m.motionEventsTotal.Collect(ch)
	m.scorerRestartsTotal.Collect(ch)
	m.motionDuration.Collect(ch)
	m.currentSceneScore.Collect(ch)
}

// RecordScore records one processed scene score, normalized to 0-100
func (m *MotionMetrics) RecordScore(region string, normalized float64) {
	m.scoresProcessedTotal.WithLabelValues(region).Inc()
	m.currentSceneScore.WithLabelValues(region).Set(normalized)
}

// RecordMotionEvent records an emitted motion event
func (m *MotionMetrics) RecordMotionEvent(region, kind string) {
	m.motionEventsTotal.WithLabelValues(region, kind).Inc()
}

// RecordScorerRestart records a scene scorer subprocess restart
func (m *MotionMetrics) RecordScorerRestart(region string) {
	m.scorerRestartsTotal.WithLabelValues(region).Inc()
}

// RecordMotionDuration records the duration of a completed motion event
func (m *MotionMetrics) RecordMotionDuration(region string, seconds float64) {
	m.motionDuration.WithLabelValues(region).Observe(seconds)
}
