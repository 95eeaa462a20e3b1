// Package metrics provides species detector metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DetectorMetrics contains Prometheus metrics for species detector operations
type DetectorMetrics struct {
	registry *prometheus.Registry

	cyclesTotal         *prometheus.CounterVec
	detectionsTotal     *prometheus.CounterVec
	classifierRunsTotal *prometheus.CounterVec
	droppedRowsTotal    prometheus.Counter
	cycleDuration       *prometheus.HistogramVec
	sampleCaptureErrors prometheus.Counter
	detectionConfidence prometheus.Histogram
}

// NewDetectorMetrics creates and registers new detector metrics
func NewDetectorMetrics(registry *prometheus.Registry) (*DetectorMetrics, error) {
	m := &DetectorMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DetectorMetrics) initMetrics() error {
	m.cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_cycles_total",
			Help: "Total number of analysis cycles",
		},
		[]string{"status"}, // status: success, error
	)

	m.detectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_detections_total",
			Help: "Total number of confidence-filtered detections",
		},
		[]string{"species"},
	)

	m.classifierRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_classifier_runs_total",
			Help: "Total number of classifier invocations",
		},
		[]string{"invocation", "status"}, // invocation: module, script
	)

	m.droppedRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "detector_dropped_rows_total",
		Help: "Total number of malformed classifier output rows dropped",
	})

	m.cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "detector_cycle_duration_seconds",
			Help: "Time taken for one full analysis cycle",
			// Buckets cover capture plus classification: 1s to ~17min
			Buckets: prometheus.ExponentialBuckets(BucketStart1s, BucketFactor2, BucketCount10),
		},
		[]string{"status"},
	)

	m.sampleCaptureErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "detector_sample_capture_errors_total",
		Help: "Total number of audio sample capture failures",
	})

	m.detectionConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "detector_detection_confidence",
		Help:    "Confidence distribution of accepted detections",
		Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
	})

	return nil
}

// Describe implements the Collector interface
func (m *DetectorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.cyclesTotal.Describe(ch)
	m.detectionsTotal.Describe(ch)
	m.classifierRunsTotal.Describe(ch)
	m.droppedRowsTotal.Describe(ch)
	m.cycleDuration.Describe(ch)
	m.sampleCaptureErrors.Describe(ch)
	m.detectionConfidence.Describe(ch)
}

// Collect implements the Collector interface
func (m *DetectorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.cyclesTotal.Collect(ch)
	m.detectionsTotal.Collect(ch)
	m.classifierRunsTotal.Collect(ch)
	m.droppedRowsTotal.Collect(ch)
	m.cycleDuration.Collect(ch)
	m.sampleCaptureErrors.Collect(ch)
	m.detectionConfidence.Collect(ch)
}

// RecordCycle records one completed analysis cycle
func (m *DetectorMetrics) RecordCycle(status string, durationSeconds float64) {
	m.cyclesTotal.WithLabelValues(status).Inc()
	m.cycleDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordDetection records one accepted detection
func (m *DetectorMetrics) RecordDetection(species string, confidence float64) {
	m.detectionsTotal.WithLabelValues(species).Inc()
	m.detectionConfidence.Observe(confidence)
}

// RecordClassifierRun records one classifier invocation attempt
func (m *DetectorMetrics) RecordClassifierRun(invocation, status string) {
	m.classifierRunsTotal.WithLabelValues(invocation, status).Inc()
}

// RecordDroppedRows records malformed output rows dropped during parsing
func (m *DetectorMetrics) RecordDroppedRows(count int) {
	m.droppedRowsTotal.Add(float64(count))
}

// RecordCaptureError records an audio sample capture failure
func (m *DetectorMetrics) RecordCaptureError() {
	m.sampleCaptureErrors.Inc()
}
