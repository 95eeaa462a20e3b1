// Package metrics provides MQTT client metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics contains Prometheus metrics for MQTT operations
type MQTTMetrics struct {
	registry *prometheus.Registry

	connectAttemptsTotal *prometheus.CounterVec
	messagesPublished    *prometheus.CounterVec
	publishErrorsTotal   *prometheus.CounterVec
	publishDuration      prometheus.Histogram
	connectionStatus     prometheus.Gauge
}

// NewMQTTMetrics creates and registers new MQTT metrics
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MQTTMetrics) initMetrics() error {
	m.connectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqtt_connect_attempts_total",
			Help: "Total number of MQTT broker connection attempts",
		},
		[]string{"status"}, // status: success, error
	)

	m.messagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqtt_messages_published_total",
			Help: "Total number of messages published",
		},
		[]string{"topic", "status"},
	)

	m.publishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mqtt_publish_errors_total",
			Help: "Total number of publish errors",
		},
		[]string{"error_type"},
	)

	m.publishDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "mqtt_publish_duration_seconds",
		Help: "Time taken to publish a message",
		// Buckets cover typical broker round trips: 1ms to ~1s
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
	})

	m.connectionStatus = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mqtt_connection_status",
		Help: "Current MQTT connection status (1 connected, 0 disconnected)",
	})

	return nil
}

// Describe implements the Collector interface
func (m *MQTTMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.connectAttemptsTotal.Describe(ch)
	m.messagesPublished.Describe(ch)
	m.publishErrorsTotal.Describe(ch)
	m.publishDuration.Describe(ch)
	m.connectionStatus.Describe(ch)
}

// Collect implements the Collector interface
func (m *MQTTMetrics) Collect(ch chan<- prometheus.Metric) {
	m.connectAttemptsTotal.Collect(ch)
	m.messagesPublished.Collect(ch)
	m.publishErrorsTotal.Collect(ch)
	m.publishDuration.Collect(ch)
	m.connectionStatus.Collect(ch)
}

// RecordConnectAttempt records an MQTT connection attempt
func (m *MQTTMetrics) RecordConnectAttempt(status string) {
	m.connectAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordMessagePublished records a published message
func (m *MQTTMetrics) RecordMessagePublished(topic, status string, durationSeconds float64) {
	m.messagesPublished.WithLabelValues(topic, status).Inc()
	m.publishDuration.Observe(durationSeconds)
}

// RecordPublishError records a publish error
func (m *MQTTMetrics) RecordPublishError(errorType string) {
	m.publishErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateConnectionStatus updates the connection status gauge
func (m *MQTTMetrics) UpdateConnectionStatus(connected bool) {
	if connected {
		m.connectionStatus.Set(1)
	} else {
		m.connectionStatus.Set(0)
	}
}
