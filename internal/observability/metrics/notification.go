// Package metrics provides notification service metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics contains Prometheus metrics for notification operations
type NotificationMetrics struct {
	registry *prometheus.Registry

	notificationsCreatedTotal *prometheus.CounterVec
	pushDeliveriesTotal       *prometheus.CounterVec
	rateLimitedTotal          prometheus.Counter
	pushDuration              prometheus.Histogram
}

// NewNotificationMetrics creates and registers new notification metrics
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *NotificationMetrics) initMetrics() error {
	m.notificationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type", "priority"},
	)

	m.pushDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_push_deliveries_total",
			Help: "Total number of push delivery attempts",
		},
		[]string{"status"}, // status: success, error
	)

	m.rateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_rate_limited_total",
		Help: "Total number of notifications dropped by rate limiting",
	})

	m.pushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "notification_push_duration_seconds",
		Help: "Time taken to deliver a push notification",
		// Buckets cover typical push service response times: 100ms to ~100s
		Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
	})

	return nil
}

// Describe implements the Collector interface
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.notificationsCreatedTotal.Describe(ch)
	m.pushDeliveriesTotal.Describe(ch)
	m.rateLimitedTotal.Describe(ch)
	m.pushDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.notificationsCreatedTotal.Collect(ch)
	m.pushDeliveriesTotal.Collect(ch)
	m.rateLimitedTotal.Collect(ch)
	m.pushDuration.Collect(ch)
}

// RecordNotificationCreated records a created notification
func (m *NotificationMetrics) RecordNotificationCreated(notificationType, priority string) {
	m.notificationsCreatedTotal.WithLabelValues(notificationType, priority).Inc()
}

// RecordPushDelivery records a push delivery attempt
func (m *NotificationMetrics) RecordPushDelivery(status string, durationSeconds float64) {
	m.pushDeliveriesTotal.WithLabelValues(status).Inc()
	m.pushDuration.Observe(durationSeconds)
}

// RecordRateLimited records a notification dropped by rate limiting
func (m *NotificationMetrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}
