// Package metrics provides constants used across metric definitions.
package metrics

// Histogram bucket parameters shared by metric definitions.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart1s is the starting bucket for 1s histograms (1s to ~17min range).
	BucketStart1s = 1.0
	// BucketFactor2 doubles each successive bucket.
	BucketFactor2 = 2.0
	// BucketCount10 gives ten buckets per histogram.
	BucketCount10 = 10
)
