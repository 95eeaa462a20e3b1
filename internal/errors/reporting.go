// Package errors - telemetry reporting hook (optional)
package errors

import (
	"sync/atomic"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems.
// Implemented by the telemetry package; registered here to avoid a circular
// dependency between errors and telemetry.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	telemetryReporter  atomic.Pointer[TelemetryReporter]
	hasActiveReporting atomic.Bool
)

// SetTelemetryReporter registers the reporter used for Build()-time error
// reporting. Passing nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	if reporter == nil {
		telemetryReporter.Store(nil)
		hasActiveReporting.Store(false)
		return
	}
	telemetryReporter.Store(&reporter)
	hasActiveReporting.Store(reporter.IsEnabled())
}

// reportToTelemetry forwards an enhanced error to the registered reporter.
func reportToTelemetry(ee *EnhancedError) {
	if !hasActiveReporting.Load() {
		return
	}

	reporterPtr := telemetryReporter.Load()
	if reporterPtr == nil {
		return
	}

	reporter := *reporterPtr
	if reporter == nil || !reporter.IsEnabled() {
		return
	}

	reporter.ReportError(ee)
}
