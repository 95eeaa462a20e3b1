package telemetry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

// SentryReporter implements errors.TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with privacy protection
func (sr *SentryReporter) ReportError(ee *errors.EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	enhancedMessage := fmt.Sprintf("[%s] %s", ee.GetCategory(), ee.GetMessage())
	scrubbedMessage := scrubMessage(enhancedMessage)

	sentry.WithScope(func(scope *sentry.Scope) {
		errorTitle := generateErrorTitle(ee)

		scope.SetTag("error_title", errorTitle)
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())

		// Add context data with privacy scrubbing
		for key, value := range ee.GetContext() {
			scrubbedValue := value
			if strValue, ok := value.(string); ok {
				scrubbedValue = scrubMessage(strValue)
			}
			scope.SetContext(key, map[string]any{"value": scrubbedValue})
		}

		// Custom fingerprint for better grouping
		scope.SetFingerprint([]string{errorTitle, ee.GetComponent(), ee.GetCategory()})

		event := sentry.NewEvent()
		event.Message = scrubbedMessage
		event.Level = sentry.LevelError
		event.Exception = []sentry.Exception{{
			Type:  errorTitle,
			Value: scrubbedMessage,
		}}

		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// generateErrorTitle creates a grouping-friendly title from error context
func generateErrorTitle(ee *errors.EnhancedError) string {
	titleParts := []string{}

	if component := ee.GetComponent(); component != "" && component != errors.ComponentUnknown {
		titleParts = append(titleParts, titleCase(component))
	}

	if category := ee.GetCategory(); category != "" {
		titleParts = append(titleParts, titleCase(strings.ReplaceAll(category, "-", " ")))
	}

	ctx := ee.GetContext()
	if op, ok := ctx["operation"].(string); ok && op != "" {
		titleParts = append(titleParts, titleCase(strings.ReplaceAll(op, "_", " ")))
	}

	if len(titleParts) == 0 {
		return "Application Error"
	}
	return strings.Join(titleParts, " ")
}

// titleCase upper-cases the first letter of each word
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Patterns for values that must never leave the device.
var (
	urlCredentialsRe = regexp.MustCompile(`(rtsp|rtsps|http|https|mqtt|mqtts|tcp)://[^@/\s]+@`)
	urlHostRe        = regexp.MustCompile(`(rtsp|rtsps|http|https|mqtt|mqtts|tcp)://[^/\s]+`)
	homeDirRe        = regexp.MustCompile(`/(?:home|Users)/[^/\s]+`)
)

// scrubMessage removes credentials, hosts and home directories from a message
// before it is sent to telemetry.
func scrubMessage(msg string) string {
	msg = urlCredentialsRe.ReplaceAllString(msg, "$1://[redacted]@")
	msg = urlHostRe.ReplaceAllString(msg, "$1://[host-redacted]")
	msg = homeDirRe.ReplaceAllString(msg, "/[user-redacted]")
	return msg
}
