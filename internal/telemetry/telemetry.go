// Package telemetry provides privacy-compliant error tracking. Disabled by
// default; users opt in through the sentry section of the configuration.
package telemetry

import (
	"log"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

// sentryInitialized tracks whether Sentry has been initialized
var sentryInitialized bool

// PlatformInfo holds privacy-safe platform information for telemetry
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

// collectPlatformInfo gathers privacy-safe platform information for telemetry
func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// Init initializes the Sentry SDK with privacy-compliant settings and
// registers the error reporter with the errors package. It only initializes
// Sentry if explicitly enabled by the user.
func Init(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		log.Println("Sentry telemetry is disabled (opt-in required)")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		AttachStacktrace: false, // Stack traces may contain file paths
		SampleRate:       1.0,
		Environment:      "production",
		// Strip request/user data the SDK may have gathered
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			event.Request = nil
			event.User = sentry.User{}
			event.ServerName = ""
			return event
		},
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_sentry").
			Build()
	}

	info := collectPlatformInfo()
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", info.OS)
		scope.SetTag("arch", info.Architecture)
		scope.SetContext("platform", map[string]any{
			"num_cpu":    info.NumCPU,
			"go_version": info.GoVersion,
		})
	})

	sentryInitialized = true
	errors.SetTelemetryReporter(NewSentryReporter(true))

	log.Println("Sentry telemetry initialized (opt-in)")
	return nil
}

// Flush waits for buffered events to be sent, bounded by the given timeout.
// Safe to call when telemetry is disabled.
func Flush(timeout time.Duration) {
	if !sentryInitialized {
		return
	}
	sentry.Flush(timeout)
}
