// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateMotionSettings(&settings.Motion); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDetectorSettings(&settings.Detector); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateSightingsSettings(&settings.Sightings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWeatherSettings(&settings.Weather); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateNotificationSettings(&settings.Notification); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDiagSettings(&settings.Diag); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateMotionSettings validates the motion engine settings
func validateMotionSettings(settings *MotionSettings) error {
	var errs []string

	if settings.Threshold < 0 || settings.Threshold > 100 {
		errs = append(errs, "motion threshold must be between 0 and 100")
	}

	if settings.Sensitivity < 0 || settings.Sensitivity > 100 {
		errs = append(errs, "motion sensitivity must be between 0 and 100")
	}

	if settings.CooldownMs < 0 {
		errs = append(errs, "motion cooldown must not be negative")
	}

	if settings.MinDurationMs < 0 {
		errs = append(errs, "motion minimum duration must not be negative")
	}

	for i := range settings.Regions {
		r := &settings.Regions[i]
		if r.Width <= 0 || r.Height <= 0 {
			errs = append(errs, fmt.Sprintf("motion region %q must have positive width and height", r.Name))
		}
		if r.X < 0 || r.Y < 0 {
			errs = append(errs, fmt.Sprintf("motion region %q must have non-negative origin", r.Name))
		}
	}

	if settings.Clip.Enabled && settings.Clip.Duration <= 0 {
		errs = append(errs, "motion clip duration must be positive when clip capture is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("motion settings errors: %v", errs)
	}
	return nil
}

// validateDetectorSettings validates the species detector settings
func validateDetectorSettings(settings *DetectorSettings) error {
	var errs []string

	if settings.MinConfidence < 0 || settings.MinConfidence > 1 {
		errs = append(errs, "detector minimum confidence must be between 0 and 1")
	}

	if settings.AnalysisInterval <= 0 {
		errs = append(errs, "detector analysis interval must be positive")
	}

	if settings.SampleDuration <= 0 {
		errs = append(errs, "detector sample duration must be positive")
	}

	if settings.SampleDuration >= settings.AnalysisInterval && settings.AnalysisInterval > 0 {
		errs = append(errs, "detector sample duration must be shorter than the analysis interval")
	}

	switch settings.Capture.Backend {
	case "ffmpeg", "soundcard":
	default:
		errs = append(errs, fmt.Sprintf("invalid capture backend: %s", settings.Capture.Backend))
	}

	switch settings.Capture.RTSPTransport {
	case "tcp", "udp":
	default:
		errs = append(errs, fmt.Sprintf("invalid rtsp transport: %s", settings.Capture.RTSPTransport))
	}

	if len(errs) > 0 {
		return fmt.Errorf("detector settings errors: %v", errs)
	}
	return nil
}

// validateSightingsSettings validates the sighting tracker settings
func validateSightingsSettings(settings *SightingsSettings) error {
	var errs []string

	if settings.Path == "" {
		errs = append(errs, "sightings state path must not be empty")
	}

	if settings.ArchivePath == "" {
		errs = append(errs, "sightings archive path must not be empty")
	}

	if settings.RareSpeciesMaxCount < 0 {
		errs = append(errs, "rare species max count must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("sightings settings errors: %v", errs)
	}
	return nil
}

// validateWeatherSettings validates the weather enrichment settings
func validateWeatherSettings(settings *WeatherSettings) error {
	var errs []string

	switch settings.Provider {
	case "none", "yrno", "openweather":
	default:
		errs = append(errs, fmt.Sprintf("invalid weather provider: %s", settings.Provider))
	}

	if settings.Provider == "openweather" && settings.OpenWeather.APIKey == "" {
		errs = append(errs, "OpenWeather requires an API key")
	}

	if settings.PollInterval <= 0 {
		errs = append(errs, "weather poll interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("weather settings errors: %v", errs)
	}
	return nil
}

// validateNotificationSettings validates the push notification settings
func validateNotificationSettings(settings *NotificationSettings) error {
	var errs []string

	if settings.Enabled && len(settings.Urls) == 0 {
		errs = append(errs, "notifications require at least one service URL")
	}

	for _, raw := range settings.Urls {
		if strings.TrimSpace(raw) == "" {
			errs = append(errs, "notification service URL must not be blank")
		}
	}

	if settings.MaxStored <= 0 {
		errs = append(errs, "notification store size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification settings errors: %v", errs)
	}
	return nil
}

// validateMQTTSettings validates the MQTT publication settings
func validateMQTTSettings(settings *MQTTSettings) error {
	var errs []string

	if settings.Enabled {
		if settings.Broker == "" {
			errs = append(errs, "MQTT broker must not be empty")
		} else if _, err := url.Parse(settings.Broker); err != nil {
			errs = append(errs, fmt.Sprintf("invalid MQTT broker URL: %v", err))
		}
		if settings.Topic == "" {
			errs = append(errs, "MQTT topic must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("MQTT settings errors: %v", errs)
	}
	return nil
}

// validateDiagSettings validates the diagnostics endpoint settings
func validateDiagSettings(settings *DiagSettings) error {
	if !settings.Enabled {
		return nil
	}

	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("diag settings errors: invalid listen address %q: %v", settings.Listen, err)
	}
	return nil
}
