// config.go: This file contains the configuration for the BirdWatch-Go application. It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// RotationType defines the log rotation strategy.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// LogConfig contains settings for a rotated log file.
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // path to the log file
	Rotation RotationType // rotation strategy, "daily", "weekly" or "size"
	MaxSize  int64        // max size in bytes for size rotation
}

// MainSettings contains node identity and station location.
type MainSettings struct {
	Name      string    // name of this node, used as telemetry and MQTT identity
	TimeAs24h bool      // true for 24-hour time format, false for 12-hour time format
	Latitude  float64   // latitude of the watcher station
	Longitude float64   // longitude of the watcher station
	Log       LogConfig // main log configuration
}

// MotionRegion restricts scene scoring to a sub-area of the frame.
type MotionRegion struct {
	Name   string // region name, carried on emitted motion events
	X      int    // left edge in pixels
	Y      int    // top edge in pixels
	Width  int    // region width in pixels
	Height int    // region height in pixels
}

// ClipSettings contains settings for motion-triggered clip capture.
type ClipSettings struct {
	Enabled  bool   // true to capture a clip when motion starts
	Path     string // clip export directory
	Duration int    // clip length in seconds
	Snapshot bool   // true to also grab a still frame
}

// MotionSettings contains settings for the motion engine.
type MotionSettings struct {
	Source        string         // video source to score for scene changes
	Threshold     int            // scene-change score needed to enter motion, 0-100
	Sensitivity   int            // scoring sensitivity, 0-100
	CooldownMs    int            // minimum time between emitted motion events
	MinDurationMs int            // time the score must hold above threshold before an event
	Regions       []MotionRegion // sub-areas to score, empty for full frame
	Clip          ClipSettings   // motion-triggered clip capture
}

// AnalyzerSettings locates the external acoustic classifier.
type AnalyzerSettings struct {
	Python string // python interpreter used to run the analyzer
	Path   string // analyzer install directory, used by the script invocation form
}

// CaptureSettings selects and configures the audio capture backend.
type CaptureSettings struct {
	Backend       string // "ffmpeg" or "soundcard"
	Device        string // capture device for the soundcard backend
	RTSPTransport string // rtsp transport mode, "tcp" or "udp"
	TempPath      string // directory for transient sample files
}

// DetectorSettings contains settings for the species detector.
type DetectorSettings struct {
	Source           string           // audio source for analysis cycles
	MinConfidence    float64          // minimum confidence for accepted detections, 0-1
	AnalysisInterval int              // seconds between analysis cycles
	SampleDuration   int              // length of the captured audio sample in seconds
	Locale           string           // locale hint passed to the analyzer
	Analyzer         AnalyzerSettings // external classifier location
	Capture          CaptureSettings  // audio capture backend
}

// SightingsSettings contains settings for the sighting tracker.
type SightingsSettings struct {
	Path                string // active state file
	ArchivePath         string // directory for month-keyed archive files
	RareSpeciesMaxCount int    // lifetime count below which a species is flagged rare
}

// WeatherSettings contains all weather-related settings
type WeatherSettings struct {
	Provider     string              // "none", "yrno" or "openweather"
	PollInterval int                 // weather data polling interval in minutes
	Debug        bool                // true to enable debug mode
	OpenWeather  OpenWeatherSettings // OpenWeather integration settings
}

// OpenWeatherSettings contains settings for OpenWeather integration.
type OpenWeatherSettings struct {
	APIKey   string // OpenWeather API key
	Endpoint string // OpenWeather API endpoint
	Units    string // units of measurement: standard, metric, or imperial
	Language string // language code for the response
}

// NotificationSettings contains settings for push notifications.
type NotificationSettings struct {
	Enabled   bool     // true to enable push notifications
	Urls      []string // shoutrrr service URLs
	MaxStored int      // maximum notifications kept in memory
}

// MQTTSettings contains settings for sighting publication over MQTT.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT publication
	Broker   string // MQTT broker URL
	Topic    string // topic prefix for published messages
	Username string // MQTT username
	Password string // MQTT password
	Retain   bool   // true to retain messages at the broker
}

// DiagSettings contains settings for the diagnostics endpoint.
type DiagSettings struct {
	Enabled bool   // true to enable the diagnostics HTTP server
	Listen  string // listen address and port
}

// Settings contains all runtime configuration.
type Settings struct {
	Debug bool // true to enable debug mode

	Main         MainSettings         // node identity and location
	Motion       MotionSettings       // motion engine
	Detector     DetectorSettings     // species detector
	Sightings    SightingsSettings    // sighting tracker
	Weather      WeatherSettings      // weather enrichment
	Notification NotificationSettings // push notifications
	MQTT         MQTTSettings         // sighting publication
	Diag         DiagSettings         // diagnostics endpoint
	Sentry       SentrySettings       // error telemetry
}

// SentrySettings contains settings for error telemetry. Opt-in.
type SentrySettings struct {
	Enabled bool   // true to enable telemetry, disabled by default
	DSN     string // Sentry DSN
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Get OS specific config paths
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	// Assign config paths to Viper
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Read configuration file
	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	// Create directories for config file
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	// Write default config file
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary.
// Intended for the CLI boundary; long-lived components receive their settings
// explicitly at construction.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings saves the current settings to the configuration file.
// It uses SaveYAMLConfig to handle the atomic write process.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	// Copy so marshaling never races with concurrent readers
	settingsCopy := *settingsInstance

	// Find the path of the current config file
	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	// Marshal the settings struct to YAML
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write the YAML data to a temporary file
	// This is done to ensure atomic write operation
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	// Ensure the temporary file is removed in case of any failure
	defer os.Remove(tempFileName)

	// Write the YAML data to the temporary file
	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	// Close the temporary file after writing
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// Try to rename the temporary file to replace the original config file
	// This is typically an atomic operation on most filesystems
	if err := os.Rename(tempFileName, configPath); err != nil {
		// If rename fails (e.g., cross-device link), fall back to copy & delete
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}
