// Package realtime runs the full watcher pipeline: motion scoring, periodic
// acoustic analysis, sighting tracking and downstream publication.
package realtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdwatch-go/internal/classifier"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/detector"
	"github.com/tphakala/birdwatch-go/internal/diag"
	"github.com/tphakala/birdwatch-go/internal/events"
	"github.com/tphakala/birdwatch-go/internal/logging"
	"github.com/tphakala/birdwatch-go/internal/media"
	"github.com/tphakala/birdwatch-go/internal/motion"
	"github.com/tphakala/birdwatch-go/internal/mqtt"
	"github.com/tphakala/birdwatch-go/internal/notification"
	"github.com/tphakala/birdwatch-go/internal/observability"
	"github.com/tphakala/birdwatch-go/internal/sightings"
	"github.com/tphakala/birdwatch-go/internal/suncalc"
	"github.com/tphakala/birdwatch-go/internal/weather"
)

const (
	busShutdownTimeout = 5 * time.Second
	mqttConnectTimeout = 30 * time.Second
	pushTimeout        = 30 * time.Second
)

// Command creates the realtime watcher command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Run the watcher in realtime mode",
		Long:  "Continuously score the video source for motion and analyze the audio source for bird species.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Motion.Source, "video-source", viper.GetString("motion.source"), "Video source to score for motion (RTSP URL or device)")
	cmd.Flags().StringVar(&settings.Detector.Source, "audio-source", viper.GetString("detector.source"), "Audio source for species analysis")
	cmd.Flags().StringVar(&settings.Motion.Clip.Path, "clippath", viper.GetString("motion.clip.path"), "Path to save motion clips")
	cmd.Flags().BoolVar(&settings.Diag.Enabled, "diag", viper.GetBool("diag.enabled"), "Enable the diagnostics HTTP endpoint")
	cmd.Flags().StringVar(&settings.Diag.Listen, "listen", viper.GetString("diag.listen"), "Listen address and port of the diagnostics endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// run wires the pipeline together and blocks until interrupted.
func run(settings *conf.Settings) error {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	bus := events.NewBus(events.DefaultConfig())

	// Weather enrichment is optional, sightings are recorded bare without it.
	var enricher sightings.Enricher
	if settings.Weather.Provider != "" && settings.Weather.Provider != "none" {
		weatherService, err := weather.NewService(settings, metrics.Weather)
		if err != nil {
			logging.Warn("weather service unavailable, sightings will not be enriched", "error", err)
		} else {
			var sun *suncalc.SunCalc
			if settings.Main.Latitude != 0 || settings.Main.Longitude != 0 {
				sun = suncalc.NewSunCalc(settings.Main.Latitude, settings.Main.Longitude)
			}
			enricher = weather.NewSightingEnricher(weatherService, sun)
		}
	}

	// Push notifications are optional as well.
	var providers []notification.Provider
	if settings.Notification.Enabled && len(settings.Notification.Urls) > 0 {
		provider, err := notification.NewShoutrrrProvider(settings.Notification.Urls, pushTimeout)
		if err != nil {
			logging.Warn("push provider setup failed, notifications will be stored only", "error", err)
		} else {
			providers = append(providers, provider)
		}
	}
	notificationService := notification.NewService(&settings.Notification, metrics.Notification, providers...)
	notifier := notification.NewSightingNotifier(notificationService)

	store := sightings.NewStateStore(settings.Sightings.Path, settings.Sightings.ArchivePath)
	tracker := sightings.New(
		sightings.Config{RareSpeciesMaxCount: settings.Sightings.RareSpeciesMaxCount},
		store, enricher, notifier, nil, bus, metrics.Tracker,
	)

	capture, err := buildCapture(&settings.Detector.Capture)
	if err != nil {
		return fmt.Errorf("error initializing audio capture: %w", err)
	}

	birdnet := classifier.NewBirdNET(classifier.Options{
		Python:        settings.Detector.Analyzer.Python,
		AnalyzerDir:   settings.Detector.Analyzer.Path,
		MinConfidence: settings.Detector.MinConfidence,
		Latitude:      settings.Main.Latitude,
		Longitude:     settings.Main.Longitude,
		Locale:        settings.Detector.Locale,
	})

	det, err := detector.New(detector.Options{
		MinConfidence:    settings.Detector.MinConfidence,
		AnalysisInterval: time.Duration(settings.Detector.AnalysisInterval) * time.Second,
		SampleDuration:   time.Duration(settings.Detector.SampleDuration) * time.Second,
	}, capture, birdnet, bus, metrics.Detector)
	if err != nil {
		return fmt.Errorf("error initializing detector: %w", err)
	}
	det.SetSource(settings.Detector.Source)

	engine := motion.New(&settings.Motion, bus, metrics.Motion)

	// Recorded sightings reach MQTT through the event bus so broker trouble
	// never slows down recording.
	var mqttClient mqtt.Client
	var publisher *mqtt.SightingPublisher
	if settings.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(settings, metrics.MQTT)
		if err != nil {
			return fmt.Errorf("error initializing MQTT client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), mqttConnectTimeout)
		if err := mqttClient.Connect(ctx); err != nil {
			logging.Warn("MQTT broker unreachable, will retry in background", "error", err)
		}
		cancel()
		publisher = mqtt.NewSightingPublisher(mqttClient, settings.MQTT.Topic)
	}

	if err := registerConsumers(bus, det, tracker, publisher); err != nil {
		return fmt.Errorf("error wiring event consumers: %w", err)
	}

	// Start the pipeline.
	if settings.Motion.Source != "" {
		if err := engine.Start(settings.Motion.Source); err != nil {
			return fmt.Errorf("error starting motion engine: %w", err)
		}
	} else {
		logging.Warn("no video source configured, motion detection disabled")
	}

	if settings.Detector.Source != "" {
		if err := det.Start(); err != nil {
			return fmt.Errorf("error starting detector: %w", err)
		}
	} else {
		logging.Warn("no audio source configured, species detection disabled")
	}

	var diagServer *diag.Server
	if settings.Diag.Enabled && settings.Diag.Listen != "" {
		diagServer = startDiagServer(settings, metrics, engine, det, tracker)
	}

	logging.Info("watcher started",
		"video_source", settings.Motion.Source,
		"audio_source", settings.Detector.Source,
		"node", settings.Main.Name)

	// Block until interrupted.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logging.Info("shutting down", "signal", sig.String())

	engine.Stop()
	det.Stop()
	if diagServer != nil {
		if err := diagServer.Stop(); err != nil {
			logging.Warn("diagnostic server shutdown failed", "error", err)
		}
	}
	if err := bus.Shutdown(busShutdownTimeout); err != nil {
		logging.Warn("event bus shutdown incomplete", "error", err)
	}
	notificationService.Shutdown()
	if mqttClient != nil {
		mqttClient.Disconnect()
	}

	logging.Info("watcher stopped")
	return nil
}

// buildCapture selects the audio capture backend.
func buildCapture(cfg *conf.CaptureSettings) (media.AudioCapture, error) {
	switch cfg.Backend {
	case "soundcard":
		return media.NewSoundCardCapture(cfg), nil
	default:
		return media.NewFFmpegCapture(cfg)
	}
}

func startDiagServer(settings *conf.Settings, metrics *observability.Metrics, engine *motion.Engine, det *detector.Detector, tracker *sightings.Tracker) *diag.Server {
	server := diag.NewServer(&settings.Diag, metrics)

	server.RegisterCheck(func() diag.ComponentStatus {
		return diag.ComponentStatus{Name: "motion", Healthy: engine.Running() || settings.Motion.Source == ""}
	})
	server.RegisterCheck(func() diag.ComponentStatus {
		status := diag.ComponentStatus{Name: "detector", Healthy: det.Enabled() || settings.Detector.Source == ""}
		if !status.Healthy {
			status.Detail = "analysis loop disabled"
		}
		return status
	})
	server.SetStatusCounts(func() map[string]any {
		return map[string]any{
			"active_sightings": tracker.ActiveCount(),
			"life_list":        len(tracker.LifeList()),
		}
	})

	go func() {
		if err := server.Start(); err != nil {
			logging.Error("diagnostic server failed", "error", err)
		}
	}()
	return server
}
