// Package analyze runs a single analysis cycle and prints the detections.
package analyze

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdwatch-go/internal/classifier"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/detector"
	"github.com/tphakala/birdwatch-go/internal/media"
)

// Command creates the analyze command for a one-shot analysis cycle.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Capture one audio sample and identify species",
		Long:  "Run a single capture-classify cycle against the configured audio source and print the detections.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}

	cmd.Flags().StringVar(&settings.Detector.Source, "audio-source", viper.GetString("detector.source"), "Audio source for species analysis")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func run(settings *conf.Settings) error {
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
	}, capture, birdnet, nil, nil)
	if err != nil {
		return fmt.Errorf("error initializing detector: %w", err)
	}
	det.SetSource(settings.Detector.Source)

	fmt.Printf("Analyzing %s for %d seconds...\n", settings.Detector.Source, settings.Detector.SampleDuration)

	detections, err := det.AnalyzeNow(context.Background())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if len(detections) == 0 {
		fmt.Println("No species detected.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tSCIENTIFIC NAME\tCONFIDENCE\tOFFSET")
	for i := range detections {
		d := &detections[i]
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%.1fs-%.1fs\n",
			d.Species, d.ScientificName, d.Confidence*100, d.Start, d.End)
	}
	return w.Flush()
}

func buildCapture(cfg *conf.CaptureSettings) (media.AudioCapture, error) {
	switch cfg.Backend {
	case "soundcard":
		return media.NewSoundCardCapture(cfg), nil
	default:
		return media.NewFFmpegCapture(cfg)
	}
}
