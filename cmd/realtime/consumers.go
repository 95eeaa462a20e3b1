package realtime

import (
	"context"
	"fmt"

	"github.com/tphakala/birdwatch-go/internal/detector"
	"github.com/tphakala/birdwatch-go/internal/events"
	"github.com/tphakala/birdwatch-go/internal/logging"
	"github.com/tphakala/birdwatch-go/internal/mqtt"
	"github.com/tphakala/birdwatch-go/internal/sightings"
)

// registerConsumers wires the pipeline stages together over the event bus:
// motion triggers an immediate analysis cycle, accepted detections become
// sightings, and recorded sightings go out over MQTT.
func registerConsumers(bus *events.Bus, det *detector.Detector, tracker *sightings.Tracker, publisher *mqtt.SightingPublisher) error {
	consumers := []events.Consumer{
		&detectorTrigger{detector: det},
		&sightingRecorder{tracker: tracker},
	}
	if publisher != nil {
		consumers = append(consumers, &sightingPublisher{publisher: publisher})
	}

	for _, consumer := range consumers {
		if err := bus.RegisterConsumer(consumer); err != nil {
			return fmt.Errorf("registering %s: %w", consumer.Name(), err)
		}
	}
	return nil
}

// detectorTrigger runs an analysis cycle as soon as motion starts instead of
// waiting for the next scheduled cycle.
type detectorTrigger struct {
	detector *detector.Detector
}

func (c *detectorTrigger) Name() string { return "detector-trigger" }
func (c *detectorTrigger) Kinds() []events.Kind { return []events.Kind{events.KindMotionStart} }

func (c *detectorTrigger) ProcessEvent(event events.Event) error {
	if !c.detector.Enabled() {
		return nil
	}
	if _, err := c.detector.AnalyzeNow(context.Background()); err != nil {
		logging.Warn("motion-triggered analysis failed", "error", err)
	}
	return nil
}

// sightingRecorder records accepted detections with the tracker.
type sightingRecorder struct {
	tracker *sightings.Tracker
}

func (c *sightingRecorder) Name() string { return "sighting-recorder" }
func (c *sightingRecorder) Kinds() []events.Kind { return []events.Kind{events.KindDetection} }

func (c *sightingRecorder) ProcessEvent(event events.Event) error {
	det, ok := event.EventPayload().(detector.Detection)
	if !ok {
		return fmt.Errorf("unexpected detection payload %T", event.EventPayload())
	}

	_, err := c.tracker.RecordSighting(context.Background(), sightings.SightingData{
		Species:        det.Species,
		ScientificName: det.ScientificName,
		Confidence:     det.Confidence,
		Timestamp:      det.Time,
	})
	return err
}

// sightingPublisher forwards recorded sightings to the MQTT broker.
type sightingPublisher struct {
	publisher *mqtt.SightingPublisher
}

func (c *sightingPublisher) Name() string { return "sighting-publisher" }
func (c *sightingPublisher) Kinds() []events.Kind { return []events.Kind{events.KindSighting} }

func (c *sightingPublisher) ProcessEvent(event events.Event) error {
	sighting, ok := event.EventPayload().(sightings.BirdSighting)
	if !ok {
		return fmt.Errorf("unexpected sighting payload %T", event.EventPayload())
	}
	return c.publisher.PublishSighting(context.Background(), &sighting)
}
