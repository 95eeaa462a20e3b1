package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/sightings"
)

const defaultBaseTopic = "birdwatch"

// SightingPublisher publishes recorded sightings as JSON messages.
// It satisfies the sightings tracker's publisher contract.
type SightingPublisher struct {
	client Client
	topic  string
}

// NewSightingPublisher creates a publisher for the given base topic.
// Sightings go to <topic>/sightings.
func NewSightingPublisher(client Client, baseTopic string) *SightingPublisher {
	topic := strings.TrimSuffix(baseTopic, "/")
	if topic == "" {
		topic = defaultBaseTopic
	}
	return &SightingPublisher{
		client: client,
		topic:  topic + "/sightings",
	}
}

// PublishSighting serializes the sighting and publishes it.
func (p *SightingPublisher) PublishSighting(ctx context.Context, sighting *sightings.BirdSighting) error {
	if p.client == nil || sighting == nil {
		return nil
	}

	payload, err := json.Marshal(sighting)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryValidation).
			Context("operation", "marshal_sighting").
			Context("species", sighting.Species).
			Build()
	}

	return p.client.Publish(ctx, p.topic, string(payload))
}
