// Package events provides an asynchronous event bus for decoupling the
// watcher pipeline: motion events trigger clip capture and analysis cycles,
// accepted detections flow into the sighting tracker, and recorded sightings
// reach downstream publishers, all without blocking the producer.
package events

import (
	"time"
)

// Kind identifies the kind of pipeline event.
type Kind string

const (
	// KindMotionStart is published when the motion engine enters motion.
	KindMotionStart Kind = "motion-start"
	// KindMotionEnd is published when the motion engine leaves motion.
	KindMotionEnd Kind = "motion-end"
	// KindDetection is published for each confidence-accepted detection.
	KindDetection Kind = "detection"
	// KindSighting is published after the tracker has recorded a sighting.
	KindSighting Kind = "sighting"
)

// Event represents a pipeline event that can be processed asynchronously.
type Event interface {
	// EventKind returns the kind of the event
	EventKind() Kind

	// EventTimestamp returns when the event occurred
	EventTimestamp() time.Time

	// EventPayload returns the event payload for consumers
	EventPayload() any
}

// Consumer represents a consumer that processes pipeline events
type Consumer interface {
	// Name returns the consumer name for identification
	Name() string

	// Kinds returns the event kinds this consumer wants; empty means all
	Kinds() []Kind

	// ProcessEvent processes a single event
	ProcessEvent(event Event) error
}

// BusStats contains runtime statistics for monitoring
type BusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}

// PipelineEvent is the concrete event published by the watcher components.
type PipelineEvent struct {
	Kind      Kind
	Timestamp time.Time
	Payload   any
}

// EventKind returns the kind of the event.
func (e *PipelineEvent) EventKind() Kind { return e.Kind }

// EventTimestamp returns when the event occurred.
func (e *PipelineEvent) EventTimestamp() time.Time { return e.Timestamp }

// EventPayload returns the event payload.
func (e *PipelineEvent) EventPayload() any { return e.Payload }

// NewEvent creates a pipeline event stamped with the current time.
func NewEvent(kind Kind, payload any) *PipelineEvent {
	return &PipelineEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
