package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/sightings"
)

// fakeClient records published messages without a broker
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	published map[string][]string
	err       error
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, published: make(map[string][]string)}
}

func (f *fakeClient) Connect(_ context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeClient) Publish(_ context.Context, topic, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Disconnect()       { f.connected = false }

func TestNewClientRequiresBroker(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	_, err := NewClient(settings, nil)
	require.Error(t, err)
}

func TestNewClientAppliesSettings(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Main.Name = "BirdWatch"
	settings.MQTT.Broker = "tcp://127.0.0.1:1883"
	settings.MQTT.Topic = "birdwatch"
	settings.MQTT.Username = "user"
	settings.MQTT.Retain = true

	c, err := NewClient(settings, nil)
	require.NoError(t, err)

	impl, ok := c.(*client)
	require.True(t, ok)
	assert.Equal(t, "tcp://127.0.0.1:1883", impl.config.Broker)
	assert.Equal(t, "BirdWatch", impl.config.ClientID)
	assert.Equal(t, "birdwatch", impl.config.Topic)
	assert.True(t, impl.config.Retain)
	assert.Equal(t, 30*time.Second, impl.config.ConnectTimeout)
}

func TestConnectCooldown(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://127.0.0.1:1883"

	c, err := NewClient(settings, nil)
	require.NoError(t, err)

	impl := c.(*client)
	impl.lastConnAttempt = time.Now()

	err = c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too recent")
}

func TestPublishNotConnected(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://127.0.0.1:1883"

	c, err := NewClient(settings, nil)
	require.NoError(t, err)

	err = c.Publish(context.Background(), "birdwatch/sightings", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestSightingPublisherTopicAndPayload(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	pub := NewSightingPublisher(fake, "backyard/")

	when := time.Date(2026, 8, 29, 7, 15, 0, 0, time.UTC)
	sighting := &sightings.BirdSighting{
		ID:             "abc-123",
		Species:        "Blue Jay",
		ScientificName: "Cyanocitta cristata",
		Confidence:     0.92,
		Timestamp:      when,
	}

	require.NoError(t, pub.PublishSighting(context.Background(), sighting))

	msgs := fake.published["backyard/sightings"]
	require.Len(t, msgs, 1)

	var decoded sightings.BirdSighting
	require.NoError(t, json.Unmarshal([]byte(msgs[0]), &decoded))
	assert.Equal(t, "Blue Jay", decoded.Species)
	assert.Equal(t, "Cyanocitta cristata", decoded.ScientificName)
	assert.InDelta(t, 0.92, decoded.Confidence, 0.0001)
	assert.True(t, when.Equal(decoded.Timestamp))
}

func TestSightingPublisherDefaultsTopic(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	pub := NewSightingPublisher(fake, "")

	require.NoError(t, pub.PublishSighting(context.Background(), &sightings.BirdSighting{Species: "Cardinal"}))
	require.Len(t, fake.published["birdwatch/sightings"], 1)
}

func TestSightingPublisherNilSighting(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	pub := NewSightingPublisher(fake, "birdwatch")

	require.NoError(t, pub.PublishSighting(context.Background(), nil))
	assert.Empty(t, fake.published)
}
