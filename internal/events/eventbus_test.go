package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// collector records every event it receives
type collector struct {
	name  string
	kinds []Kind

	mu       sync.Mutex
	received []Event
	done     chan struct{} // closed once want events arrived
	want     int
}

func newCollector(name string, want int, kinds ...Kind) *collector {
	return &collector{
		name:  name,
		kinds: kinds,
		done:  make(chan struct{}),
		want:  want,
	}
}

func (c *collector) Name() string { return c.name }
func (c *collector) Kinds() []Kind { return c.kinds }

func (c *collector) ProcessEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, event)
	if len(c.received) == c.want {
		close(c.done)
	}
	return nil
}

func (c *collector) events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.received))
	copy(out, c.received)
	return out
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}
}

func TestPublishReachesConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Single worker keeps delivery order deterministic
	bus := NewBus(&Config{BufferSize: 16, Workers: 1})
	c := newCollector("motion-collector", 2, KindMotionStart, KindMotionEnd)
	require.NoError(t, bus.RegisterConsumer(c))

	assert.True(t, bus.TryPublish(NewEvent(KindMotionStart, "front-yard")))
	assert.True(t, bus.TryPublish(NewEvent(KindMotionEnd, "front-yard")))

	waitFor(t, c.done)
	require.NoError(t, bus.Shutdown(time.Second))

	events := c.events()
	require.Len(t, events, 2)
	assert.Equal(t, KindMotionStart, events[0].EventKind())
	assert.Equal(t, "front-yard", events[0].EventPayload())

	stats := bus.GetStats()
	assert.EqualValues(t, 2, stats.EventsReceived)
	assert.EqualValues(t, 2, stats.EventsProcessed)
}

func TestKindFilteringSkipsOtherEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(DefaultConfig())
	detections := newCollector("detections-only", 1, KindDetection)
	everything := newCollector("everything", 2)
	require.NoError(t, bus.RegisterConsumer(detections))
	require.NoError(t, bus.RegisterConsumer(everything))

	assert.True(t, bus.TryPublish(NewEvent(KindMotionStart, nil)))
	assert.True(t, bus.TryPublish(NewEvent(KindDetection, nil)))

	waitFor(t, detections.done)
	waitFor(t, everything.done)
	require.NoError(t, bus.Shutdown(time.Second))

	require.Len(t, detections.events(), 1)
	assert.Equal(t, KindDetection, detections.events()[0].EventKind())
	assert.Len(t, everything.events(), 2)
}

func TestDuplicateConsumerRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(DefaultConfig())
	require.NoError(t, bus.RegisterConsumer(newCollector("dup", 1)))
	require.Error(t, bus.RegisterConsumer(newCollector("dup", 1)))
	require.NoError(t, bus.Shutdown(time.Second))
}

func TestPublishWithoutConsumersDrops(t *testing.T) {
	bus := NewBus(DefaultConfig())

	// No consumers registered, the bus is not running yet
	assert.False(t, bus.TryPublish(NewEvent(KindSighting, nil)))
	assert.EqualValues(t, 0, bus.GetStats().EventsReceived)
}

func TestPublishAfterShutdownFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(DefaultConfig())
	require.NoError(t, bus.RegisterConsumer(newCollector("c", 1)))
	require.NoError(t, bus.Shutdown(time.Second))

	assert.False(t, bus.TryPublish(NewEvent(KindSighting, nil)))
}

func TestConsumerPanicDoesNotKillWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(DefaultConfig())

	panicker := &panicConsumer{}
	healthy := newCollector("healthy", 2)
	require.NoError(t, bus.RegisterConsumer(panicker))
	require.NoError(t, bus.RegisterConsumer(healthy))

	assert.True(t, bus.TryPublish(NewEvent(KindDetection, nil)))
	assert.True(t, bus.TryPublish(NewEvent(KindDetection, nil)))

	waitFor(t, healthy.done)
	require.NoError(t, bus.Shutdown(time.Second))

	assert.GreaterOrEqual(t, bus.GetStats().ConsumerErrors, uint64(2))
}

type panicConsumer struct{}

func (p *panicConsumer) Name() string { return "panicker" }
func (p *panicConsumer) Kinds() []Kind { return nil }
func (p *panicConsumer) ProcessEvent(event Event) error { panic("boom") }
