package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed runs a score sequence through a fresh state machine at a fixed
// sampling interval and returns the emitted transitions.
func feed(cfg *Config, scores []float64, interval time.Duration) []*Update {
	sm := &stateMachine{region: "test"}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var updates []*Update
	for _, raw := range scores {
		if u := sm.process(cfg, now, gain(cfg, raw)); u != nil {
			updates = append(updates, u)
		}
		now = now.Add(interval)
	}
	return updates
}

func TestStateMachineSingleEpisode(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Threshold:   50,
		Sensitivity: 50,
		MinDuration: 100 * time.Millisecond,
		Cooldown:    0,
	}

	// sustained rise well past threshold, then drop
	updates := feed(cfg, []float64{0.1, 0.1, 0.8, 0.8, 0.8, 0.1}, time.Second)

	require.Len(t, updates, 2)
	require.NotNil(t, updates[0].Start)
	assert.Equal(t, 80, updates[0].Start.Confidence)
	assert.Equal(t, "test", updates[0].Start.Region)
	require.NotNil(t, updates[1].End)
	assert.Equal(t, "test", updates[1].End.Region)
	assert.Equal(t, 3*time.Second, updates[1].End.Duration)
}

func TestStateMachineHoldDurationFiltersFlicker(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Threshold:   50,
		Sensitivity: 50,
		MinDuration: 5 * time.Second,
		Cooldown:    0,
	}

	// single-sample spike never satisfies the hold duration
	updates := feed(cfg, []float64{0.1, 0.9, 0.1, 0.9, 0.1}, time.Second)
	assert.Empty(t, updates)
}

func TestStateMachineCooldownBoundsEventRate(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Threshold:   50,
		Sensitivity: 50,
		MinDuration: 0,
		Cooldown:    time.Minute,
	}

	// two motion episodes back to back: second start suppressed by cooldown
	updates := feed(cfg, []float64{0.8, 0.8, 0.1, 0.8, 0.8, 0.1}, time.Second)

	require.Len(t, updates, 2)
	assert.NotNil(t, updates[0].Start)
	assert.NotNil(t, updates[1].End)
}

func TestStateMachineNoEndWithoutStart(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Threshold:   50,
		Sensitivity: 50,
		MinDuration: 10 * time.Second,
		Cooldown:    0,
	}

	// rises, but drops before the hold duration: no events at all
	updates := feed(cfg, []float64{0.8, 0.8, 0.1}, time.Second)
	assert.Empty(t, updates)
}

func TestStateMachineEmitsPerRegionIndependently(t *testing.T) {
	t.Parallel()

	cfg := &Config{Threshold: 50, Sensitivity: 50}
	now := time.Now()

	feeder := &stateMachine{region: "feeder"}
	bath := &stateMachine{region: "bath"}

	require.NotNil(t, feeder.process(cfg, now, 80))
	// other region's machine is unaffected by feeder's phase
	assert.Equal(t, phaseIdle, bath.phase)
	require.NotNil(t, bath.process(cfg, now, 80))
}

func TestGainSensitivity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 80.0, gain(&Config{Sensitivity: 50}, 0.8), 1e-9)
	// sensitivity 100 doubles the normalized score
	assert.InDelta(t, 40.0, gain(&Config{Sensitivity: 100}, 0.2), 1e-9)
	// zero sensitivity falls back to neutral
	assert.InDelta(t, 20.0, gain(&Config{Sensitivity: 0}, 0.2), 1e-9)
}

func TestEngineSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	e := &Engine{subscribers: make(map[chan Update]struct{})}
	e.cfg.Store(&Config{Threshold: 50, Sensitivity: 50})

	ch := e.Subscribe()
	e.emit(t.Context(), &Update{Start: &MotionEvent{Time: time.Now(), Confidence: 80}})

	select {
	case u := <-ch:
		require.NotNil(t, u.Start)
		assert.Equal(t, 80, u.Start.Confidence)
	default:
		t.Fatal("expected a delivered update")
	}

	e.Unsubscribe(ch)
	// channel is closed after unsubscribe
	_, open := <-ch
	assert.False(t, open)

	// double unsubscribe is a no-op
	e.Unsubscribe(ch)
}
