package suncalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSunEventTimesOrdering(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(60.17, 24.94) // Helsinki
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	events, err := sc.GetSunEventTimes(date)
	require.NoError(t, err)

	assert.True(t, events.CivilDawn.Before(events.Sunrise))
	assert.True(t, events.Sunrise.Before(events.Sunset))
	assert.True(t, events.Sunset.Before(events.CivilDusk))
}

func TestGetSunEventTimesCached(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(60.17, 24.94)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := sc.GetSunEventTimes(date)
	require.NoError(t, err)

	sc.lock.RLock()
	_, cached := sc.cache["2026-03-01"]
	sc.lock.RUnlock()
	assert.True(t, cached)

	second, err := sc.GetSunEventTimes(date)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTimeOfDayClassification(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(60.17, 24.94)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	events, err := sc.GetSunEventTimes(date)
	require.NoError(t, err)

	assert.Equal(t, Dawn, sc.TimeOfDay(events.CivilDawn.Add(time.Minute)))
	assert.Equal(t, Day, sc.TimeOfDay(events.Sunrise.Add(time.Hour)))
	assert.Equal(t, Dusk, sc.TimeOfDay(events.Sunset.Add(time.Minute)))
	assert.Equal(t, Night, sc.TimeOfDay(events.CivilDusk.Add(time.Hour)))
	assert.Equal(t, Night, sc.TimeOfDay(events.CivilDawn.Add(-time.Hour)))
}
