package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/birdwatch-go/internal/conf"
)

func TestNewCarriesRegionsIntoConfig(t *testing.T) {
	t.Parallel()

	settings := &conf.MotionSettings{
		Threshold:     30,
		Sensitivity:   50,
		MinDurationMs: 500,
		CooldownMs:    2000,
		Regions: []conf.MotionRegion{
			{Name: "feeder", X: 0, Y: 0, Width: 640, Height: 480},
		},
	}
	e := New(settings, nil, nil)

	cfg := e.cfg.Load()
	require.Len(t, cfg.Regions, 1)
	assert.Equal(t, "feeder", cfg.Regions[0].Name)
	assert.Equal(t, 30, cfg.Threshold)
}

func TestConfigureReplacesRegions(t *testing.T) {
	t.Parallel()

	e := New(&conf.MotionSettings{
		Threshold:   30,
		Sensitivity: 50,
		Regions: []conf.MotionRegion{
			{Name: "feeder", Width: 640, Height: 480},
		},
	}, nil, nil)

	// Region replacement while stopped just swaps the config, the new
	// scorer set is built on the next Start.
	err := e.Configure(Config{
		Threshold:   40,
		Sensitivity: 60,
		MinDuration: time.Second,
		Cooldown:    5 * time.Second,
		Regions: []conf.MotionRegion{
			{Name: "feeder", Width: 640, Height: 480},
			{Name: "bath", X: 640, Width: 640, Height: 480},
		},
	})
	require.NoError(t, err)

	cfg := e.cfg.Load()
	assert.Equal(t, 40, cfg.Threshold)
	require.Len(t, cfg.Regions, 2)
	assert.Equal(t, "bath", cfg.Regions[1].Name)
	assert.False(t, e.Running())
}

func TestRegionsEqual(t *testing.T) {
	t.Parallel()

	feeder := conf.MotionRegion{Name: "feeder", Width: 640, Height: 480}
	bath := conf.MotionRegion{Name: "bath", X: 640, Width: 640, Height: 480}

	assert.True(t, regionsEqual(nil, nil))
	assert.True(t, regionsEqual([]conf.MotionRegion{feeder}, []conf.MotionRegion{feeder}))
	assert.False(t, regionsEqual([]conf.MotionRegion{feeder}, nil))
	assert.False(t, regionsEqual([]conf.MotionRegion{feeder}, []conf.MotionRegion{bath}))
	assert.False(t, regionsEqual(
		[]conf.MotionRegion{feeder},
		[]conf.MotionRegion{{Name: "feeder", Width: 800, Height: 480}},
	))
}
