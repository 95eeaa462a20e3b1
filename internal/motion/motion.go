// Package motion turns the continuous per-frame scene-change score stream
// into discrete motion events. Hysteresis (a minimum hold duration) filters
// transient flicker and a cooldown bounds the event rate during sustained
// activity. One engine supervises one scorer subprocess per configured
// region, or a single full-frame scorer.
package motion

import (
	"log/slog"
	"time"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/logging"
)

// Package-level logger for the motion engine
var (
	motionLogger   *slog.Logger
	motionLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	motionLevelVar.Set(slog.LevelInfo)

	motionLogger, _, err = logging.NewFileLogger("logs/motion.log", "motion", motionLevelVar)
	if err != nil {
		logging.Error("Failed to initialize motion file logger", "error", err)
		motionLogger = logging.DiscardLogger("motion", motionLevelVar)
	}
}

// Config controls motion detection. Threshold and sensitivity are normalized
// to 0-100; a sensitivity of 50 is neutral gain on the incoming score.
type Config struct {
	Threshold   int                 // normalized score needed to enter motion
	Sensitivity int                 // gain applied to incoming scores, 50 is neutral
	MinDuration time.Duration       // time the score must hold above threshold
	Cooldown    time.Duration       // minimum spacing between emitted events
	Regions     []conf.MotionRegion // sub-areas to score, empty for full frame
}

// MotionEvent is emitted on a verified transition into motion. Immutable
// once emitted.
type MotionEvent struct {
	Time       time.Time `json:"time"`
	Confidence int       `json:"confidence"` // normalized score at emission, 0-100
	Region     string    `json:"region,omitempty"`
	Snapshot   string    `json:"snapshot,omitempty"`
}

// MotionEnd is emitted when the score drops back below threshold after a
// MotionEvent was emitted for the episode.
type MotionEnd struct {
	Time     time.Time     `json:"time"`
	Region   string        `json:"region,omitempty"`
	Duration time.Duration `json:"duration"` // time spent above threshold
}

// Update carries one motion transition to a subscriber. Exactly one of
// Start and End is set.
type Update struct {
	Start *MotionEvent
	End   *MotionEnd
}
