package motion

import (
	"time"
)

// phase is the per-region detection phase.
type phase int

const (
	// phaseIdle means the score is below threshold.
	phaseIdle phase = iota
	// phaseRising means the score is above threshold but the hold duration
	// or cooldown gate has not been satisfied yet.
	phaseRising
	// phaseActive means a MotionEvent was emitted and further emission is
	// suppressed until the score drops below threshold.
	phaseActive
)

// stateMachine tracks one region's transitions. Not safe for concurrent
// use, the engine's dispatch loop owns it.
type stateMachine struct {
	region      string
	phase       phase
	motionStart time.Time // first above-threshold sample of the episode
	lastEmit    time.Time // time of the last emitted MotionEvent
}

// process applies one scored sample and returns the transition it caused,
// if any. normalized is the score after sensitivity gain, 0-100.
func (sm *stateMachine) process(cfg *Config, sampleTime time.Time, normalized float64) *Update {
	if normalized > float64(cfg.Threshold) {
		switch sm.phase {
		case phaseIdle:
			sm.phase = phaseRising
			sm.motionStart = sampleTime
			fallthrough
		case phaseRising:
			if sampleTime.Sub(sm.motionStart) < cfg.MinDuration {
				return nil
			}
			if !sm.lastEmit.IsZero() && sampleTime.Sub(sm.lastEmit) < cfg.Cooldown {
				return nil
			}
			sm.phase = phaseActive
			sm.lastEmit = sampleTime
			confidence := int(normalized)
			if confidence > 100 {
				confidence = 100
			}
			return &Update{Start: &MotionEvent{
				Time:       sampleTime,
				Confidence: confidence,
				Region:     sm.region,
			}}
		case phaseActive:
			// suppressed until the score drops
		}
		return nil
	}

	wasActive := sm.phase == phaseActive
	start := sm.motionStart
	sm.phase = phaseIdle
	if !wasActive {
		return nil
	}
	return &Update{End: &MotionEnd{
		Time:     sampleTime,
		Region:   sm.region,
		Duration: sampleTime.Sub(start),
	}}
}

// gain converts a raw 0..1 scene score to the normalized 0-100 scale,
// applying sensitivity as a linear gain where 50 is neutral.
func gain(cfg *Config, rawScore float64) float64 {
	sensitivity := cfg.Sensitivity
	if sensitivity <= 0 {
		sensitivity = 50
	}
	return rawScore * 100 * float64(sensitivity) / 50
}
