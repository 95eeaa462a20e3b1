package motion

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/events"
	"github.com/tphakala/birdwatch-go/internal/media"
	"github.com/tphakala/birdwatch-go/internal/observability/metrics"
)

const (
	// scorerRestartDelay is the fixed backoff before restarting a scene
	// scorer subprocess that exited unexpectedly.
	scorerRestartDelay = 5 * time.Second

	// scoreBufferSize bounds the shared score channel across all regions.
	scoreBufferSize = 64

	// subscriberBufferSize bounds each subscriber channel. Slow subscribers
	// lose updates rather than stalling the dispatch loop.
	subscriberBufferSize = 16
)

// Engine ingests scene-change scores and emits motion transitions. It owns
// the scorer subprocesses and restarts them while running.
type Engine struct {
	cfg atomic.Pointer[Config]

	transport string
	clips     *media.ClipCapture // nil when clip capture is disabled
	snapshot  bool

	bus     *events.Bus
	metrics *metrics.MotionMetrics

	mu      sync.Mutex
	running bool
	source  string
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	subMu       sync.RWMutex
	subscribers map[chan Update]struct{}
}

// New builds an engine from settings. The event bus and metrics are
// optional, nil disables that sink.
func New(settings *conf.MotionSettings, bus *events.Bus, m *metrics.MotionMetrics) *Engine {
	e := &Engine{
		transport:   "tcp",
		snapshot:    settings.Clip.Snapshot,
		bus:         bus,
		metrics:     m,
		subscribers: make(map[chan Update]struct{}),
	}
	e.cfg.Store(&Config{
		Threshold:   settings.Threshold,
		Sensitivity: settings.Sensitivity,
		MinDuration: time.Duration(settings.MinDurationMs) * time.Millisecond,
		Cooldown:    time.Duration(settings.CooldownMs) * time.Millisecond,
		Regions:     settings.Regions,
	})

	if settings.Clip.Enabled {
		clips, err := media.NewClipCapture(settings.Source, e.transport, &settings.Clip)
		if err != nil {
			motionLogger.Warn("clip capture unavailable", "error", err)
		} else {
			e.clips = clips
		}
	}

	return e
}

// Configure atomically replaces the detection configuration. Threshold,
// sensitivity and timing changes take effect on the next scored sample. A
// changed region list rebuilds the scorer set and per-region state machines
// in place while running.
func (e *Engine) Configure(cfg Config) error {
	old := e.cfg.Swap(&cfg)
	motionLogger.Info("motion configuration replaced",
		"threshold", cfg.Threshold,
		"sensitivity", cfg.Sensitivity,
		"min_duration_ms", cfg.MinDuration.Milliseconds(),
		"cooldown_ms", cfg.Cooldown.Milliseconds(),
		"regions", len(cfg.Regions),
	)

	if regionsEqual(old.Regions, cfg.Regions) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}

	// Regions map one-to-one onto scorer subprocesses, restart the pipeline
	e.cancel()
	e.wg.Wait()
	e.running = false
	return e.startLocked(e.source)
}

// Start begins continuous scoring of the source. Idempotent, a second call
// while running is a no-op.
func (e *Engine) Start(source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	return e.startLocked(source)
}

// startLocked launches the scorer and dispatch goroutines. Caller holds e.mu.
func (e *Engine) startLocked(source string) error {
	scorers, err := e.buildScorers(source)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	e.source = source

	scores := make(chan media.SceneScore, scoreBufferSize)

	for _, scorer := range scorers {
		e.wg.Add(1)
		go e.supervise(ctx, scorer, scores)
	}

	e.wg.Add(1)
	go e.dispatch(ctx, scores)

	motionLogger.Info("motion engine started", "source", source, "scorers", len(scorers))
	return nil
}

// Stop halts scoring, terminates the scorer subprocesses and disables
// auto-restart. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.running = false
	motionLogger.Info("motion engine stopped")
}

// Running reports whether the engine is currently scoring.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Subscribe returns a channel receiving motion transitions. Updates to a
// full channel are dropped.
func (e *Engine) Subscribe() chan Update {
	ch := make(chan Update, subscriberBufferSize)
	e.subMu.Lock()
	e.subscribers[ch] = struct{}{}
	e.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (e *Engine) Unsubscribe(ch chan Update) {
	e.subMu.Lock()
	if _, ok := e.subscribers[ch]; ok {
		delete(e.subscribers, ch)
		close(ch)
	}
	e.subMu.Unlock()
}

// buildScorers creates one scorer per configured region, or a single
// full-frame scorer when no regions are set.
func (e *Engine) buildScorers(source string) ([]*media.SceneScorer, error) {
	regions := e.cfg.Load().Regions
	if len(regions) == 0 {
		scorer, err := media.NewSceneScorer(source, e.transport, nil)
		if err != nil {
			return nil, err
		}
		return []*media.SceneScorer{scorer}, nil
	}

	scorers := make([]*media.SceneScorer, 0, len(regions))
	for i := range regions {
		scorer, err := media.NewSceneScorer(source, e.transport, &regions[i])
		if err != nil {
			return nil, err
		}
		scorers = append(scorers, scorer)
	}
	return scorers, nil
}

func regionsEqual(a, b []conf.MotionRegion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// supervise runs one scorer, restarting it after a fixed delay until ctx is
// cancelled. Startup errors are logged, never fatal.
func (e *Engine) supervise(ctx context.Context, scorer *media.SceneScorer, scores chan<- media.SceneScore) {
	defer e.wg.Done()

	policy := backoff.WithContext(backoff.NewConstantBackOff(scorerRestartDelay), ctx)
	first := true

	op := func() error {
		if !first {
			if e.metrics != nil {
				e.metrics.RecordScorerRestart(scorer.Region())
			}
			motionLogger.Info("restarting scene scorer", "region", scorer.Region())
		}
		first = false

		err := scorer.Run(ctx, scores)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		motionLogger.Warn("scene scorer exited", "region", scorer.Region(), "error", err)
		return err
	}

	// Retry forever with the constant delay; only ctx cancellation ends it.
	if err := backoff.Retry(op, policy); err != nil && !errors.Is(err, context.Canceled) {
		motionLogger.Error("scene scorer supervision ended", "region", scorer.Region(), "error", err)
	}
}

// dispatch consumes scored samples and runs the per-region state machines.
func (e *Engine) dispatch(ctx context.Context, scores <-chan media.SceneScore) {
	defer e.wg.Done()

	machines := make(map[string]*stateMachine)

	for {
		select {
		case <-ctx.Done():
			return
		case score := <-scores:
			cfg := e.cfg.Load()
			normalized := gain(cfg, score.Score)

			if e.metrics != nil {
				e.metrics.RecordScore(score.Region, normalized)
			}

			sm, ok := machines[score.Region]
			if !ok {
				sm = &stateMachine{region: score.Region}
				machines[score.Region] = sm
			}

			update := sm.process(cfg, score.Time, normalized)
			if update == nil {
				continue
			}
			e.emit(ctx, update)
		}
	}
}

// emit fans one transition out to the event bus, the subscribers, the
// metrics and the clip exporter.
func (e *Engine) emit(ctx context.Context, update *Update) {
	switch {
	case update.Start != nil:
		// The snapshot name derives from the trigger time, reference it on
		// the event before the async capture lands the file.
		if e.clips != nil && e.snapshot {
			update.Start.Snapshot = e.clips.SnapshotPath(update.Start.Time)
		}
		motionLogger.Info("motion started",
			"region", update.Start.Region,
			"confidence", update.Start.Confidence,
		)
		if e.metrics != nil {
			e.metrics.RecordMotionEvent(update.Start.Region, "start")
		}
		if e.bus != nil {
			e.bus.TryPublish(events.NewEvent(events.KindMotionStart, update.Start))
		}
		if e.clips != nil {
			e.wg.Add(1)
			go e.exportClip(ctx, update.Start.Time)
		}

	case update.End != nil:
		motionLogger.Info("motion ended",
			"region", update.End.Region,
			"duration_ms", update.End.Duration.Milliseconds(),
		)
		if e.metrics != nil {
			e.metrics.RecordMotionEvent(update.End.Region, "end")
			e.metrics.RecordMotionDuration(update.End.Region, update.End.Duration.Seconds())
		}
		if e.bus != nil {
			e.bus.TryPublish(events.NewEvent(events.KindMotionEnd, update.End))
		}
	}

	e.subMu.RLock()
	for ch := range e.subscribers {
		select {
		case ch <- *update:
		default:
			motionLogger.Debug("subscriber channel full, update dropped")
		}
	}
	e.subMu.RUnlock()
}

// exportClip captures a motion-triggered clip and snapshot, best-effort.
func (e *Engine) exportClip(ctx context.Context, triggered time.Time) {
	defer e.wg.Done()

	if path, err := e.clips.CaptureClip(ctx, triggered); err != nil {
		motionLogger.Warn("clip capture failed", "error", err)
	} else {
		motionLogger.Debug("clip exported", "path", path)
	}

	if e.snapshot {
		if path, err := e.clips.CaptureSnapshot(ctx, triggered); err != nil {
			motionLogger.Warn("snapshot capture failed", "error", err)
		} else {
			motionLogger.Debug("snapshot exported", "path", path)
		}
	}
}
