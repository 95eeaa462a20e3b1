// Package detector runs the species detection cycle: capture a short audio
// sample, hand it to the external classifier, filter the parsed detections
// by confidence and deliver them to the registered callback. Cycles are
// strictly sequential, the next one starts a fixed interval after the
// previous one completes.
package detector

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tphakala/birdwatch-go/internal/classifier"
	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/events"
	"github.com/tphakala/birdwatch-go/internal/logging"
	"github.com/tphakala/birdwatch-go/internal/media"
	"github.com/tphakala/birdwatch-go/internal/observability/metrics"
)

// Package-level logger for the detector
var (
	detectorLogger   *slog.Logger
	detectorLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	detectorLevelVar.Set(slog.LevelInfo)

	detectorLogger, _, err = logging.NewFileLogger("logs/detector.log", "detector", detectorLevelVar)
	if err != nil {
		logging.Error("Failed to initialize detector file logger", "error", err)
		detectorLogger = logging.DiscardLogger("detector", detectorLevelVar)
	}
}

// Classifier abstracts the external acoustic classifier.
type Classifier interface {
	Classify(ctx context.Context, audioPath string) (*classifier.Result, error)
	Probe(ctx context.Context) bool
}

// Detection is one confidence-accepted species detection. Ephemeral,
// produced per cycle and consumed by the callback.
type Detection struct {
	Species        string    `json:"species"`
	ScientificName string    `json:"scientificName"`
	Confidence     float64   `json:"confidence"` // 0-1
	Start          float64   `json:"start"`      // offset within the sample, seconds
	End            float64   `json:"end"`        // offset within the sample, seconds
	Time           time.Time `json:"time"`
}

// Options holds the detector's static thresholds.
type Options struct {
	MinConfidence    float64       // minimum confidence for accepted detections, 0-1
	AnalysisInterval time.Duration // delay between cycle completion and the next cycle
	SampleDuration   time.Duration // length of the captured audio sample
}

// Validate checks the option ranges.
func (o *Options) Validate() error {
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		return errors.Newf("min confidence must be between 0 and 1, got %f", o.MinConfidence).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}
	if o.AnalysisInterval <= 0 {
		return errors.Newf("analysis interval must be positive, got %s", o.AnalysisInterval).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}
	if o.SampleDuration <= 0 {
		return errors.Newf("sample duration must be positive, got %s", o.SampleDuration).
			Component("detector").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Detector owns the analysis loop. At most one capture subprocess and one
// classifier subprocess run at any time.
type Detector struct {
	opts       Options
	capture    media.AudioCapture
	classifier Classifier
	bus        *events.Bus
	metrics    *metrics.DetectorMetrics

	callback func(Detection)

	mu      sync.Mutex // lifecycle state
	source  string
	running bool
	enabled bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	cycleMu sync.Mutex // serializes cycles across the loop and AnalyzeNow
}

// New validates the options and builds a detector. The event bus and
// metrics are optional, nil disables that sink.
func New(opts Options, capture media.AudioCapture, cls Classifier, bus *events.Bus, m *metrics.DetectorMetrics) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		opts:       opts,
		capture:    capture,
		classifier: cls,
		bus:        bus,
		metrics:    m,
	}, nil
}

// SetSource configures the audio source. Required before Start.
func (d *Detector) SetSource(source string) {
	d.mu.Lock()
	d.source = source
	d.mu.Unlock()
}

// OnDetection registers the per-detection callback. Replaces any previous
// callback; must be called before Start.
func (d *Detector) OnDetection(cb func(Detection)) {
	d.mu.Lock()
	d.callback = cb
	d.mu.Unlock()
}

// Enabled reports whether the analysis loop is active. False before Start,
// after Stop, and when the availability probe failed.
func (d *Detector) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Start probes the classifier and begins the analysis loop. Starting
// without a configured source is a configuration error. An unreachable
// classifier disables the loop with a warning instead of failing.
// Idempotent while running.
func (d *Detector) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	if d.source == "" {
		d.mu.Unlock()
		return errors.Newf("no audio source configured, call SetSource before Start").
			Component("detector").
			Category(errors.CategoryConfiguration).
			Build()
	}
	d.mu.Unlock()

	// Probe outside the lock, it can take up to probeTimeout and
	// Enabled/Stop callers must not block behind it.
	probeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	reachable := d.classifier.Probe(probeCtx)
	cancel()
	if !reachable {
		detectorLogger.Warn("external classifier unreachable, species detection disabled")
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	ctx, cancelLoop := context.WithCancel(context.Background())
	d.cancel = cancelLoop
	d.running = true
	d.enabled = true

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		schedule(ctx, d.opts.AnalysisInterval, func() {
			if _, err := d.runCycle(ctx); err != nil && ctx.Err() == nil {
				detectorLogger.Warn("analysis cycle failed", "error", err)
			}
		})
	}()

	detectorLogger.Info("species detector started",
		"source", d.source,
		"interval_s", d.opts.AnalysisInterval.Seconds(),
		"sample_duration_s", d.opts.SampleDuration.Seconds(),
		"min_confidence", d.opts.MinConfidence,
	)
	return nil
}

// probeTimeout bounds the classifier availability probe.
const probeTimeout = 30 * time.Second

// Stop cancels the loop and any in-flight subprocess. Idempotent.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.enabled = false
	d.mu.Unlock()

	// Wait outside the lock: a queued loop cycle acquires d.mu in cycle(),
	// holding it here would deadlock the shutdown.
	cancel()
	d.wg.Wait()
	detectorLogger.Info("species detector stopped")
}

// AnalyzeNow performs exactly one analysis cycle synchronously and returns
// its detections. It shares the cycle mutex with the loop, so it never
// overlaps a running cycle.
func (d *Detector) AnalyzeNow(ctx context.Context) ([]Detection, error) {
	d.mu.Lock()
	source := d.source
	d.mu.Unlock()
	if source == "" {
		return nil, errors.Newf("no audio source configured, call SetSource before AnalyzeNow").
			Component("detector").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return d.runCycle(ctx)
}

// runCycle executes one capture-classify-filter cycle. The transient sample
// file is always removed, success or failure.
func (d *Detector) runCycle(ctx context.Context) ([]Detection, error) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	start := time.Now()
	detections, err := d.cycle(ctx, start)

	status := "success"
	if err != nil {
		status = "error"
	}
	if d.metrics != nil {
		d.metrics.RecordCycle(status, time.Since(start).Seconds())
	}
	return detections, err
}

func (d *Detector) cycle(ctx context.Context, cycleStart time.Time) ([]Detection, error) {
	d.mu.Lock()
	source := d.source
	callback := d.callback
	d.mu.Unlock()

	samplePath, err := d.capture.Capture(ctx, source, d.opts.SampleDuration)
	if err != nil {
		if d.metrics != nil {
			d.metrics.RecordCaptureError()
		}
		return nil, err
	}
	defer os.Remove(samplePath)

	// Bound the classifier so a hung subprocess cannot starve the loop
	classifyCtx, cancel := context.WithTimeout(ctx, 2*d.opts.AnalysisInterval)
	defer cancel()

	result, err := d.classifier.Classify(classifyCtx, samplePath)
	if err != nil {
		return nil, err
	}

	if d.metrics != nil {
		d.metrics.RecordClassifierRun(string(result.Invocation), "success")
		if result.Dropped > 0 {
			d.metrics.RecordDroppedRows(result.Dropped)
		}
	}

	var detections []Detection
	for _, row := range result.Rows {
		if row.Confidence < d.opts.MinConfidence {
			continue
		}
		det := Detection{
			Species:        row.CommonName,
			ScientificName: row.ScientificName,
			Confidence:     row.Confidence,
			Start:          row.Start,
			End:            row.End,
			Time:           cycleStart,
		}
		detections = append(detections, det)

		detectorLogger.Info("species detected",
			"species", det.Species,
			"scientific_name", det.ScientificName,
			"confidence", det.Confidence,
		)
		if d.metrics != nil {
			d.metrics.RecordDetection(det.Species, det.Confidence)
		}
		if d.bus != nil {
			d.bus.TryPublish(events.NewEvent(events.KindDetection, det))
		}
		if callback != nil {
			callback(det)
		}
	}
	return detections, nil
}
