package detector

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/birdwatch-go/internal/classifier"
	"go.uber.org/goleak"
)

// fakeCapture writes an empty sample file per call.
type fakeCapture struct {
	dir      string
	captures atomic.Int32
	fail     bool
}

func (f *fakeCapture) Capture(_ context.Context, _ string, _ time.Duration) (string, error) {
	f.captures.Add(1)
	if f.fail {
		return "", os.ErrNotExist
	}
	path := filepath.Join(f.dir, "sample.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// fakeClassifier returns canned rows.
type fakeClassifier struct {
	rows      []classifier.Row
	reachable bool
	err       error
	runs      atomic.Int32
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (*classifier.Result, error) {
	f.runs.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &classifier.Result{Rows: f.rows, Invocation: classifier.InvocationModule}, nil
}

func (f *fakeClassifier) Probe(context.Context) bool { return f.reachable }

func validOptions() Options {
	return Options{
		MinConfidence:    0.5,
		AnalysisInterval: 50 * time.Millisecond,
		SampleDuration:   time.Second,
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	valid := validOptions()
	assert.NoError(t, valid.Validate())

	bad := validOptions()
	bad.MinConfidence = 1.5
	assert.Error(t, bad.Validate())

	bad = validOptions()
	bad.AnalysisInterval = 0
	assert.Error(t, bad.Validate())

	bad = validOptions()
	bad.SampleDuration = -time.Second
	assert.Error(t, bad.Validate())
}

func TestStartWithoutSourceFails(t *testing.T) {
	t.Parallel()

	d, err := New(validOptions(), &fakeCapture{dir: t.TempDir()}, &fakeClassifier{reachable: true}, nil, nil)
	require.NoError(t, err)

	err = d.Start()
	assert.Error(t, err)
	assert.False(t, d.Enabled())
}

func TestProbeFailureDisablesLoop(t *testing.T) {
	t.Parallel()

	cls := &fakeClassifier{reachable: false}
	d, err := New(validOptions(), &fakeCapture{dir: t.TempDir()}, cls, nil, nil)
	require.NoError(t, err)
	d.SetSource("hw:0")

	// unreachable classifier: Start succeeds but the loop never runs
	require.NoError(t, d.Start())
	assert.False(t, d.Enabled())

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, cls.runs.Load())
}

func TestAnalyzeNowFiltersByConfidence(t *testing.T) {
	t.Parallel()

	cls := &fakeClassifier{
		reachable: true,
		rows: []classifier.Row{
			{Start: 0, End: 3, ScientificName: "Cyanocitta cristata", CommonName: "Blue Jay", Confidence: 0.91},
			{Start: 3, End: 6, ScientificName: "Passer domesticus", CommonName: "House Sparrow", Confidence: 0.30},
			{Start: 6, End: 9, ScientificName: "Cardinalis cardinalis", CommonName: "Northern Cardinal", Confidence: 0.72},
		},
	}
	d, err := New(validOptions(), &fakeCapture{dir: t.TempDir()}, cls, nil, nil)
	require.NoError(t, err)
	d.SetSource("hw:0")

	var seen []Detection
	d.OnDetection(func(det Detection) { seen = append(seen, det) })

	detections, err := d.AnalyzeNow(t.Context())
	require.NoError(t, err)

	// row order preserved, sub-threshold row filtered
	require.Len(t, detections, 2)
	assert.Equal(t, "Blue Jay", detections[0].Species)
	assert.Equal(t, "Northern Cardinal", detections[1].Species)
	assert.Equal(t, detections, seen)
}

func TestAnalyzeNowWithoutSourceFails(t *testing.T) {
	t.Parallel()

	d, err := New(validOptions(), &fakeCapture{dir: t.TempDir()}, &fakeClassifier{reachable: true}, nil, nil)
	require.NoError(t, err)

	_, err = d.AnalyzeNow(t.Context())
	assert.Error(t, err)
}

func TestCycleRemovesSampleFile(t *testing.T) {
	t.Parallel()

	capture := &fakeCapture{dir: t.TempDir()}
	d, err := New(validOptions(), capture, &fakeClassifier{reachable: true}, nil, nil)
	require.NoError(t, err)
	d.SetSource("hw:0")

	_, err = d.AnalyzeNow(t.Context())
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(capture.dir, "sample.wav"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoopContinuesAfterFailedCycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"))

	capture := &fakeCapture{dir: t.TempDir(), fail: true}
	cls := &fakeClassifier{reachable: true}
	d, err := New(validOptions(), capture, cls, nil, nil)
	require.NoError(t, err)
	d.SetSource("hw:0")

	require.NoError(t, d.Start())
	assert.True(t, d.Enabled())

	// several intervals pass; every capture fails but the loop keeps cycling
	time.Sleep(180 * time.Millisecond)
	d.Stop()

	assert.GreaterOrEqual(t, capture.captures.Load(), int32(2))
	assert.False(t, d.Enabled())

	// second Stop is a no-op
	d.Stop()
}

// gatedClassifier blocks inside Classify until released or cancelled.
type gatedClassifier struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedClassifier) Classify(ctx context.Context, _ string) (*classifier.Result, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return &classifier.Result{Invocation: classifier.InvocationModule}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedClassifier) Probe(context.Context) bool { return true }

func TestStopWithQueuedCycleCompletes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"))

	cls := &gatedClassifier{entered: make(chan struct{}, 4), release: make(chan struct{})}
	d, err := New(validOptions(), &fakeCapture{dir: t.TempDir()}, cls, nil, nil)
	require.NoError(t, err)
	d.SetSource("hw:0")
	require.NoError(t, d.Start())

	// A triggered analysis holds the cycle mutex inside the classifier
	// while a loop cycle queues up behind it.
	analyzeDone := make(chan struct{})
	go func() {
		defer close(analyzeDone)
		_, _ = d.AnalyzeNow(context.Background())
	}()
	<-cls.entered
	time.Sleep(150 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		d.Stop()
	}()
	close(cls.release)

	// Stop must drain the queued cycle instead of deadlocking on it
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a loop cycle was queued")
	}
	<-analyzeDone
	assert.False(t, d.Enabled())
}

func TestStartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"))

	d, err := New(validOptions(), &fakeCapture{dir: t.TempDir()}, &fakeClassifier{reachable: true}, nil, nil)
	require.NoError(t, err)
	d.SetSource("hw:0")

	require.NoError(t, d.Start())
	require.NoError(t, d.Start())
	d.Stop()
	d.Stop()
}
