// Package classifier drives the external BirdNET acoustic classifier as a
// subprocess. Installations vary: newer ones expose a python module, older
// ones ship a standalone analyze.py script, so both invocation conventions
// are attempted in order.
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/logging"
)

// Invocation identifies which convention a classifier run used.
type Invocation string

const (
	// InvocationModule is the python module form, birdnet_analyzer.analyze.
	InvocationModule Invocation = "module"
	// InvocationScript is the legacy standalone analyze.py form.
	InvocationScript Invocation = "script"
)

// analyzerModule is the python module name of the modern installation form.
const analyzerModule = "birdnet_analyzer.analyze"

// legacyScript is the entry script of the legacy installation form.
const legacyScript = "analyze.py"

// Package-level logger for the classifier
var (
	classifierLogger   *slog.Logger
	classifierLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	classifierLevelVar.Set(slog.LevelInfo)

	classifierLogger, _, err = logging.NewFileLogger("logs/classifier.log", "classifier", classifierLevelVar)
	if err != nil {
		logging.Error("Failed to initialize classifier file logger", "error", err)
		classifierLogger = logging.DiscardLogger("classifier", classifierLevelVar)
	}
}

// Options locates and parameterizes the external classifier.
type Options struct {
	Python        string  // python interpreter, defaults to "python3"
	AnalyzerDir   string  // install directory, used by the script invocation form
	MinConfidence float64 // minimum confidence passed to the classifier, 0-1
	Latitude      float64 // geo hint, 0 disables
	Longitude     float64 // geo hint, 0 disables
	Locale        string  // locale hint for common names, empty disables
}

// Result is one classifier run's parsed output.
type Result struct {
	Rows       []Row      // detections in file order
	Invocation Invocation // the convention that produced the output
	Dropped    int        // malformed rows skipped during parsing
}

// BirdNET invokes the external classifier on audio samples.
type BirdNET struct {
	opts Options
}

// NewBirdNET returns a classifier invoker for the given options.
func NewBirdNET(opts Options) *BirdNET {
	if opts.Python == "" {
		opts.Python = "python3"
	}
	return &BirdNET{opts: opts}
}

// Classify runs the classifier on the given audio file and returns its
// parsed output table. The primary module convention is tried first; on a
// non-zero exit the legacy script convention is attempted before the run is
// treated as failed. The subprocess is bounded by ctx.
func (b *BirdNET) Classify(ctx context.Context, audioPath string) (*Result, error) {
	outPath := audioPath + ".results.csv"
	defer os.Remove(outPath)

	invocation := InvocationModule
	primaryErr := b.run(ctx, InvocationModule, b.analyzeArgs(InvocationModule, audioPath, outPath))
	if primaryErr != nil {
		if ctx.Err() != nil {
			return nil, b.timeoutError(ctx, audioPath)
		}
		classifierLogger.Warn("module invocation failed, trying legacy script",
			"audio", audioPath,
			"error", primaryErr,
		)
		invocation = InvocationScript
		if err := b.run(ctx, InvocationScript, b.analyzeArgs(InvocationScript, audioPath, outPath)); err != nil {
			if ctx.Err() != nil {
				return nil, b.timeoutError(ctx, audioPath)
			}
			return nil, errors.New(fmt.Errorf("both classifier invocations failed: %w", err)).
				Component("classifier").
				Category(errors.CategoryClassifier).
				Context("operation", "classify").
				Context("primary_error", primaryErr.Error()).
				Build()
		}
	}

	rows, dropped, err := parseResultFile(outPath)
	if err != nil {
		// Unreadable output counts as zero detections, not a hard failure
		classifierLogger.Warn("failed to parse classifier output", "path", outPath, "error", err)
		return &Result{Invocation: invocation}, nil
	}

	classifierLogger.Debug("classifier run complete",
		"invocation", string(invocation),
		"rows", len(rows),
		"dropped", dropped,
	)

	return &Result{Rows: rows, Invocation: invocation, Dropped: dropped}, nil
}

// Probe checks whether the classifier is reachable by running the
// lightweight help form of each convention in order.
func (b *BirdNET) Probe(ctx context.Context) bool {
	if err := b.run(ctx, InvocationModule, []string{"-m", analyzerModule, "--help"}); err == nil {
		return true
	}
	script := filepath.Join(b.opts.AnalyzerDir, legacyScript)
	if err := b.run(ctx, InvocationScript, []string{script, "--help"}); err == nil {
		return true
	}
	return false
}

// run executes the python interpreter with the given arguments.
func (b *BirdNET) run(ctx context.Context, invocation Invocation, args []string) error {
	cmd := exec.CommandContext(ctx, b.opts.Python, args...)
	if invocation == InvocationScript && b.opts.AnalyzerDir != "" {
		cmd.Dir = b.opts.AnalyzerDir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s invocation failed after %s: %w, stderr: %s",
			invocation, time.Since(start).Round(time.Millisecond), err, truncateOutput(stderr.String()))
	}
	return nil
}

// analyzeArgs builds the argument list for one analyze run.
func (b *BirdNET) analyzeArgs(invocation Invocation, audioPath, outPath string) []string {
	var args []string
	switch invocation {
	case InvocationModule:
		args = []string{"-m", analyzerModule}
	case InvocationScript:
		args = []string{filepath.Join(b.opts.AnalyzerDir, legacyScript)}
	}

	args = append(args,
		"--i", audioPath,
		"--o", outPath,
		"--min_conf", fmt.Sprintf("%.2f", b.opts.MinConfidence),
	)
	if b.opts.Latitude != 0 || b.opts.Longitude != 0 {
		args = append(args,
			"--lat", fmt.Sprintf("%.4f", b.opts.Latitude),
			"--lon", fmt.Sprintf("%.4f", b.opts.Longitude),
			"--week", fmt.Sprintf("%d", yearWeek(time.Now())),
		)
	}
	if b.opts.Locale != "" {
		args = append(args, "--locale", b.opts.Locale)
	}
	return append(args, "--rtype", "csv")
}

func (b *BirdNET) timeoutError(ctx context.Context, audioPath string) error {
	return errors.New(ctx.Err()).
		Component("classifier").
		Category(errors.CategoryTimeout).
		Context("operation", "classify").
		Context("audio", filepath.Base(audioPath)).
		Build()
}

// yearWeek maps a date to the classifier's 48-week year, four weeks per
// month.
func yearWeek(t time.Time) int {
	week := (int(t.Month())-1)*4 + (t.Day()-1)/7 + 1
	if week > 48 {
		week = 48
	}
	return week
}

const maxOutputPreview = 200

func truncateOutput(out string) string {
	out = strings.TrimSpace(out)
	if len(out) > maxOutputPreview {
		return out[:maxOutputPreview] + "... (truncated)"
	}
	return out
}
