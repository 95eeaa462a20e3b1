package media

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

// sceneScorePrefix marks per-frame score lines in ffmpeg's metadata output.
const sceneScorePrefix = "lavfi.scene_score="

// SceneScorer runs ffmpeg against a video source with the scene-change
// filter and streams per-frame scores. One scorer covers one region, or the
// full frame when region is nil. The caller owns process lifetime through
// ctx and restarts the scorer when Run returns.
type SceneScorer struct {
	ffmpegPath string
	source     string
	transport  string
	region     *conf.MotionRegion
}

// NewSceneScorer resolves the ffmpeg binary and returns a scorer for the
// given source and optional region.
func NewSceneScorer(source, rtspTransport string, region *conf.MotionRegion) (*SceneScorer, error) {
	if source == "" {
		return nil, errors.Newf("no video source configured").
			Component("media").
			Category(errors.CategoryConfiguration).
			Context("operation", "new_scene_scorer").
			Build()
	}

	ffmpegPath, err := conf.ValidateToolPath(conf.GetFfmpegBinaryName(), "")
	if err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryConfiguration).
			Context("operation", "validate_ffmpeg_path").
			Build()
	}

	return &SceneScorer{
		ffmpegPath: ffmpegPath,
		source:     source,
		transport:  rtspTransport,
		region:     region,
	}, nil
}

// Region returns the region name this scorer covers, empty for full frame.
func (ss *SceneScorer) Region() string {
	if ss.region == nil {
		return ""
	}
	return ss.region.Name
}

// Run starts one ffmpeg scoring process and sends per-frame scores to out
// until the process exits or ctx is cancelled. It blocks for the lifetime of
// the process and always returns a non-nil error describing why it stopped.
func (ss *SceneScorer) Run(ctx context.Context, out chan<- SceneScore) error {
	args := []string{"-hide_banner", "-loglevel", "info"}
	if strings.HasPrefix(ss.source, "rtsp://") {
		args = append(args, "-rtsp_transport", ss.transport)
	}
	args = append(args,
		"-i", ss.source,
		"-vf", ss.filterChain(),
		"-an",
		"-f", "null", "-",
	)

	cmd := exec.CommandContext(ctx, ss.ffmpegPath, args...)

	// metadata=print writes score lines to the ffmpeg log on stderr
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.New(err).
			Component("media").
			Category(errors.CategoryMotionScoring).
			Context("operation", "scene_scorer_pipe").
			Build()
	}

	if err := cmd.Start(); err != nil {
		return errors.New(err).
			Component("media").
			Category(errors.CategoryMotionScoring).
			Context("operation", "scene_scorer_start").
			Build()
	}

	mediaLogger.Info("scene scorer started",
		"source", ss.source,
		"region", ss.Region(),
		"pid", cmd.Process.Pid,
	)

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		score, ok := parseSceneScore(scanner.Text())
		if !ok {
			continue
		}
		select {
		case out <- SceneScore{Region: ss.Region(), Score: score, Time: time.Now()}:
		case <-ctx.Done():
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr == nil {
		waitErr = fmt.Errorf("scene scorer exited")
	}
	return errors.New(waitErr).
		Component("media").
		Category(errors.CategoryMotionScoring).
		Context("operation", "scene_scorer_exit").
		Context("region", ss.Region()).
		Build()
}

// filterChain builds the -vf argument, cropping to the region when set.
func (ss *SceneScorer) filterChain() string {
	chain := `select=gt(scene\,0),metadata=print`
	if ss.region != nil {
		chain = fmt.Sprintf("crop=%d:%d:%d:%d,%s",
			ss.region.Width, ss.region.Height, ss.region.X, ss.region.Y, chain)
	}
	return chain
}

// parseSceneScore extracts the score from a metadata log line. Lines without
// a score, and malformed scores, are skipped.
func parseSceneScore(line string) (float64, bool) {
	idx := strings.Index(line, sceneScorePrefix)
	if idx < 0 {
		return 0, false
	}
	raw := strings.TrimSpace(line[idx+len(sceneScorePrefix):])
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || score < 0 || score > 1 {
		return 0, false
	}
	return score, true
}
