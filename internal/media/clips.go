package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

// ClipCapture exports motion-triggered video clips and still frames from a
// video source. Files are organized under the export path by year and month.
type ClipCapture struct {
	ffmpegPath string
	source     string
	transport  string
	basePath   string
	duration   time.Duration
}

// NewClipCapture resolves the ffmpeg binary and returns a clip exporter.
func NewClipCapture(source, rtspTransport string, cfg *conf.ClipSettings) (*ClipCapture, error) {
	ffmpegPath, err := conf.ValidateToolPath(conf.GetFfmpegBinaryName(), "")
	if err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryConfiguration).
			Context("operation", "validate_ffmpeg_path").
			Build()
	}

	return &ClipCapture{
		ffmpegPath: ffmpegPath,
		source:     source,
		transport:  rtspTransport,
		basePath:   cfg.Path,
		duration:   time.Duration(cfg.Duration) * time.Second,
	}, nil
}

// CaptureClip records a clip of the configured duration starting now and
// returns the written file path.
func (cc *ClipCapture) CaptureClip(ctx context.Context, triggered time.Time) (string, error) {
	outPath, err := cc.exportPath(triggered, "mp4")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, cc.duration+captureGracePeriod)
	defer cancel()

	args := cc.sourceArgs()
	args = append(args,
		"-t", strconv.Itoa(int(cc.duration.Seconds())),
		"-c", "copy",
		"-y",
		outPath,
	)

	if err := cc.run(ctx, args, outPath); err != nil {
		return "", err
	}

	mediaLogger.Info("captured motion clip", "path", outPath, "duration_s", cc.duration.Seconds())
	return outPath, nil
}

// CaptureSnapshot grabs a single frame and returns the written file path.
func (cc *ClipCapture) CaptureSnapshot(ctx context.Context, triggered time.Time) (string, error) {
	outPath, err := cc.exportPath(triggered, "jpg")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, captureGracePeriod)
	defer cancel()

	args := cc.sourceArgs()
	args = append(args,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outPath,
	)

	if err := cc.run(ctx, args, outPath); err != nil {
		return "", err
	}

	mediaLogger.Info("captured snapshot", "path", outPath)
	return outPath, nil
}

func (cc *ClipCapture) sourceArgs() []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if strings.HasPrefix(cc.source, "rtsp://") {
		args = append(args, "-rtsp_transport", cc.transport)
	}
	return append(args, "-i", cc.source)
}

func (cc *ClipCapture) run(ctx context.Context, args []string, outPath string) error {
	cmd := exec.CommandContext(ctx, cc.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outPath)
		return errors.New(fmt.Errorf("clip capture failed: %w, stderr: %s", err, truncateOutput(stderr.String()))).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "clip_capture").
			Build()
	}
	return nil
}

// SnapshotPath returns the path a snapshot triggered at the given time is
// written to. The name derives only from the trigger time, so callers may
// reference it before CaptureSnapshot has completed.
func (cc *ClipCapture) SnapshotPath(triggered time.Time) string {
	return cc.filePath(triggered, "jpg")
}

// exportPath builds and creates the month-keyed export directory, returning
// a timestamped file path under it.
func (cc *ClipCapture) exportPath(triggered time.Time, ext string) (string, error) {
	dir := filepath.Join(cc.basePath, triggered.Format("2006"), triggered.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Component("media").
			Category(errors.CategoryFileIO).
			Context("operation", "create_clip_dir").
			Build()
	}
	return cc.filePath(triggered, ext), nil
}

func (cc *ClipCapture) filePath(triggered time.Time, ext string) string {
	dir := filepath.Join(cc.basePath, triggered.Format("2006"), triggered.Format("01"))
	name := fmt.Sprintf("motion-%s.%s", triggered.Format("20060102-150405"), ext)
	return filepath.Join(dir, name)
}
