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

	"github.com/google/uuid"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

// captureGracePeriod is added on top of the sample duration when bounding the
// capture subprocess, so a slow source start does not truncate the sample.
const captureGracePeriod = 10 * time.Second

// FFmpegCapture captures audio samples by shelling out to ffmpeg. The output
// is mono 16-bit PCM WAV at the classifier's expected sample rate.
type FFmpegCapture struct {
	ffmpegPath string
	transport  string // rtsp transport mode, applied to rtsp:// sources only
	tempDir    string // directory for transient sample files, empty for system temp
}

// NewFFmpegCapture resolves the ffmpeg binary and returns a capture backend.
func NewFFmpegCapture(cfg *conf.CaptureSettings) (*FFmpegCapture, error) {
	ffmpegPath, err := conf.ValidateToolPath(conf.GetFfmpegBinaryName(), "")
	if err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryConfiguration).
			Context("operation", "validate_ffmpeg_path").
			Build()
	}

	return &FFmpegCapture{
		ffmpegPath: ffmpegPath,
		transport:  cfg.RTSPTransport,
		tempDir:    cfg.TempPath,
	}, nil
}

// Capture records a bounded audio sample from the source and returns the
// WAV file path. The subprocess is bounded by ctx plus the sample duration.
func (fc *FFmpegCapture) Capture(ctx context.Context, source string, duration time.Duration) (string, error) {
	if source == "" {
		return "", errors.Newf("no capture source configured").
			Component("media").
			Category(errors.CategoryConfiguration).
			Context("operation", "ffmpeg_capture").
			Build()
	}

	outPath := fc.samplePath()

	ctx, cancel := context.WithTimeout(ctx, duration+captureGracePeriod)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "error"}
	if strings.HasPrefix(source, "rtsp://") {
		args = append(args, "-rtsp_transport", fc.transport)
	}
	args = append(args,
		"-i", source,
		"-t", strconv.Itoa(int(duration.Seconds())),
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(conf.SampleRate),
		"-ac", strconv.Itoa(conf.NumChannels),
		"-y",
		outPath,
	)

	cmd := exec.CommandContext(ctx, fc.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		// Remove a partial sample, best-effort
		_ = os.Remove(outPath)

		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(ctx.Err()).
				Component("media").
				Category(errors.CategoryTimeout).
				Context("operation", "ffmpeg_capture").
				Timing("capture", time.Since(start)).
				Build()
		}
		return "", errors.New(fmt.Errorf("ffmpeg capture failed: %w, stderr: %s", err, truncateOutput(stderr.String()))).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "ffmpeg_capture").
			NetworkContext(source, duration).
			Build()
	}

	mediaLogger.Debug("captured audio sample",
		"path", outPath,
		"duration_s", duration.Seconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return outPath, nil
}

// samplePath returns a unique path for a transient sample file.
func (fc *FFmpegCapture) samplePath() string {
	dir := fc.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("birdwatch-sample-%s.wav", uuid.New().String()))
}

// maxOutputPreview limits subprocess output embedded in error messages.
const maxOutputPreview = 200

func truncateOutput(out string) string {
	out = strings.TrimSpace(out)
	if len(out) > maxOutputPreview {
		return out[:maxOutputPreview] + "... (truncated)"
	}
	return out
}
