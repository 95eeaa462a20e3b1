// Package media wraps the external tools the watcher drives: ffmpeg for
// audio sampling, scene scoring and clip capture, and the sound card for
// direct audio input. Engines consume these through narrow interfaces so
// alternate backends can be substituted without touching engine logic.
package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/tphakala/birdwatch-go/internal/logging"
)

// Package-level logger for the media layer
var (
	mediaLogger   *slog.Logger
	mediaLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	mediaLevelVar.Set(slog.LevelInfo)

	mediaLogger, _, err = logging.NewFileLogger("logs/media.log", "media", mediaLevelVar)
	if err != nil {
		logging.Error("Failed to initialize media file logger", "error", err)
		mediaLogger = logging.DiscardLogger("media", mediaLevelVar)
	}
}

// AudioCapture captures a bounded audio sample from a source and returns the
// path of the written WAV file. Implementations must respect ctx cancellation.
type AudioCapture interface {
	Capture(ctx context.Context, source string, duration time.Duration) (string, error)
}

// SceneScore is one per-frame scene-change score from the scorer subprocess.
type SceneScore struct {
	Region string  // region name, empty for full-frame scoring
	Score  float64 // raw ffmpeg scene score, 0..1
	Time   time.Time
}
