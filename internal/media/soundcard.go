package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
	"github.com/smallnest/ringbuffer"
	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
)

// SoundCardCapture captures audio samples directly from a local capture
// device via miniaudio. Frames are accumulated into a ring buffer sized to
// the requested duration and encoded to WAV once capture completes.
type SoundCardCapture struct {
	device  string // device name or decoded ID, empty for system default
	tempDir string
}

// NewSoundCardCapture returns a capture backend for the configured device.
func NewSoundCardCapture(cfg *conf.CaptureSettings) *SoundCardCapture {
	return &SoundCardCapture{
		device:  cfg.Device,
		tempDir: cfg.TempPath,
	}
}

// Capture records duration worth of audio from the sound card and returns
// the WAV file path. The source argument is ignored, the device is fixed at
// construction time.
func (sc *SoundCardCapture) Capture(ctx context.Context, _ string, duration time.Duration) (string, error) {
	malgoCtx, err := malgo.InitContext([]malgo.Backend{hostBackend()}, malgo.ContextConfig{}, func(message string) {
		mediaLogger.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return "", errors.New(err).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "init_audio_context").
			Build()
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	if sc.device != "" {
		id, err := sc.resolveDevice(&malgoCtx.Context)
		if err != nil {
			return "", err
		}
		deviceConfig.Capture.DeviceID = id
	}

	// Buffer sized for the full sample: 16-bit mono PCM.
	wantBytes := int(duration.Seconds()) * conf.SampleRate * conf.NumChannels * (conf.BitDepth / 8)
	rb := ringbuffer.New(wantBytes)

	done := make(chan struct{})
	onReceiveFrames := func(_, pSamples []byte, _ uint32) {
		n, _ := rb.Write(pSamples)
		if n < len(pSamples) || rb.Length() >= wantBytes {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
	})
	if err != nil {
		return "", errors.New(err).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "init_capture_device").
			Context("device", sc.device).
			Build()
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return "", errors.New(err).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "start_capture_device").
			Context("device", sc.device).
			Build()
	}

	select {
	case <-done:
	case <-time.After(duration + captureGracePeriod):
	case <-ctx.Done():
		_ = device.Stop()
		return "", ctx.Err()
	}
	if err := device.Stop(); err != nil {
		mediaLogger.Warn("failed to stop capture device", "error", err)
	}

	pcm := make([]byte, rb.Length())
	if _, err := rb.Read(pcm); err != nil {
		return "", errors.New(err).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "drain_capture_buffer").
			Build()
	}

	outPath := sc.samplePath()
	if err := SavePCMDataToWAV(outPath, pcm); err != nil {
		return "", errors.New(err).
			Component("media").
			Category(errors.CategoryFileIO).
			Context("operation", "encode_sample").
			Build()
	}

	mediaLogger.Debug("captured audio sample from sound card",
		"path", outPath,
		"duration_s", duration.Seconds(),
		"bytes", len(pcm),
	)

	return outPath, nil
}

// resolveDevice matches the configured device name against the available
// capture devices.
func (sc *SoundCardCapture) resolveDevice(malgoCtx *malgo.Context) (unsafe.Pointer, error) {
	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryCapture).
			Context("operation", "list_capture_devices").
			Build()
	}

	for i := range infos {
		if strings.EqualFold(infos[i].Name(), sc.device) ||
			strings.Contains(strings.ToLower(infos[i].Name()), strings.ToLower(sc.device)) {
			return infos[i].ID.Pointer(), nil
		}
	}

	return nil, errors.Newf("capture device not found: %s", sc.device).
		Component("media").
		Category(errors.CategoryConfiguration).
		Context("operation", "resolve_capture_device").
		Build()
}

func (sc *SoundCardCapture) samplePath() string {
	dir := sc.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("birdwatch-sample-%s.wav", uuid.New().String()))
}

// hostBackend picks the miniaudio backend for the current OS.
func hostBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}
