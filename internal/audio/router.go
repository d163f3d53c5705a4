package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/averch/hark/internal/config"
)

// Router is the session-facing audio surface: it owns the live capture
// stream and serializes cue playback so overlapping cues never interleave.
type Router struct {
	audioCfg config.AudioConfig
	cues     config.CueConfig
	logger   *slog.Logger

	mu      sync.Mutex
	capture *Capture

	cueMu sync.Mutex
}

// NewRouter creates a router from the audio and cue configuration.
func NewRouter(audioCfg config.AudioConfig, cues config.CueConfig, logger *slog.Logger) *Router {
	return &Router{
		audioCfg: audioCfg,
		cues:     cues,
		logger:   logger,
	}
}

// BeginCapture selects an input device and starts streaming PCM frames.
// Only one capture may be live at a time.
func (r *Router) BeginCapture(ctx context.Context) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture != nil {
		return nil, fmt.Errorf("capture already running on %q", r.capture.Device().ID)
	}

	selection, err := SelectDevice(ctx, r.audioCfg.Input, r.audioCfg.Fallback)
	if err != nil {
		return nil, fmt.Errorf("select capture device: %w", err)
	}
	if selection.Warning != "" {
		r.log("audio device fallback", "warning", selection.Warning)
	}

	capture, err := StartCapture(ctx, selection.Device)
	if err != nil {
		return nil, fmt.Errorf("start capture on %q: %w", selection.Device.ID, err)
	}

	r.capture = capture
	r.log("capture started", "device", selection.Device.ID, "fallback", selection.Fallback)
	return capture.Frames(), nil
}

// EndCapture stops the live capture stream and closes its frame channel.
// Safe to call when no capture is running and safe to call repeatedly.
func (r *Router) EndCapture() {
	r.mu.Lock()
	capture := r.capture
	r.capture = nil
	r.mu.Unlock()

	if capture == nil {
		return
	}

	capture.Stop()
	r.log("capture stopped", "device", capture.Device().ID, "bytes", capture.BytesCaptured())
}

// BytesCaptured reports bytes accepted by the live capture, or zero when idle.
func (r *Router) BytesCaptured() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capture == nil {
		return 0
	}
	return r.capture.BytesCaptured()
}

// CaptureDevice returns the live capture device, if any.
func (r *Router) CaptureDevice() (Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capture == nil {
		return Device{}, false
	}
	return r.capture.Device(), true
}

// PlayStartCue emits the session-start earcon asynchronously.
func (r *Router) PlayStartCue(context.Context) {
	r.playCue(cueStart, nil)
}

// PlayStopCue emits the session-stop earcon asynchronously. onComplete fires
// after playback finishes, including when cues are disabled or playback fails,
// so teardown never waits on a cue that will not play.
func (r *Router) PlayStopCue(_ context.Context, onComplete func()) {
	r.playCue(cueStop, onComplete)
}

// PlayCancelCue emits the session-cancel earcon asynchronously.
func (r *Router) PlayCancelCue(context.Context) {
	r.playCue(cueCancel, nil)
}

// playCue serializes cue playback and emits audio asynchronously.
func (r *Router) playCue(kind cueKind, onComplete func()) {
	if !r.cues.Enable {
		if onComplete != nil {
			onComplete()
		}
		return
	}
	go func() {
		r.cueMu.Lock()
		if err := emitCue(kind, r.cues); err != nil {
			r.log("audio cue playback failed", "error", err.Error())
		}
		r.cueMu.Unlock()

		if onComplete != nil {
			onComplete()
		}
	}()
}

func (r *Router) log(message string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(message, args...)
}
