package session

import (
	"context"

	"github.com/averch/hark/internal/recog"
)

// AudioRouter is the session-facing audio surface: one capture stream plus
// the start/stop/cancel cues.
type AudioRouter interface {
	BeginCapture(ctx context.Context) (<-chan []byte, error)
	EndCapture()
	BytesCaptured() int64
	PlayStartCue(context.Context)
	PlayStopCue(ctx context.Context, onComplete func())
	PlayCancelCue(context.Context)
}

// Recognizer is one live recognition task. Events carries the serialized
// lifecycle stream and is closed when the task is over.
type Recognizer interface {
	Events() <-chan recog.Event
	SendAudio(frame []byte) error
	Finish() error
	Cancel() error
}

// Opener starts one recognition task per session.
type Opener interface {
	Open(ctx context.Context) (Recognizer, error)
}

// OpenFunc adapts a function to the Opener interface.
type OpenFunc func(ctx context.Context) (Recognizer, error)

func (f OpenFunc) Open(ctx context.Context) (Recognizer, error) {
	return f(ctx)
}

// Observer receives session outcomes. OnTranscript fires for every hypothesis
// with final=false and exactly once with final=true when the session yields a
// result; a silent session yields final=true with empty text. OnCancelled and
// OnFailed are mutually exclusive with the final OnTranscript.
type Observer interface {
	OnTranscript(text string, final bool)
	OnCancelled()
	OnFailed(err error)
}

// noopObserver preserves session flow when no observer is wired.
type noopObserver struct{}

func (noopObserver) OnTranscript(string, bool) {}
func (noopObserver) OnCancelled()              {}
func (noopObserver) OnFailed(error)            {}

// noopRouter runs sessions without a live audio stack.
type noopRouter struct{}

func (noopRouter) BeginCapture(context.Context) (<-chan []byte, error) {
	frames := make(chan []byte)
	close(frames)
	return frames, nil
}
func (noopRouter) EndCapture()                  {}
func (noopRouter) BytesCaptured() int64         { return 0 }
func (noopRouter) PlayStartCue(context.Context) {}
func (noopRouter) PlayStopCue(_ context.Context, onComplete func()) {
	if onComplete != nil {
		onComplete()
	}
}
func (noopRouter) PlayCancelCue(context.Context) {}
